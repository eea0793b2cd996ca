// Package store owns all in-memory storefront state: the product catalog
// cache, the shopping cart, the order history and UI flags. Every mutation
// goes through a Store method; catalog-mutating operations are remote-first,
// so the cache never shows a state the catalog does not eventually agree with.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/widyakumara/bakeshop/internal/catalog"
	apperrors "github.com/widyakumara/bakeshop/internal/errors"
	"github.com/widyakumara/bakeshop/internal/model"
)

// DefaultMaxOrders is the default order-history retention cap.
const DefaultMaxOrders = 20

// Store is the single owner of storefront state. All state lives behind one
// mutex; operations that reach the catalog hold the lock only while applying
// the result, never across the network call, so two in-flight operations are
// not serialized against each other (last write wins on the cache).
type Store struct {
	mu       sync.Mutex
	products []model.Product
	cart     []model.CartItem
	orders   []model.Order
	darkMode bool

	maxOrders int
	catalog   catalog.Service
	logger    *slog.Logger
}

// New creates a Store backed by the given catalog service. A maxOrders of
// zero or less selects DefaultMaxOrders.
func New(svc catalog.Service, maxOrders int, logger *slog.Logger) *Store {
	if maxOrders <= 0 {
		maxOrders = DefaultMaxOrders
	}
	return &Store{
		maxOrders: maxOrders,
		catalog:   svc,
		logger:    logger.With("component", "store"),
	}
}

// OrderPatch is a partial order update. Only the status can change after
// checkout; items and total are frozen.
type OrderPatch struct {
	Status *model.OrderStatus `json:"status,omitempty"`
}

// Products returns a snapshot of the cached catalog.
func (s *Store) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Cart returns a snapshot of the current cart.
func (s *Store) Cart() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartItem, len(s.cart))
	copy(out, s.cart)
	return out
}

// Orders returns a snapshot of the order history.
func (s *Store) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, len(s.orders))
	for i, order := range s.orders {
		out[i] = snapshotOrder(order)
	}
	return out
}

// CartCount returns the total number of items in the cart (sum of quantities).
func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.cart {
		count += item.Quantity
	}
	return count
}

// CartTotal returns the total price of the cart.
func (s *Store) CartTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartTotal(s.cart)
}

// LoadCatalog replaces the cached catalog with the remote listing, newest
// first. On failure the existing cache is left untouched; the store never
// retries internally.
func (s *Store) LoadCatalog(ctx context.Context) error {
	products, err := s.catalog.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load catalog", "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrCatalogLoad, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	return nil
}

// CreateProduct creates a product in the remote catalog and, on success,
// prepends the server-assigned record to the cache.
func (s *Store) CreateProduct(ctx context.Context, product catalog.NewProduct) (*model.Product, error) {
	created, err := s.catalog.Create(ctx, product)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create product", "name", product.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrCatalogWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]model.Product{*created}, s.products...)
	out := *created
	return &out, nil
}

// UpdateProduct patches a product in the remote catalog and, on success,
// replaces the cached entry with the server's full record. The server
// response is authoritative, not a local merge of the patch.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*model.Product, error) {
	updated, err := s.catalog.Update(ctx, id, patch)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update product", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrCatalogWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = *updated
			break
		}
	}
	out := *updated
	return &out, nil
}

// DeleteProduct deletes a product from the remote catalog and, on success,
// removes it from the cache.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete product", "id", id, "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrCatalogWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = removeProduct(s.products, id)
	return nil
}

// AddToCart adds quantity units of product to the cart, merging with an
// existing line for the same product. The whole add is rejected, leaving the
// cart unchanged, when the merged quantity would exceed the product's stock.
// Returns whether the add was applied.
func (s *Store) AddToCart(product model.Product, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.cart {
		if item.Product.ID == product.ID {
			newQuantity := item.Quantity + quantity
			if newQuantity > product.Stock {
				return false
			}
			s.cart[i].Quantity = newQuantity
			return true
		}
	}
	if quantity > product.Stock {
		return false
	}
	s.cart = append(s.cart, model.CartItem{
		ID:       uuid.NewString(),
		Product:  product,
		Quantity: quantity,
	})
	return true
}

// UpdateCartItem sets a cart line's quantity. Zero removes the line. The
// stock ceiling is enforced here the same way as in AddToCart: a quantity
// above the snapshot stock rejects the update and leaves the cart unchanged.
// Returns whether the update was applied.
func (s *Store) UpdateCartItem(id string, quantity int) bool {
	if quantity < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity == 0 {
		s.cart = removeCartItem(s.cart, id)
		return true
	}
	for i, item := range s.cart {
		if item.ID == id {
			if quantity > item.Product.Stock {
				return false
			}
			s.cart[i].Quantity = quantity
			return true
		}
	}
	return false
}

// RemoveFromCart deletes a cart line by its id. No-op if absent.
func (s *Store) RemoveFromCart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = removeCartItem(s.cart, id)
}

// ClearCart empties the cart unconditionally.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
}

// PlaceOrder converts the current cart into a pending order. It submits all
// stock decrements to the catalog as one concurrent batch, and only after
// every update succeeds does it commit locally: append the order, trim the
// history, clear the cart and mirror the new stock into the cache, all in a
// single locked step. An empty cart is a no-op returning a nil order.
//
// On failure nothing local changes, but the catalog may already hold stock
// decrements from batch members that succeeded before the failing one; no
// compensating writes are issued — the next LoadCatalog reconciles the cache.
func (s *Store) PlaceOrder(ctx context.Context) (*model.Order, error) {
	s.mu.Lock()
	items := snapshotItems(s.cart)
	s.mu.Unlock()
	if len(items) == 0 {
		return nil, nil
	}

	updates := make([]catalog.StockUpdate, len(items))
	for i, item := range items {
		updates[i] = catalog.StockUpdate{
			ID:       item.Product.ID,
			NewStock: max(0, item.Product.Stock-item.Quantity),
		}
	}
	if err := s.catalog.BatchUpdateStock(ctx, updates); err != nil {
		s.logger.ErrorContext(ctx, "failed to update stock for order", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrOrderPlacement, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.commitOrder(items)
	s.logger.InfoContext(ctx, "order placed", "order_id", order.ID, "items", len(order.Items), "total", order.Total)
	out := snapshotOrder(order)
	return &out, nil
}

// PlaceOrderLocal is the offline fallback for environments without a remote
// catalog: same commit semantics as PlaceOrder, purely local stock
// arithmetic, no network call. Returns nil when the cart is empty.
func (s *Store) PlaceOrderLocal() *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cart) == 0 {
		return nil
	}
	order := s.commitOrder(snapshotItems(s.cart))
	s.logger.Info("order placed locally", "order_id", order.ID, "items", len(order.Items), "total", order.Total)
	out := snapshotOrder(order)
	return &out
}

// commitOrder builds a pending order from the item snapshot and applies the
// whole checkout mutation: history append + retention, cart clear, cached
// stock decrement. Caller must hold the lock.
func (s *Store) commitOrder(items []model.CartItem) model.Order {
	order := model.Order{
		ID:        uuid.NewString(),
		Items:     items,
		Total:     cartTotal(items),
		Status:    model.OrderPending,
		CreatedAt: time.Now(),
	}
	s.orders = append(s.orders, order)
	s.trimOrders()
	s.cart = nil
	for i := range s.products {
		for _, item := range items {
			if item.Product.ID == s.products[i].ID {
				s.products[i].Stock = max(0, s.products[i].Stock-item.Quantity)
			}
		}
	}
	return order
}

// trimOrders enforces the retention cap: when the history exceeds the cap it
// keeps the newest orders by creation time, regardless of status. Caller
// must hold the lock.
func (s *Store) trimOrders() {
	if len(s.orders) <= s.maxOrders {
		return
	}
	sort.SliceStable(s.orders, func(i, j int) bool {
		return s.orders[i].CreatedAt.After(s.orders[j].CreatedAt)
	})
	s.orders = s.orders[:s.maxOrders]
}

// UpdateOrder applies a partial patch to an order. No-op if the id is
// unknown. Status transitions are not guarded; callers are expected to only
// move pending orders to completed or cancelled.
func (s *Store) UpdateOrder(id string, patch OrderPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			if patch.Status != nil {
				s.orders[i].Status = *patch.Status
			}
			return
		}
	}
}

// DeleteOrder removes a single order by id, regardless of status.
func (s *Store) DeleteOrder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return
		}
	}
}

// ClearOrderHistory removes completed and cancelled orders, preserving every
// pending order regardless of age.
func (s *Store) ClearOrderHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.orders[:0]
	for _, order := range s.orders {
		if order.Status == model.OrderPending {
			kept = append(kept, order)
		}
	}
	s.orders = kept
}

// ToggleDarkMode flips the dark-mode flag and returns the new value.
func (s *Store) ToggleDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = !s.darkMode
	return s.darkMode
}

// DarkMode reports whether dark mode is enabled.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// AddProductLocal appends a product to the cache without touching the remote
// catalog, synthesizing its id from the current timestamp. Such products
// never reach the catalog.
func (s *Store) AddProductLocal(product catalog.NewProduct) model.Product {
	created := model.Product{
		ID:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Image:       product.Image,
		Category:    product.Category,
		Stock:       product.Stock,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, created)
	return created
}

// UpdateProductLocal merges a patch into a cached product without touching
// the remote catalog. No-op if the id is unknown.
func (s *Store) UpdateProductLocal(id string, patch catalog.ProductPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			applyPatch(&s.products[i], patch)
			return
		}
	}
}

// DeleteProductLocal removes a product from the cache without touching the
// remote catalog.
func (s *Store) DeleteProductLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = removeProduct(s.products, id)
}

func applyPatch(product *model.Product, patch catalog.ProductPatch) {
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Image != nil {
		product.Image = *patch.Image
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
}

func cartTotal(items []model.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Product.Price * int64(item.Quantity)
	}
	return total
}

// snapshotItems deep-copies cart lines; CartItem holds its Product by value,
// so copying the slice elements is a full snapshot.
func snapshotItems(items []model.CartItem) []model.CartItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.CartItem, len(items))
	copy(out, items)
	return out
}

func snapshotOrder(order model.Order) model.Order {
	out := order
	out.Items = snapshotItems(order.Items)
	return out
}

func removeCartItem(items []model.CartItem, id string) []model.CartItem {
	for i := range items {
		if items[i].ID == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

func removeProduct(products []model.Product, id string) []model.Product {
	for i := range products {
		if products[i].ID == id {
			return append(products[:i], products[i+1:]...)
		}
	}
	return products
}
