// Package rest exposes the storefront state store over HTTP. It is a thin
// presentation wrapper: every business rule lives in the store, and handlers
// only decode, validate and map results to status codes.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/widyakumara/bakeshop/internal/catalog"
	apperrors "github.com/widyakumara/bakeshop/internal/errors"
	"github.com/widyakumara/bakeshop/internal/model"
	"github.com/widyakumara/bakeshop/internal/store"
	"github.com/widyakumara/bakeshop/pkg/web"
)

type Handler struct {
	store    *store.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new storefront API handler backed by the given store.
func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:    st,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Post("/refresh", h.RefreshCatalog)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{id}", h.UpdateCartItem)
			r.Delete("/items/{id}", h.RemoveFromCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.Checkout)
			r.Delete("/", h.ClearOrderHistory)
			r.Patch("/{id}", h.UpdateOrder)
			r.Delete("/{id}", h.DeleteOrder)
		})

		r.Get("/meta", h.Meta)
		r.Post("/settings/dark-mode/toggle", h.ToggleDarkMode)
	})

	r.Get("/healthz", h.HealthCheck)
}

// ListProducts returns the cached catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.store.Products())
}

// RefreshCatalog reloads the cache from the remote catalog.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.store.LoadCatalog(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "Catalog refresh failed", "error", err)
		web.RespondError(w, h.logger, http.StatusBadGateway, "Failed to load catalog")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.store.Products())
}

// CreateProduct creates a product in the remote catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product catalog.NewProduct
	if !h.decodeAndValidate(w, r, &product) {
		return
	}
	if !product.Category.Valid() {
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Unknown category: %s", product.Category))
		return
	}
	if product.Image == "" {
		product.Image = model.CategoryIcon(product.Category)
	}
	created, err := h.store.CreateProduct(r.Context(), product)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Product creation failed", "name", product.Name, "error", err)
		web.RespondError(w, h.logger, http.StatusBadGateway, "Failed to create product")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// UpdateProduct patches a product in the remote catalog.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var patch catalog.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Category != nil && !patch.Category.Valid() {
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Unknown category: %s", *patch.Category))
		return
	}
	updated, err := h.store.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		h.respondCatalogError(w, r, err, id)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteProduct removes a product from the remote catalog.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		h.respondCatalogError(w, r, err, id)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// cartDto is the cart plus its derived values.
type cartDto struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total int64            `json:"total"`
}

// GetCart returns the cart with derived count and total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, cartDto{
		Items: h.store.Cart(),
		Count: h.store.CartCount(),
		Total: h.store.CartTotal(),
	})
}

// addToCartDto identifies a cached product and a quantity to add.
type addToCartDto struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// AddToCart adds a cached product to the cart. A rejected add (stock
// ceiling) responds 409 and leaves the cart unchanged.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var dto addToCartDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	product, found := h.findProduct(dto.ProductID)
	if !found {
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", dto.ProductID))
		return
	}
	if !h.store.AddToCart(product, dto.Quantity) {
		web.RespondError(w, h.logger, http.StatusConflict, "Requested quantity exceeds available stock")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.store.Cart())
}

// updateCartItemDto carries the new absolute quantity for a cart line.
type updateCartItemDto struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// UpdateCartItem sets a cart line's quantity; zero removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto updateCartItemDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	if !h.store.UpdateCartItem(id, dto.Quantity) {
		web.RespondError(w, h.logger, http.StatusConflict, "Cart item not found or quantity exceeds available stock")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.store.Cart())
}

// RemoveFromCart deletes a cart line.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.store.RemoveFromCart(id)
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart()
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// ListOrders returns the order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.store.Orders())
}

// Checkout places an order from the current cart. An empty cart responds
// 204 with no order created.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.store.PlaceOrder(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Checkout failed", "error", err)
		web.RespondError(w, h.logger, http.StatusBadGateway, "Failed to place order")
		return
	}
	if order == nil {
		web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusCreated, order)
}

// updateOrderDto carries an order status transition.
type updateOrderDto struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

// UpdateOrder patches an order's status. Unknown ids are a no-op, matching
// the store contract.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto updateOrderDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	if !dto.Status.Valid() {
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Unknown order status: %s", dto.Status))
		return
	}
	h.store.UpdateOrder(id, store.OrderPatch{Status: &dto.Status})
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// DeleteOrder removes a single order regardless of status.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.store.DeleteOrder(id)
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// ClearOrderHistory removes completed and cancelled orders, keeping pending.
func (h *Handler) ClearOrderHistory(w http.ResponseWriter, r *http.Request) {
	h.store.ClearOrderHistory()
	web.RespondJSON(w, h.logger, http.StatusNoContent, nil)
}

// categoryDto pairs a category with its display icon.
type categoryDto struct {
	Name model.Category `json:"name"`
	Icon string         `json:"icon"`
}

// metaDto feeds category and emoji pickers.
type metaDto struct {
	Categories    []categoryDto `json:"categories"`
	ProductEmojis []string      `json:"product_emojis"`
}

// Meta returns the category set and the product emoji picker set.
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	categories := make([]categoryDto, len(model.Categories))
	for i, category := range model.Categories {
		categories[i] = categoryDto{Name: category, Icon: model.CategoryIcon(category)}
	}
	web.RespondJSON(w, h.logger, http.StatusOK, metaDto{
		Categories:    categories,
		ProductEmojis: model.ProductEmojis,
	})
}

// ToggleDarkMode flips the dark-mode flag.
func (h *Handler) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]bool{"dark_mode": h.store.ToggleDarkMode()})
}

// HealthCheck responds 200 when the process is up.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeAndValidate decodes the JSON body into dto and runs struct
// validation, writing the error response itself on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

// respondCatalogError maps a store catalog error to an HTTP status.
func (h *Handler) respondCatalogError(w http.ResponseWriter, r *http.Request, err error, id string) {
	if errors.Is(err, apperrors.ErrProductNotFound) {
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	h.logger.ErrorContext(r.Context(), "Catalog write failed", "ID", id, "error", err)
	web.RespondError(w, h.logger, http.StatusBadGateway, "Catalog operation failed")
}

// findProduct looks up a product snapshot in the cache.
func (h *Handler) findProduct(id string) (model.Product, bool) {
	for _, product := range h.store.Products() {
		if product.ID == id {
			return product, true
		}
	}
	return model.Product{}, false
}
