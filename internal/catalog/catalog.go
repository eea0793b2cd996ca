// Package catalog provides the client for the remote product catalog.
package catalog

import (
	"context"

	"github.com/widyakumara/bakeshop/internal/model"
)

// Service is the contract with the remote product catalog.
// It abstracts the wire protocol, allowing for different implementations
// (e.g., HTTP client, in-memory fake for tests).
type Service interface {
	// List returns all catalog products, newest first.
	List(ctx context.Context) ([]model.Product, error)

	// Create adds a new product; the catalog assigns its ID.
	// Returns the full created record.
	Create(ctx context.Context, product NewProduct) (*model.Product, error)

	// Update applies a partial patch to a product and returns the full
	// updated record as reported by the catalog.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, patch ProductPatch) (*model.Product, error)

	// Delete removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id string) error

	// BatchUpdateStock applies each stock update independently. If any
	// individual update fails the whole call fails, and the caller cannot
	// assume any subset was applied uniformly.
	BatchUpdateStock(ctx context.Context, updates []StockUpdate) error
}

// NewProduct is the payload for creating a catalog product.
type NewProduct struct {
	Name        string         `json:"name"        validate:"required,max=100"`
	Description string         `json:"description" validate:"max=500"`
	Price       int64          `json:"price"       validate:"min=0"`
	Image       string         `json:"image"`
	Category    model.Category `json:"category"    validate:"required"`
	Stock       int            `json:"stock"       validate:"min=0"`
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       *int64          `json:"price,omitempty"`
	Image       *string         `json:"image,omitempty"`
	Category    *model.Category `json:"category,omitempty"`
	Stock       *int            `json:"stock,omitempty"`
}

// StockUpdate sets a product's stock to an absolute value.
type StockUpdate struct {
	ID       string `json:"id"`
	NewStock int    `json:"stock"`
}
