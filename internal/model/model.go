// Package model defines the storefront domain types shared by the catalog
// client, the state store and the REST facade.
package model

import "time"

// Category is the fixed set of product categories offered by the shop.
type Category string

const (
	CategoryCake    Category = "Cake"
	CategoryCookies Category = "Cookies"
	CategoryPastry  Category = "Pastry"
	CategoryBread   Category = "Bread"
	CategoryDessert Category = "Dessert"
)

// Categories lists every valid product category.
var Categories = []Category{
	CategoryCake,
	CategoryCookies,
	CategoryPastry,
	CategoryBread,
	CategoryDessert,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// categoryIcons maps each category to its display emoji.
var categoryIcons = map[Category]string{
	CategoryCake:    "🎂",
	CategoryCookies: "🍪",
	CategoryPastry:  "🥐",
	CategoryBread:   "🍞",
	CategoryDessert: "🍨",
}

// CategoryIcon returns the display emoji for a category, or an empty string
// for an unknown category.
func CategoryIcon(c Category) string {
	return categoryIcons[c]
}

// ProductEmojis is the set of icons a product may use as its Image token.
var ProductEmojis = []string{
	"🍰", "🍪", "🥐", "🍞", "🎂", "🧁", "🍩", "🥨", "🥞", "🍫", "🍮", "🧇",
}

// Product is a remote catalog entity. The ID is assigned by the catalog on
// creation; Stock is the authoritative available quantity. Product is a plain
// value type, so copying one yields an independent snapshot.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	Category    Category `json:"category"`
	Stock       int      `json:"stock"`
}

// CartItem is a local, ephemeral cart line. ID is generated locally and is
// independent of the product id; Product is a snapshot taken when the item
// was added, not a live view of the catalog.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is a placed order. Items and Total are frozen at checkout time;
// later cart or catalog mutations never affect them.
type Order struct {
	ID        string      `json:"id"`
	Items     []CartItem  `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}
