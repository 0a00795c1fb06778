package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryUpdate is a partial update; nil fields are left unchanged.
type CategoryUpdate struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

type Product struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"categoryId,omitempty"`
	CategorySlug string          `json:"category,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	CategoryID  *string          `json:"categoryId"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
	IsActive    *bool            `json:"isActive"`
}
