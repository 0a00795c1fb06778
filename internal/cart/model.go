package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusConverted Status = "converted"
	StatusAbandoned Status = "abandoned"
)

type Cart struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId,omitempty"`
	Status     Status    `json:"status"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Item keeps the unit price captured when the product was first added.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

// Quote is a cart together with its priced breakdown.
type Quote struct {
	Cart   *Cart             `json:"cart"`
	Promo  *pricing.Discount `json:"promo,omitempty"`
	Totals pricing.Breakdown `json:"totals"`
}
