package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	Line    string `json:"addressLine"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (a Address) String() string {
	return a.Line + ", " + a.City + ", " + a.State + " " + a.Pincode
}

type Order struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	CustomerID     string          `json:"customerId"`
	CartID         string          `json:"cartId"`
	Address        Address         `json:"address"`
	PaymentMethod  string          `json:"paymentMethod"`
	PromoCode      string          `json:"promoCode,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	GST            decimal.Decimal `json:"gst"`
	Shipping       decimal.Decimal `json:"shipping"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"totalAmount"`
	Status         Status          `json:"status"`
	GatewayOrderID string          `json:"gatewayOrderId,omitempty"`
	Items          []Item          `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type TrackingEvent struct {
	Status     Status    `json:"status"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Tracking struct {
	OrderNumber string          `json:"orderNumber"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	Address     string          `json:"address"`
	Events      []TrackingEvent `json:"events"`
}

type CreateRequest struct {
	AddressLine   string `json:"addressLine"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	PaymentMethod string `json:"paymentMethod"`
	PromoCode     string `json:"promoCode"`
}

// Receipt is returned to the shopper after an order is placed.
type Receipt struct {
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	GST           decimal.Decimal `json:"gst"`
	Shipping      decimal.Decimal `json:"shipping"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
}

func (o *Order) Receipt() Receipt {
	return Receipt{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		TotalAmount:   o.Total,
		Subtotal:      o.Subtotal,
		GST:           o.GST,
		Shipping:      o.Shipping,
		Discount:      o.Discount,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
	}
}
