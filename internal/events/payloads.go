package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderCreated     = "OrderCreated"
	EventTypePaymentSucceeded = "PaymentSucceeded"
	EventTypePaymentFailed    = "PaymentFailed"

	orderCreatedSchema     = "contracts/events/order/OrderCreated.v1.payload.schema.json"
	paymentSucceededSchema = "contracts/events/payment/PaymentSucceeded.v1.payload.schema.json"
	paymentFailedSchema    = "contracts/events/payment/PaymentFailed.v1.payload.schema.json"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	CartID      string          `json:"cartId"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type PaymentSucceededPayload struct {
	OrderID        string          `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	UserID         string          `json:"userId"`
	PaymentID      string          `json:"paymentId"`
	GatewayOrderID string          `json:"gatewayOrderId"`
	Amount         decimal.Decimal `json:"amount"`
	Timestamp      time.Time       `json:"timestamp"`
}

type PaymentFailedPayload struct {
	OrderID        string    `json:"orderId"`
	UserID         string    `json:"userId"`
	PaymentID      string    `json:"paymentId"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

// Legacy flat events are published when enveloping is switched off.

type LegacyOrderCreated struct {
	EventType string `json:"eventType"`
	OrderCreatedPayload
}

type LegacyPaymentSucceeded struct {
	EventType string `json:"eventType"`
	PaymentSucceededPayload
}

type LegacyPaymentFailed struct {
	EventType string `json:"eventType"`
	PaymentFailedPayload
}
