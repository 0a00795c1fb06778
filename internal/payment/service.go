package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

const Currency = "INR"

const (
	eventPaymentFailed     = "payment.failed"
	eventPaymentAuthorized = "payment.authorized"
	eventPaymentCaptured   = "payment.captured"
)

var (
	ErrNotPayable              = errors.New("order is not awaiting payment")
	ErrInvalidSignature        = errors.New("invalid payment signature")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
)

type Orders interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error)
	SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error
	Items(ctx context.Context, orderID string) ([]order.Item, error)
	Transition(ctx context.Context, q db.Querier, orderID string, to order.Status, note string) (order.Status, error)
}

type Customers interface {
	GetByID(ctx context.Context, id string) (*auth.Customer, error)
}

type EventPublisher interface {
	PublishPaymentSucceeded(ctx context.Context, payload events.PaymentSucceededPayload) error
	PublishPaymentFailed(ctx context.Context, payload events.PaymentFailedPayload) error
}

type Keys struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

type Service struct {
	pool      db.Pool
	orders    Orders
	customers Customers
	repo      Repository
	gateway   Gateway
	pub       EventPublisher
	keys      Keys
	logger    *zap.Logger
}

func NewService(pool db.Pool, orders Orders, customers Customers, repo Repository, gateway Gateway, pub EventPublisher, keys Keys, logger *zap.Logger) *Service {
	return &Service{
		pool:      pool,
		orders:    orders,
		customers: customers,
		repo:      repo,
		gateway:   gateway,
		pub:       pub,
		keys:      keys,
		logger:    logger,
	}
}

// Checkout is what the client needs to open the gateway checkout.
type Checkout struct {
	KeyID          string `json:"keyId"`
	GatewayOrderID string `json:"razorpayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OrderID        string `json:"orderId"`
	OrderNumber    string `json:"orderNumber"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

func (s *Service) ownedOrder(ctx context.Context, customerID, orderID string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (s *Service) CreateOrder(ctx context.Context, customerID, orderID string) (*Checkout, error) {
	var v validate.Validator
	orderID = v.Required("orderId", orderID)
	if err := v.Err(); err != nil {
		return nil, err
	}

	o, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, fmt.Errorf("%w: status %s", ErrNotPayable, o.Status)
	}

	amount := pricing.ToMinorUnits(o.Total)
	gw, err := s.gateway.CreateOrder(ctx, amount, Currency, o.OrderNumber, map[string]string{
		"orderId":    o.ID,
		"customerId": customerID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.orders.SetGatewayOrderID(ctx, o.ID, gw.ID); err != nil {
		return nil, err
	}

	s.logger.Info("gateway order created",
		zap.String("orderId", o.ID),
		zap.String("gatewayOrderId", gw.ID),
		zap.Int64("amount", amount))

	out := &Checkout{
		KeyID:          s.keys.KeyID,
		GatewayOrderID: gw.ID,
		Amount:         amount,
		Currency:       Currency,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
	}
	if c, err := s.customers.GetByID(ctx, customerID); err == nil {
		out.Name, out.Email, out.Phone = c.FullName, c.Email, c.Phone
	}
	return out, nil
}

type VerifyRequest struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}

type VerifyResult struct {
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	Status      order.Status `json:"status"`
	PaymentID   string       `json:"paymentId"`
	Replayed    bool         `json:"replayed"`
}

// Verify confirms a checkout. Replaying an already recorded payment returns
// the current order without another transition or event.
func (s *Service) Verify(ctx context.Context, customerID string, req VerifyRequest) (*VerifyResult, error) {
	var v validate.Validator
	req.OrderID = v.Required("orderId", req.OrderID)
	req.GatewayOrderID = v.Required("razorpay_order_id", req.GatewayOrderID)
	req.PaymentID = v.Required("razorpay_payment_id", req.PaymentID)
	req.Signature = v.Required("razorpay_signature", req.Signature)
	if err := v.Err(); err != nil {
		return nil, err
	}

	o, err := s.ownedOrder(ctx, customerID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.GatewayOrderID != req.GatewayOrderID ||
		!ValidSignature(s.keys.KeySecret, checkoutMessage(req.GatewayOrderID, req.PaymentID), req.Signature) {
		s.logger.Warn("payment signature rejected", zap.String("orderId", o.ID), zap.String("paymentId", req.PaymentID))
		return nil, ErrInvalidSignature
	}

	replayed := false
	err = db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		inserted, err := s.repo.Insert(ctx, tx, Log{
			OrderID:        o.ID,
			TransactionID:  req.PaymentID,
			GatewayOrderID: req.GatewayOrderID,
			Amount:         o.Total,
			Status:         LogSuccess,
		})
		if err != nil {
			return err
		}
		if !inserted {
			replayed = true
			return nil
		}
		_, err = s.orders.Transition(ctx, tx, o.ID, order.StatusConfirmed, "Payment received ("+req.PaymentID+")")
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{OrderID: o.ID, OrderNumber: o.OrderNumber, Status: order.StatusConfirmed, PaymentID: req.PaymentID, Replayed: replayed}
	if replayed {
		// the order may have moved on since the first confirmation
		res.Status = o.Status
		s.logger.Info("payment already recorded", zap.String("orderId", o.ID), zap.String("paymentId", req.PaymentID))
		return res, nil
	}

	s.logger.Info("payment verified", zap.String("orderId", o.ID), zap.String("paymentId", req.PaymentID))
	if err := s.pub.PublishPaymentSucceeded(ctx, events.PaymentSucceededPayload{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.CustomerID,
		PaymentID:      req.PaymentID,
		GatewayOrderID: req.GatewayOrderID,
		Amount:         o.Total,
	}); err != nil {
		s.logger.Error("publish PaymentSucceeded failed", zap.String("orderId", o.ID), zap.Error(err))
	}
	return res, nil
}

type webhookPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook applies a signed gateway callback. Events for unknown orders
// are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !ValidSignature(s.keys.WebhookSecret, string(body), signature) {
		return ErrInvalidWebhookSignature
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return validate.Field("body", "Malformed webhook payload")
	}
	p := evt.Payload.Payment.Entity
	log := s.logger.With(zap.String("event", evt.Event), zap.String("paymentId", p.ID), zap.String("gatewayOrderId", p.OrderID))

	var status LogStatus
	switch evt.Event {
	case eventPaymentFailed:
		status = LogFailed
	case eventPaymentAuthorized:
		status = LogAuthorized
	case eventPaymentCaptured:
		status = LogCaptured
	default:
		log.Info("ignoring webhook event")
		return nil
	}

	o, err := s.orders.GetByGatewayOrderID(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			log.Warn("webhook for unknown gateway order")
			return nil
		}
		return err
	}

	reason := p.ErrorDescription
	if reason == "" {
		reason = p.ErrorCode
	}
	entry := Log{
		OrderID:        o.ID,
		TransactionID:  p.ID,
		GatewayOrderID: p.OrderID,
		Amount:         decimal.New(p.Amount, -2),
		Status:         status,
	}
	if reason != "" {
		entry.Metadata = map[string]string{"reason": reason}
	}

	inserted := false
	err = db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		inserted, err = s.repo.Insert(ctx, tx, entry)
		if err != nil || !inserted || status != LogFailed {
			return err
		}
		_, err = s.orders.Transition(ctx, tx, o.ID, order.StatusPaymentFailed, "Payment failed: "+reason)
		if errors.Is(err, order.ErrInvalidTransition) {
			// Late failure after a successful retry; keep the log, leave the order.
			log.Warn("not marking order payment_failed", zap.Error(err))
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if !inserted {
		log.Info("webhook already applied")
		return nil
	}
	log.Info("webhook applied", zap.String("orderId", o.ID))

	if status == LogFailed {
		if err := s.pub.PublishPaymentFailed(ctx, events.PaymentFailedPayload{
			OrderID:        o.ID,
			UserID:         o.CustomerID,
			PaymentID:      p.ID,
			GatewayOrderID: p.OrderID,
			Reason:         reason,
		}); err != nil {
			log.Error("publish PaymentFailed failed", zap.Error(err))
		}
	}
	return nil
}

type StatusView struct {
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	OrderStatus   order.Status    `json:"orderStatus"`
	PaymentStatus string          `json:"paymentStatus"`
	TransactionID string          `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Status reports the latest payment log, or "pending" when none exists.
func (s *Service) Status(ctx context.Context, customerID, orderID string) (StatusView, error) {
	o, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return StatusView{}, err
	}
	view := StatusView{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		OrderStatus:   o.Status,
		PaymentStatus: "pending",
		Amount:        o.Total,
		UpdatedAt:     o.UpdatedAt,
	}
	l, err := s.repo.Latest(ctx, o.ID)
	switch {
	case errors.Is(err, ErrNoLog):
		return view, nil
	case err != nil:
		return StatusView{}, err
	}
	view.PaymentStatus = string(l.Status)
	view.TransactionID = l.TransactionID
	view.UpdatedAt = l.CreatedAt
	return view, nil
}

func (s *Service) Invoice(ctx context.Context, customerID, orderID string) (notify.Invoice, error) {
	o, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return notify.Invoice{}, err
	}
	items, err := s.orders.Items(ctx, o.ID)
	if err != nil {
		return notify.Invoice{}, err
	}
	o.Items = items

	c, err := s.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return notify.Invoice{}, fmt.Errorf("load customer: %w", err)
	}

	txnID := ""
	l, err := s.repo.LatestWithStatus(ctx, o.ID, LogSuccess)
	switch {
	case err == nil:
		txnID = l.TransactionID
	case !errors.Is(err, ErrNoLog):
		return notify.Invoice{}, err
	}
	return notify.NewInvoice(o, c, txnID), nil
}
