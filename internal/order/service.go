package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/refnum"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

var ErrEmptyCart = errors.New("cart is empty")

var paymentMethods = map[string]bool{
	"razorpay":   true,
	"card":       true,
	"upi":        true,
	"netbanking": true,
	"wallet":     true,
	"credit":     true,
	"cod":        true,
}

// Carts resolves the shopper's open cart.
type Carts interface {
	GetOpenForCustomer(ctx context.Context, customerID string) (*cart.Cart, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

type Service struct {
	repo   Repository
	carts  Carts
	pub    EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, carts Carts, pub EventPublisher, logger *zap.Logger) *Service {
	return &Service{repo: repo, carts: carts, pub: pub, logger: logger, now: time.Now}
}

func validateCreate(req CreateRequest) (CreateRequest, error) {
	var v validate.Validator
	req.AddressLine = v.Required("addressLine", req.AddressLine)
	req.City = v.Required("city", req.City)
	req.State = v.Required("state", req.State)
	req.Pincode = v.Pincode("pincode", req.Pincode)
	req.PaymentMethod = strings.ToLower(v.Required("paymentMethod", req.PaymentMethod))
	if req.PaymentMethod != "" {
		v.Check(paymentMethods[req.PaymentMethod], "paymentMethod", "Unsupported payment method")
	}
	return req, v.Err()
}

// Create places an order for the customer's open cart. Totals come only from
// the cart lines persisted server side.
func (s *Service) Create(ctx context.Context, customerID string, req CreateRequest) (*Order, error) {
	req, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	promo, err := pricing.LookupPromo(req.PromoCode)
	if err != nil {
		return nil, validate.Field("promoCode", err.Error())
	}

	c, err := s.carts.GetOpenForCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	now := s.now().UTC()
	o, err := s.repo.CreateFromCart(ctx, c.ID, func(items []Item) (*Order, error) {
		if len(items) == 0 {
			return nil, ErrEmptyCart
		}
		lines := make([]pricing.Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
		}
		b := pricing.Calculate(lines, promo)

		o := &Order{
			OrderNumber:   refnum.Order(now),
			CustomerID:    customerID,
			Address:       Address{Line: req.AddressLine, City: req.City, State: req.State, Pincode: req.Pincode},
			PaymentMethod: req.PaymentMethod,
			Subtotal:      b.Subtotal,
			GST:           b.TaxAmount,
			Shipping:      b.ShippingCost,
			Discount:      b.DiscountAmount,
			Total:         b.Total,
			Status:        StatusPending,
		}
		if promo != nil {
			o.PromoCode = promo.Code
		}
		return o, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("orderId", o.ID),
		zap.String("orderNumber", o.OrderNumber),
		zap.String("customerId", customerID),
		zap.String("total", o.Total.String()))

	// The order is committed; a lost event is logged rather than failing checkout.
	if err := s.pub.PublishOrderCreated(ctx, o); err != nil {
		s.logger.Error("publish OrderCreated failed", zap.String("orderId", o.ID), zap.Error(err))
	}
	return o, nil
}

func (s *Service) Tracking(ctx context.Context, orderNumber string) (Tracking, error) {
	o, err := s.repo.GetByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return Tracking{}, err
	}
	events, err := s.repo.TrackingEvents(ctx, o.ID)
	if err != nil {
		return Tracking{}, err
	}
	return Tracking{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		Address:     o.Address.String(),
		Events:      events,
	}, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// GetForCustomer hides orders owned by other customers behind ErrNotFound.
func (s *Service) GetForCustomer(ctx context.Context, orderID, customerID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotFound
	}
	items, err := s.repo.Items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) UpdateStatus(ctx context.Context, orderID string, to Status, note string) (*Order, error) {
	if !to.Valid() {
		return nil, validate.Field("status", "Unknown order status")
	}
	if strings.TrimSpace(note) == "" {
		note = "Status changed to " + string(to)
	}
	from, err := s.repo.UpdateStatus(ctx, orderID, to, note)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", zap.String("orderId", orderID), zap.String("from", string(from)), zap.String("to", string(to)))
	return s.repo.GetByID(ctx, orderID)
}
