// Package notify sends order confirmations over email, SMS and an invoice
// file, and keeps per-customer preferences and a delivery log.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const (
	KindOrderConfirmation = "order_confirmation"
	KindInvoice           = "invoice"
)

var (
	ErrOrderNotPaid   = errors.New("order is not paid")
	ErrInvoiceNotSent = errors.New("invoice could not be sent")
)

type Orders interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	Items(ctx context.Context, orderID string) ([]order.Item, error)
}

type Customers interface {
	GetByID(ctx context.Context, id string) (*auth.Customer, error)
}

type Service struct {
	orders     Orders
	customers  Customers
	repo       Repository
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewService(orders Orders, customers Customers, repo Repository, dispatcher *Dispatcher, logger *zap.Logger) *Service {
	return &Service{orders: orders, customers: customers, repo: repo, dispatcher: dispatcher, logger: logger}
}

// NotifyOrderPaid dispatches the confirmation for a paid order and records
// every step. The returned error covers lookups only; delivery failures are
// reported through the Outcome.
func (s *Service) NotifyOrderPaid(ctx context.Context, orderID, transactionID string) (Outcome, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load order: %w", err)
	}
	items, err := s.orders.Items(ctx, orderID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load order items: %w", err)
	}
	o.Items = items

	c, err := s.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load customer: %w", err)
	}
	prefs, err := s.repo.GetPreferences(ctx, o.CustomerID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := s.dispatcher.Dispatch(ctx, NewInvoice(o, c, transactionID), prefs)

	if err := s.repo.RecordOutcome(ctx, o.CustomerID, KindOrderConfirmation, outcome); err != nil {
		s.logger.Error("record notification outcome failed", zap.String("orderId", orderID), zap.Error(err))
	}
	s.logger.Info("order confirmation dispatched",
		zap.String("orderId", orderID), zap.String("steps", outcome.Summary()), zap.Bool("allFailed", outcome.AllFailed()))
	return outcome, nil
}

// ResendInvoice delivers inv to the customer on request. Unpaid orders have
// no invoice to send.
func (s *Service) ResendInvoice(ctx context.Context, inv Invoice) (Outcome, error) {
	if !inv.Status.Paid() {
		return Outcome{}, fmt.Errorf("%w: status %s", ErrOrderNotPaid, inv.Status)
	}

	outcome := s.dispatcher.SendInvoice(ctx, inv)
	if err := s.repo.RecordOutcome(ctx, inv.CustomerID, KindInvoice, outcome); err != nil {
		s.logger.Error("record notification outcome failed", zap.String("orderId", inv.OrderID), zap.Error(err))
	}
	if outcome.AllFailed() {
		return outcome, fmt.Errorf("%w: %s", ErrInvoiceNotSent, outcome.Summary())
	}
	s.logger.Info("invoice resent", zap.String("orderId", inv.OrderID))
	return outcome, nil
}

func (s *Service) Preferences(ctx context.Context, customerID string) (Preferences, error) {
	return s.repo.GetPreferences(ctx, customerID)
}

func (s *Service) UpdatePreferences(ctx context.Context, customerID string, u PreferencesUpdate) (Preferences, error) {
	current, err := s.repo.GetPreferences(ctx, customerID)
	if err != nil {
		return Preferences{}, err
	}
	next := u.apply(current)
	if err := s.repo.UpsertPreferences(ctx, customerID, next); err != nil {
		return Preferences{}, err
	}
	return next, nil
}

func (s *Service) History(ctx context.Context, customerID string, limit int) ([]LogEntry, error) {
	return s.repo.History(ctx, customerID, limit)
}
