package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var ErrNoLog = errors.New("no payment log")

type LogStatus string

const (
	LogSuccess    LogStatus = "success"
	LogFailed     LogStatus = "failed"
	LogAuthorized LogStatus = "authorized"
	LogCaptured   LogStatus = "captured"
)

type Log struct {
	ID             int64             `json:"id"`
	OrderID        string            `json:"orderId"`
	TransactionID  string            `json:"transactionId"`
	GatewayOrderID string            `json:"gatewayOrderId"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         LogStatus         `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type Repository interface {
	// Insert reports false when a row for the same transaction and status
	// already exists.
	Insert(ctx context.Context, q db.Querier, l Log) (bool, error)
	Latest(ctx context.Context, orderID string) (*Log, error)
	LatestWithStatus(ctx context.Context, orderID string, status LogStatus) (*Log, error)
}

type PostgresRepository struct {
	pool db.Querier
}

func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, q db.Querier, l Log) (bool, error) {
	meta := l.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return false, err
	}
	tag, err := q.Exec(ctx, `
		INSERT INTO payment_logs (order_id, transaction_id, razorpay_order_id, amount, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (transaction_id, status) DO NOTHING
	`, l.OrderID, l.TransactionID, l.GatewayOrderID, l.Amount, string(l.Status), string(raw))
	if err != nil {
		return false, fmt.Errorf("insert payment log: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const latestLog = `
	SELECT id, order_id, transaction_id, razorpay_order_id, amount, status, created_at
	FROM payment_logs
	WHERE order_id = $1`

func (r *PostgresRepository) Latest(ctx context.Context, orderID string) (*Log, error) {
	return r.scanOne(r.pool.QueryRow(ctx, latestLog+` ORDER BY created_at DESC, id DESC LIMIT 1`, orderID))
}

func (r *PostgresRepository) LatestWithStatus(ctx context.Context, orderID string, status LogStatus) (*Log, error) {
	return r.scanOne(r.pool.QueryRow(ctx, latestLog+` AND status = $2 ORDER BY created_at DESC, id DESC LIMIT 1`, orderID, string(status)))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Log, error) {
	var (
		l      Log
		status string
	)
	if err := row.Scan(&l.ID, &l.OrderID, &l.TransactionID, &l.GatewayOrderID, &l.Amount, &status, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoLog
		}
		return nil, fmt.Errorf("select payment log: %w", err)
	}
	l.Status = LogStatus(status)
	return &l, nil
}
