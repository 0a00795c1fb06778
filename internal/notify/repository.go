package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Preferences struct {
	EmailEnabled           bool `json:"emailEnabled"`
	EmailOrderConfirmation bool `json:"emailOrderConfirmation"`
	SMSEnabled             bool `json:"smsEnabled"`
	SMSOrderConfirmation   bool `json:"smsOrderConfirmation"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		EmailEnabled:           true,
		EmailOrderConfirmation: true,
		SMSEnabled:             false,
		SMSOrderConfirmation:   true,
	}
}

func (p Preferences) wantsEmail() bool { return p.EmailEnabled && p.EmailOrderConfirmation }
func (p Preferences) wantsSMS() bool   { return p.SMSEnabled && p.SMSOrderConfirmation }

// PreferencesUpdate applies only the fields that are set.
type PreferencesUpdate struct {
	EmailEnabled           *bool `json:"emailEnabled"`
	EmailOrderConfirmation *bool `json:"emailOrderConfirmation"`
	SMSEnabled             *bool `json:"smsEnabled"`
	SMSOrderConfirmation   *bool `json:"smsOrderConfirmation"`
}

func (u PreferencesUpdate) apply(p Preferences) Preferences {
	if u.EmailEnabled != nil {
		p.EmailEnabled = *u.EmailEnabled
	}
	if u.EmailOrderConfirmation != nil {
		p.EmailOrderConfirmation = *u.EmailOrderConfirmation
	}
	if u.SMSEnabled != nil {
		p.SMSEnabled = *u.SMSEnabled
	}
	if u.SMSOrderConfirmation != nil {
		p.SMSOrderConfirmation = *u.SMSOrderConfirmation
	}
	return p
}

type LogEntry struct {
	OrderID   string     `json:"orderId"`
	Type      string     `json:"type"`
	Channel   Step       `json:"channel"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Repository interface {
	GetPreferences(ctx context.Context, customerID string) (Preferences, error)
	UpsertPreferences(ctx context.Context, customerID string, p Preferences) error
	RecordOutcome(ctx context.Context, customerID, kind string, o Outcome) error
	History(ctx context.Context, customerID string, limit int) ([]LogEntry, error)
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetPreferences returns the defaults when the customer never saved any.
func (r *PostgresRepository) GetPreferences(ctx context.Context, customerID string) (Preferences, error) {
	var p Preferences
	err := r.pool.QueryRow(ctx, `
		SELECT email_enabled, email_order_confirmation, sms_enabled, sms_order_confirmation
		FROM notification_preferences
		WHERE customer_id = $1
	`, customerID).Scan(&p.EmailEnabled, &p.EmailOrderConfirmation, &p.SMSEnabled, &p.SMSOrderConfirmation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultPreferences(), nil
		}
		return Preferences{}, fmt.Errorf("select preferences: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpsertPreferences(ctx context.Context, customerID string, p Preferences) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_preferences
			(customer_id, email_enabled, email_order_confirmation, sms_enabled, sms_order_confirmation)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			email_order_confirmation = EXCLUDED.email_order_confirmation,
			sms_enabled = EXCLUDED.sms_enabled,
			sms_order_confirmation = EXCLUDED.sms_order_confirmation,
			updated_at = now()
	`, customerID, p.EmailEnabled, p.EmailOrderConfirmation, p.SMSEnabled, p.SMSOrderConfirmation)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// RecordOutcome writes one log row per step in a single transaction.
func (r *PostgresRepository) RecordOutcome(ctx context.Context, customerID, kind string, o Outcome) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, s := range o.Steps {
			if _, err := tx.Exec(ctx, `
				INSERT INTO notification_log (customer_id, order_id, type, channel, status, error)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, customerID, o.OrderID, kind, string(s.Step), string(s.Status), s.Error); err != nil {
				return fmt.Errorf("insert notification log: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) History(ctx context.Context, customerID string, limit int) ([]LogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, type, channel, status, error, created_at
		FROM notification_log
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notification log: %w", err)
	}
	defer rows.Close()

	out := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		var channel, status string
		if err := rows.Scan(&e.OrderID, &e.Type, &channel, &status, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		e.Channel = Step(channel)
		e.Status = StepStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
