package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// BuildFunc turns the cart lines read inside the checkout transaction into an
// order. Returning an error aborts the transaction.
type BuildFunc func(items []Item) (*Order, error)

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	CreateFromCart(ctx context.Context, cartID string, build BuildFunc) (*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	Items(ctx context.Context, orderID string) ([]Item, error)
	TrackingEvents(ctx context.Context, orderID string) ([]TrackingEvent, error)
	SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error
	// Transition moves an order to a new status and appends a tracking event.
	// q may be the pool or a transaction owned by the caller.
	Transition(ctx context.Context, q db.Querier, orderID string, to Status, note string) (Status, error)
	UpdateStatus(ctx context.Context, orderID string, to Status, note string) (Status, error)
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateFromCart locks the cart, prices its persisted lines through build, and
// writes the order, its items, the first tracking event and the cart
// conversion in one transaction.
func (r *PostgresRepository) CreateFromCart(ctx context.Context, cartID string, build BuildFunc) (*Order, error) {
	var o *Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM cart WHERE id = $1 FOR UPDATE`, cartID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrNotFound
			}
			return fmt.Errorf("lock cart: %w", err)
		}
		if cart.Status(status) != cart.StatusOpen {
			return cart.ErrCartClosed
		}

		items, err := cartLines(ctx, tx, cartID)
		if err != nil {
			return err
		}

		o, err = build(items)
		if err != nil {
			return err
		}
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		o.CartID = cartID
		o.Items = items

		err = tx.QueryRow(ctx, `
			INSERT INTO customer_order
				(id, order_number, customer_id, cart_id, address_line, city, state, pincode,
				 payment_method, promo_code, subtotal, gst_amount, shipping_cost, discount, total_amount, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING created_at, updated_at
		`, o.ID, o.OrderNumber, o.CustomerID, o.CartID, o.Address.Line, o.Address.City, o.Address.State, o.Address.Pincode,
			o.PaymentMethod, o.PromoCode, o.Subtotal, o.GST, o.Shipping, o.Discount, o.Total, string(o.Status),
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_item (id, order_id, product_id, name, sku, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, uuid.NewString(), o.ID, it.ProductID, it.Name, it.SKU, it.Quantity, it.UnitPrice); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := insertEvent(ctx, tx, o.ID, o.Status, "Order placed"); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE cart SET status = 'converted', updated_at = now() WHERE id = $1
		`, cartID); err != nil {
			return fmt.Errorf("convert cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

const orderColumns = `id, order_number, customer_id, cart_id, address_line, city, state, pincode,
	payment_method, promo_code, subtotal, gst_amount, shipping_cost, discount, total_amount, status,
	COALESCE(razorpay_order_id, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	o := &Order{}
	var status string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CartID, &o.Address.Line, &o.Address.City, &o.Address.State, &o.Address.Pincode,
		&o.PaymentMethod, &o.PromoCode, &o.Subtotal, &o.GST, &o.Shipping, &o.Discount, &o.Total, &status,
		&o.GatewayOrderID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return o, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM customer_order WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `id = $1`, orderID)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, `order_number = $1`, orderNumber)
}

func (r *PostgresRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	return r.getOne(ctx, `razorpay_order_id = $1`, gatewayOrderID)
}

func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM customer_order WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM customer_order WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(f.Status), f.Limit, f.Offset)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM customer_order ORDER BY created_at DESC LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, sku, quantity, unit_price
		FROM order_item
		WHERE order_id = $1
		ORDER BY name
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.SKU, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) TrackingEvents(ctx context.Context, orderID string) ([]TrackingEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, note, occurred_at
		FROM order_tracking_event
		WHERE order_id = $1
		ORDER BY occurred_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query tracking events: %w", err)
	}
	defer rows.Close()

	events := []TrackingEvent{}
	for rows.Next() {
		var ev TrackingEvent
		var status string
		if err := rows.Scan(&status, &ev.Note, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		ev.Status = Status(status)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *PostgresRepository) SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customer_order SET razorpay_order_id = $2, updated_at = now() WHERE id = $1
	`, orderID, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Transition(ctx context.Context, q db.Querier, orderID string, to Status, note string) (Status, error) {
	var current string
	err := q.QueryRow(ctx, `SELECT status FROM customer_order WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lock order: %w", err)
	}
	from := Status(current)
	if !from.CanTransitionTo(to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if _, err := q.Exec(ctx, `
		UPDATE customer_order SET status = $2, updated_at = now() WHERE id = $1
	`, orderID, string(to)); err != nil {
		return from, fmt.Errorf("update order status: %w", err)
	}
	if err := insertEvent(ctx, q, orderID, to, note); err != nil {
		return from, err
	}
	return from, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, to Status, note string) (Status, error) {
	var from Status
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		from, err = r.Transition(ctx, tx, orderID, to, note)
		return err
	})
	return from, err
}

func insertEvent(ctx context.Context, q db.Querier, orderID string, status Status, note string) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO order_tracking_event (order_id, status, note) VALUES ($1, $2, $3)
	`, orderID, string(status), note); err != nil {
		return fmt.Errorf("insert tracking event: %w", err)
	}
	return nil
}

func cartLines(ctx context.Context, q db.Querier, cartID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT ci.product_id, p.name, p.sku, ci.quantity, ci.unit_price
		FROM cart_item ci
		JOIN product p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.SKU, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
