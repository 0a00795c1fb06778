package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound      = errors.New("cart not found")
	ErrItemNotFound  = errors.New("cart item not found")
	ErrCartClosed    = errors.New("cart is no longer open")
	ErrQuantityLimit = errors.New("quantity limit exceeded")
	ErrOwnedByOther  = errors.New("cart belongs to another customer")
)

type Repository interface {
	Create(ctx context.Context, c *Cart) error
	Get(ctx context.Context, cartID string) (*Cart, error)
	GetOpenForCustomer(ctx context.Context, customerID string) (*Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int, unitPrice decimal.Decimal) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	AssignCustomer(ctx context.Context, cartID, customerID string) error
}

type PostgresRepository struct {
	pool        db.Pool
	maxQuantity int
}

func NewPostgresRepository(pool db.Pool, maxQuantity int) *PostgresRepository {
	return &PostgresRepository{pool: pool, maxQuantity: maxQuantity}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cart (id, customer_id, status)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING created_at, updated_at
	`, c.ID, c.CustomerID, string(c.Status)).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, cartID string) (*Cart, error) {
	c := &Cart{}
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(customer_id, ''), status, created_at, updated_at
		FROM cart
		WHERE id = $1
	`, cartID).Scan(&c.ID, &c.CustomerID, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}
	c.Status = Status(status)

	items, err := loadItems(ctx, r.pool, cartID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

func (r *PostgresRepository) GetOpenForCustomer(ctx context.Context, customerID string) (*Cart, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM cart WHERE customer_id = $1 AND status = 'open'
	`, customerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select open cart: %w", err)
	}
	return r.Get(ctx, cartID)
}

// AddItem inserts a line at unitPrice, or increments the quantity of an
// existing line for the same product while keeping its original price.
func (r *PostgresRepository) AddItem(ctx context.Context, cartID, productID string, quantity int, unitPrice decimal.Decimal) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOpen(ctx, tx, cartID); err != nil {
			return err
		}

		var total int
		err := tx.QueryRow(ctx, `
			INSERT INTO cart_item (id, cart_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_item.quantity + EXCLUDED.quantity
			WHERE cart_item.quantity + EXCLUDED.quantity <= $6
			RETURNING quantity
		`, uuid.NewString(), cartID, productID, quantity, unitPrice, r.maxQuantity).Scan(&total)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrQuantityLimit
			}
			return fmt.Errorf("upsert cart item: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOpen(ctx, tx, cartID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE cart_item SET quantity = $3 WHERE id = $2 AND cart_id = $1`, cartID, itemID, quantity)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOpen(ctx, tx, cartID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM cart_item WHERE id = $2 AND cart_id = $1`, cartID, itemID)
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// AssignCustomer attaches a guest cart to a customer. Any other open cart the
// customer had is abandoned so the customer keeps a single open cart.
func (r *PostgresRepository) AssignCustomer(ctx context.Context, cartID, customerID string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var owner string
		var status string
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(customer_id, ''), status FROM cart WHERE id = $1 FOR UPDATE
		`, cartID).Scan(&owner, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock cart: %w", err)
		}
		if Status(status) != StatusOpen {
			return ErrCartClosed
		}
		if owner == customerID {
			return nil
		}
		if owner != "" {
			return ErrOwnedByOther
		}

		if _, err := tx.Exec(ctx, `
			UPDATE cart SET status = 'abandoned', updated_at = now()
			WHERE customer_id = $1 AND status = 'open' AND id <> $2
		`, customerID, cartID); err != nil {
			return fmt.Errorf("abandon previous cart: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE cart SET customer_id = $2, updated_at = now() WHERE id = $1
		`, cartID, customerID); err != nil {
			return fmt.Errorf("assign cart: %w", err)
		}
		return nil
	})
}

// lockOpen takes a row lock on the cart so item changes serialize with checkout.
func lockOpen(ctx context.Context, tx pgx.Tx, cartID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM cart WHERE id = $1 FOR UPDATE`, cartID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock cart: %w", err)
	}
	if Status(status) != StatusOpen {
		return ErrCartClosed
	}
	_, err = tx.Exec(ctx, `UPDATE cart SET updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func loadItems(ctx context.Context, q db.Querier, cartID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT ci.id, ci.product_id, p.name, p.sku, ci.quantity, ci.unit_price
		FROM cart_item ci
		JOIN product p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.SKU, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
