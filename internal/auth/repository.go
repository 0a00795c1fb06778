package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound        = errors.New("customer not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNothingToUpdate = errors.New("no fields to update")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*Customer, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type PostgresRepository struct {
	pool db.Querier
}

func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const customerColumns = `id, full_name, email, phone, role, password_hash, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	var role string
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &role, &c.PasswordHash, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.Role = Role(role)
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Role == "" {
		c.Role = RoleCustomer
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customer_user (id, full_name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.ID, c.FullName, c.Email, c.Phone, string(c.Role), c.PasswordHash).Scan(&c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customer_user WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customer_user WHERE email = $1`, email))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*Customer, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.FullName != nil {
		add("full_name", *u.FullName)
	}
	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if len(sets) == 0 {
		return nil, ErrNothingToUpdate
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE customer_user SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), customerColumns)
	return scanCustomer(r.pool.QueryRow(ctx, query, args...))
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customer_user SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
