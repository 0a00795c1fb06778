package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrCategoryInUse = errors.New("category still has products")
)

type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context, categorySlug string) ([]Product, error)
	ListAllProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetCategory(ctx context.Context, categoryID string) (Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, categoryID string, u CategoryUpdate) (Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, productID string, u ProductUpdate) (Product, error)
	DeactivateProduct(ctx context.Context, productID string) error
}

type PostgresRepository struct {
	pool db.Querier
}

func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `p.id, COALESCE(p.category_id, ''), COALESCE(c.slug, ''), p.name, p.description, p.sku, p.price, p.image_url, p.is_active, p.created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.CategorySlug, &p.Name, &p.Description, &p.SKU, &p.Price, &p.ImageURL, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM category ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProducts returns active products, optionally restricted to a category slug.
func (r *PostgresRepository) ListProducts(ctx context.Context, categorySlug string) ([]Product, error) {
	where := `WHERE p.is_active`
	args := []any{}
	if categorySlug != "" {
		where += ` AND c.slug = $1`
		args = append(args, categorySlug)
	}
	return r.queryProducts(ctx, where, args...)
}

// ListAllProducts includes deactivated products for the admin catalog.
func (r *PostgresRepository) ListAllProducts(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, "")
}

func (r *PostgresRepository) queryProducts(ctx context.Context, where string, args ...any) ([]Product, error) {
	query := `SELECT ` + productColumns + `
		FROM product p
		LEFT JOIN category c ON c.id = p.category_id
		` + where + ` ORDER BY p.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetProduct(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+`
		FROM product p
		LEFT JOIN category c ON c.id = p.category_id
		WHERE p.id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO category (id, name, slug) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Slug)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCategory(ctx context.Context, categoryID string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug FROM category WHERE id = $1`, categoryID).Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, categoryID string, u CategoryUpdate) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		UPDATE category
		SET name = COALESCE($2, name), slug = COALESCE($3, slug)
		WHERE id = $1
		RETURNING id, name, slug
	`, categoryID, u.Name, u.Slug).Scan(&c.ID, &c.Name, &c.Slug)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Category{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Category{}, ErrDuplicate
	case err != nil:
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory refuses while any product, active or not, still points at
// the category.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, categoryID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM category WHERE id = $1`, categoryID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO product (id, category_id, name, description, sku, price, image_url, is_active)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.ImageURL, p.IsActive).Scan(&p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, productID string, u ProductUpdate) (Product, error) {
	sets := []string{}
	args := []any{productID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.CategoryID != nil {
		add("category_id", *u.CategoryID)
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}

	if len(sets) > 0 {
		tag, err := r.pool.Exec(ctx, `UPDATE product SET `+strings.Join(sets, ", ")+`, updated_at = now() WHERE id = $1`, args...)
		if err != nil {
			return Product{}, fmt.Errorf("update product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Product{}, ErrNotFound
		}
	}
	return r.GetProduct(ctx, productID)
}

func (r *PostgresRepository) DeactivateProduct(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE product SET is_active = FALSE, updated_at = now() WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
