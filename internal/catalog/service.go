package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

const productsCacheOp = "products"

// Service fronts the repository with a read-through cache for product listings.
// Cache failures are logged and fall through to the database.
type Service struct {
	repo   Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetProduct(ctx context.Context, productID string) (Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

func (s *Service) ListProducts(ctx context.Context, categorySlug string) ([]Product, error) {
	key := s.listKey(categorySlug)

	if raw, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
	} else if raw != "" {
		var cached []Product
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("catalog cache entry corrupt", zap.String("key", key))
	}

	products, err := s.repo.ListProducts(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
			s.logger.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return products, nil
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return s.repo.CreateCategory(ctx, c)
}

// AdminListProducts bypasses the cache, which only holds active listings.
func (s *Service) AdminListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListAllProducts(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, categoryID string, u CategoryUpdate) (Category, error) {
	var v validate.Validator
	if u.Name != nil {
		name := v.Required("name", *u.Name)
		u.Name = &name
	}
	if u.Slug != nil {
		slug := strings.ToLower(v.Required("slug", *u.Slug))
		u.Slug = &slug
	}
	if err := v.Err(); err != nil {
		return Category{}, err
	}

	before, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return Category{}, err
	}
	after, err := s.repo.UpdateCategory(ctx, categoryID, u)
	if err != nil {
		return Category{}, err
	}
	// every listing embeds the slug, so a rename touches the full list too
	s.invalidate(ctx, before.Slug, after.Slug)
	return after, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	c, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	s.invalidate(ctx, c.Slug)
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	created, err := s.repo.GetProduct(ctx, p.ID)
	if err == nil {
		*p = created
	}
	s.invalidate(ctx, p.CategorySlug)
	return nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, u ProductUpdate) (Product, error) {
	before, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	after, err := s.repo.UpdateProduct(ctx, productID, u)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, before.CategorySlug, after.CategorySlug)
	return after, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, productID string) error {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivateProduct(ctx, productID); err != nil {
		return err
	}
	s.invalidate(ctx, p.CategorySlug)
	return nil
}

func (s *Service) listKey(categorySlug string) string {
	if categorySlug == "" {
		categorySlug = "all"
	}
	return s.cache.GenerateKey(productsCacheOp, categorySlug)
}

func (s *Service) invalidate(ctx context.Context, slugs ...string) {
	keys := []string{s.listKey("")}
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, s.listKey(slug))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
