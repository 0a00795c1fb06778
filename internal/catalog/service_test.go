package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

type fakeRepo struct {
	products     map[string]Product
	listCalls    int
	listErr      error
	deactivated  []string
	updateResult *Product
	categories   map[string]Category
	deleteErr    error
	deleted      []string
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]Category, error) {
	return []Category{{ID: "c1", Name: "Drills", Slug: "drills"}}, nil
}

func (f *fakeRepo) ListProducts(ctx context.Context, slug string) ([]Product, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []Product{}
	for _, p := range f.products {
		if p.IsActive && (slug == "" || p.CategorySlug == slug) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetProduct(ctx context.Context, id string) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListAllProducts(ctx context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) GetCategory(ctx context.Context, id string) (Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) CreateCategory(ctx context.Context, c *Category) error { return nil }

func (f *fakeRepo) UpdateCategory(ctx context.Context, id string, u CategoryUpdate) (Category, error) {
	c := f.categories[id]
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Slug != nil {
		c.Slug = *u.Slug
	}
	f.categories[id] = c
	return c, nil
}

func (f *fakeRepo) DeleteCategory(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) CreateProduct(ctx context.Context, p *Product) error {
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepo) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (Product, error) {
	if f.updateResult != nil {
		return *f.updateResult, nil
	}
	return f.products[id], nil
}

func (f *fakeRepo) DeactivateProduct(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

type memCache struct {
	data    map[string]string
	deleted []string
	getErr  error
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.data[key], nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memCache) GenerateKey(operation, key string) string { return "test:" + operation + ":" + key }

func seededRepo() *fakeRepo {
	return &fakeRepo{
		products: map[string]Product{
			"p1": {ID: "p1", Name: "Drill", CategorySlug: "drills", Price: decimal.NewFromInt(4500), IsActive: true},
			"p2": {ID: "p2", Name: "Old Drill", CategorySlug: "drills", Price: decimal.NewFromInt(1200)},
		},
		categories: map[string]Category{"c1": {ID: "c1", Name: "Drills", Slug: "drills"}},
	}
}

func TestListProductsReadsThroughCache(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	c := newMemCache()
	svc := NewService(repo, c, time.Minute, zap.NewNop())

	first, err := svc.ListProducts(context.Background(), "drills")
	require.NoError(t, err)
	second, err := svc.ListProducts(context.Background(), "drills")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, second[0].Price.Equal(decimal.NewFromInt(4500)))
	assert.Contains(t, c.data, "test:products:drills")
}

func TestListProductsFallsThroughOnCacheError(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	c := newMemCache()
	c.getErr = errors.New("redis down")
	svc := NewService(repo, c, time.Minute, zap.NewNop())

	products, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestMutationsInvalidateListings(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	c := newMemCache()
	svc := NewService(repo, c, time.Minute, zap.NewNop())

	_, err := svc.ListProducts(context.Background(), "drills")
	require.NoError(t, err)

	moved := repo.products["p1"]
	moved.CategorySlug = "saws"
	repo.updateResult = &moved

	name := "Drill Saw"
	_, err = svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: &name})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"test:products:all", "test:products:drills", "test:products:saws"}, c.deleted)
	assert.NotContains(t, c.data, "test:products:drills")

	require.NoError(t, svc.DeactivateProduct(context.Background(), "p1"))
	assert.Equal(t, []string{"p1"}, repo.deactivated)

	err = svc.DeactivateProduct(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProductAssignsID(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	svc := NewService(repo, newMemCache(), time.Minute, zap.NewNop())

	p := &Product{Name: "Saw", SKU: "SAW-1", Price: decimal.NewFromInt(900), IsActive: true}
	require.NoError(t, svc.CreateProduct(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Contains(t, repo.products, p.ID)
}

func TestAdminListProductsSkipsCache(t *testing.T) {
	t.Parallel()

	c := newMemCache()
	svc := NewService(seededRepo(), c, time.Minute, zap.NewNop())

	products, err := svc.AdminListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Empty(t, c.data)
}

func TestUpdateCategoryInvalidatesOldAndNewSlug(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	c := newMemCache()
	svc := NewService(repo, c, time.Minute, zap.NewNop())

	slug := "  Power-Drills "
	got, err := svc.UpdateCategory(context.Background(), "c1", CategoryUpdate{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "power-drills", got.Slug)
	assert.Equal(t, "Drills", got.Name)
	assert.ElementsMatch(t, []string{"test:products:all", "test:products:drills", "test:products:power-drills"}, c.deleted)

	blank := " "
	_, err = svc.UpdateCategory(context.Background(), "c1", CategoryUpdate{Name: &blank})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)

	_, err = svc.UpdateCategory(context.Background(), "nope", CategoryUpdate{Slug: &slug})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDeleteCategory(t *testing.T) {
	t.Parallel()

	t.Run("invalidates listings", func(t *testing.T) {
		repo := seededRepo()
		c := newMemCache()
		svc := NewService(repo, c, time.Minute, zap.NewNop())

		require.NoError(t, svc.DeleteCategory(context.Background(), "c1"))
		assert.Equal(t, []string{"c1"}, repo.deleted)
		assert.ElementsMatch(t, []string{"test:products:all", "test:products:drills"}, c.deleted)
	})

	t.Run("in use keeps cache", func(t *testing.T) {
		repo := seededRepo()
		repo.deleteErr = ErrCategoryInUse
		c := newMemCache()
		svc := NewService(repo, c, time.Minute, zap.NewNop())

		err := svc.DeleteCategory(context.Background(), "c1")
		require.ErrorIs(t, err, ErrCategoryInUse)
		assert.Empty(t, c.deleted)
	})
}
