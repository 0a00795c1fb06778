package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

var ErrProductUnavailable = errors.New("product unavailable")

const seedProductCount = 3

// Catalog is the part of the catalog the cart depends on.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (catalog.Product, error)
	ListProducts(ctx context.Context, categorySlug string) ([]catalog.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
	logger  *zap.Logger
}

func NewService(repo Repository, cat Catalog, logger *zap.Logger) *Service {
	return &Service{repo: repo, catalog: cat, logger: logger}
}

// CreateGuest opens an anonymous cart. With seed set, the first few active
// products are added with quantity one.
func (s *Service) CreateGuest(ctx context.Context, seed bool) (*Cart, error) {
	c := &Cart{Status: StatusOpen}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	if !seed {
		return c, nil
	}

	products, err := s.catalog.ListProducts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list products for seed: %w", err)
	}
	if len(products) > seedProductCount {
		products = products[:seedProductCount]
	}
	for _, p := range products {
		if err := s.repo.AddItem(ctx, c.ID, p.ID, 1, p.Price); err != nil {
			return nil, fmt.Errorf("seed cart: %w", err)
		}
	}
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	return s.repo.Get(ctx, cartID)
}

// ForCustomer returns the customer's open cart, opening one if needed.
func (s *Service) ForCustomer(ctx context.Context, customerID string) (*Cart, error) {
	c, err := s.repo.GetOpenForCustomer(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c = &Cart{CustomerID: customerID, Status: StatusOpen}
	if err := s.repo.Create(ctx, c); err != nil {
		// lost a race with a concurrent request for the same customer
		if existing, getErr := s.repo.GetOpenForCustomer(ctx, customerID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) Claim(ctx context.Context, cartID, customerID string) (*Cart, error) {
	if err := s.repo.AssignCustomer(ctx, cartID, customerID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cartID)
}

// AddItem captures the current catalog price for the product.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (*Cart, error) {
	var v validate.Validator
	v.Required("productId", productID)
	v.Quantity("quantity", quantity)
	if err := v.Err(); err != nil {
		return nil, err
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductUnavailable
	}

	if err := s.repo.AddItem(ctx, cartID, p.ID, quantity, p.Price); err != nil {
		return nil, err
	}
	s.logger.Debug("cart item added", zap.String("cartId", cartID), zap.String("productId", productID), zap.Int("quantity", quantity))
	return s.repo.Get(ctx, cartID)
}

func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	var v validate.Validator
	v.Quantity("quantity", quantity)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cartID)
}

func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	if err := s.repo.RemoveItem(ctx, cartID, itemID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cartID)
}

// Quote prices the cart for display using the same calculator as checkout.
func (s *Service) Quote(ctx context.Context, cartID, promoCode string) (Quote, error) {
	c, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return Quote{}, err
	}
	return Price(c, promoCode)
}

// Price builds a quote for an already loaded cart.
func Price(c *Cart, promoCode string) (Quote, error) {
	promo, err := pricing.LookupPromo(promoCode)
	if err != nil {
		return Quote{}, validate.Field("promoCode", err.Error())
	}
	return Quote{
		Cart:   c,
		Promo:  promo,
		Totals: pricing.Calculate(c.Lines(), promo),
	}, nil
}
