// Package auth registers customers, checks passwords and issues the bearer
// tokens the HTTP layer authenticates with.
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type Service struct {
	repo   Repository
	tokens *TokenIssuer
	logger *zap.Logger
	cost   int
}

func NewService(repo Repository, tokens *TokenIssuer, logger *zap.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var v validate.Validator
	name := v.Name("fullName", req.FullName)
	email := v.Email("email", req.Email)
	phone := ""
	if req.Phone != "" {
		phone = v.Phone("phone", req.Phone)
	}
	v.Password("password", req.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	c := &Customer{
		FullName:     validate.MaxLen(name, 100),
		Email:        email,
		Phone:        phone,
		Role:         RoleCustomer,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logger.Warn("registration with existing email", zap.String("email", email))
		}
		return nil, err
	}

	s.logger.Info("customer registered", zap.String("customerId", c.ID))
	return s.session(c)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var v validate.Validator
	email := v.Email("email", req.Email)
	v.Check(req.Password != "", "password", "Password is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("login with unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login with invalid password", zap.String("customerId", c.ID))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("customer logged in", zap.String("customerId", c.ID))
	return s.session(c)
}

func (s *Service) session(c *Customer) (*Session, error) {
	token, err := s.tokens.Issue(c)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Customer: c}, nil
}

func (s *Service) Me(ctx context.Context, customerID string) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

func (s *Service) UpdateProfile(ctx context.Context, customerID string, u ProfileUpdate) (*Customer, error) {
	var v validate.Validator
	if u.FullName != nil {
		name := validate.MaxLen(v.Name("fullName", *u.FullName), 100)
		u.FullName = &name
	}
	if u.Phone != nil {
		phone := v.Phone("phone", *u.Phone)
		u.Phone = &phone
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if u.FullName == nil && u.Phone == nil {
		return nil, validate.Field("profile", "No fields to update")
	}
	return s.repo.UpdateProfile(ctx, customerID, u)
}

func (s *Service) ChangePassword(ctx context.Context, customerID string, req ChangePasswordRequest) error {
	var v validate.Validator
	v.Check(req.CurrentPassword != "", "currentPassword", "Current password is required")
	v.Password("newPassword", req.NewPassword)
	if err := v.Err(); err != nil {
		return err
	}

	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, customerID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("customerId", customerID))
	return nil
}

// Authenticate resolves a bearer token into claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
