package service

import (
	"context"
	"errors"
	"strings"

	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/jwtutil"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is a new merchant's sign-up form. CompanyName is optional.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	CompanyName string
}

// AuthService registers merchants and issues their bearer tokens
type AuthService struct {
	merchants *store.MerchantStore
	tokens    *jwtutil.JWTUtil
	hashCost  int
}

func NewAuthService(merchants *store.MerchantStore, tokens *jwtutil.JWTUtil) *AuthService {
	return &AuthService{
		merchants: merchants,
		tokens:    tokens,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates the merchant and returns a token for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.Merchant, string, error) {
	log := logger.FromContext(ctx)

	if blank(in.FirstName) || blank(in.LastName) || blank(in.Email) || in.Password == "" {
		prometheus.RecordAuthAttempt("register", "invalid")
		return nil, "", apperror.Validation("All fields are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, "", apperror.Validation("Password must be at most 72 bytes")
		}
		return nil, "", internal("hash password", err)
	}

	merchant := &model.Merchant{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		Password:    string(hash),
		CompanyName: strings.TrimSpace(in.CompanyName),
	}
	if err := s.merchants.Create(ctx, merchant); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			prometheus.RecordAuthAttempt("register", "duplicate")
			return nil, "", apperror.Conflict("Email already exists")
		}
		return nil, "", internal("create merchant", err)
	}

	token, err := s.tokens.GenerateToken(merchant.ID, merchant.Email)
	if err != nil {
		return nil, "", internal("generate token", err)
	}

	prometheus.RecordAuthAttempt("register", "success")
	log.Info("Merchant registered", zap.Uint("merchant_id", merchant.ID))
	return merchant, token, nil
}

// Login checks the credentials and returns the merchant with a fresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Merchant, string, error) {
	if blank(email) || password == "" {
		prometheus.RecordAuthAttempt("login", "invalid")
		return nil, "", apperror.Validation("Email and password are required")
	}

	merchant, err := s.merchants.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAuthAttempt("login", "unknown_user")
			return nil, "", apperror.Validation("User not found")
		}
		return nil, "", internal("find merchant", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(merchant.Password), []byte(password)); err != nil {
		prometheus.RecordAuthAttempt("login", "bad_password")
		return nil, "", apperror.Validation("Invalid password")
	}

	token, err := s.tokens.GenerateToken(merchant.ID, merchant.Email)
	if err != nil {
		return nil, "", internal("generate token", err)
	}

	prometheus.RecordAuthAttempt("login", "success")
	return merchant, token, nil
}

// Profile loads the authenticated merchant
func (s *AuthService) Profile(ctx context.Context, merchantID uint) (*model.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, internal("find merchant", err)
	}
	return merchant, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
