// Package auth owns account registration, credential verification and
// session-token issuance. The lifecycle engine consumes its output only as
// an already-resolved principal.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quickcab/ride-hailing/internal/domain/account"
	apperrors "github.com/quickcab/ride-hailing/pkg/errors"
	"github.com/quickcab/ride-hailing/pkg/logger"
)

// Config holds token signing configuration
type Config struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// TokenStore persists issued refresh tokens so they can be rotated and
// revoked. One live refresh token per account.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, accountID uuid.UUID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error)
	DeleteRefreshToken(ctx context.Context, accountID uuid.UUID) error
}

// Claims are the access-token JWT claims
type Claims struct {
	AccountID uuid.UUID    `json:"account_id"`
	Email     string       `json:"email"`
	Role      account.Role `json:"role"`
	jwt.RegisteredClaims
}

// refreshClaims carry only the account identity
type refreshClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	jwt.RegisteredClaims
}

// TokenPair is an access token plus its refresh token
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service handles account and credential management
type Service struct {
	accounts account.Repository
	tokens   TokenStore
	cfg      Config
	logger   *logger.Logger
}

// NewService creates an auth service
func NewService(accounts account.Repository, tokens TokenStore, cfg Config, log *logger.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		cfg:      cfg,
		logger:   log,
	}
}

// RegisterInput carries the registration payload
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Phone          string
	Role           account.Role
	VehicleDetails *account.VehicleDetails
}

// Register creates a new account with a bcrypt-hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*account.Account, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperrors.InvalidArgument("Name, email and password are required", nil)
	}

	role := in.Role
	if role == "" {
		role = account.RoleRider
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	acct := &account.Account{
		ID:             uuid.New(),
		Name:           in.Name,
		Email:          strings.ToLower(in.Email),
		PasswordHash:   string(hash),
		Phone:          in.Phone,
		Role:           role,
		VehicleDetails: in.VehicleDetails,
		IsAvailable:    role == account.RoleDriver,
	}

	if err := acct.IsValid(); err != nil {
		return nil, apperrors.InvalidArgument("Invalid account details", err)
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, account.ErrEmailExists) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Internal("failed to create account", err)
	}

	s.logger.Info("account registered",
		logger.String("account_id", acct.ID.String()),
		logger.String("role", string(acct.Role)),
	)

	return acct, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(ctx context.Context, email, password string) (*account.Account, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, apperrors.InvalidArgument("Email and password are required", nil)
	}

	acct, err := s.accounts.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, apperrors.Internal("failed to load account", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, acct)
	if err != nil {
		return nil, nil, err
	}

	return acct, pair, nil
}

// Refresh validates a refresh token against the stored copy and rotates
// the pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("Refresh token required", nil)
	}

	claims := &refreshClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	stored, err := s.tokens.GetRefreshToken(ctx, claims.AccountID)
	if err != nil || stored != refreshToken {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	acct, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, acct)
}

// Logout revokes the account's refresh token
func (s *Service) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := s.tokens.DeleteRefreshToken(ctx, accountID); err != nil {
		return apperrors.Internal("failed to revoke refresh token", err)
	}
	return nil
}

// ParseAccessToken validates an access token and returns its claims
func (s *Service) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token", err)
	}
	return claims, nil
}

func (s *Service) issueTokens(ctx context.Context, acct *account.Account) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessExpiry)),
		},
	})
	accessToken, err := access.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return nil, apperrors.Internal("failed to sign access token", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		AccountID: acct.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshExpiry)),
		},
	})
	refreshToken, err := refresh.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return nil, apperrors.Internal("failed to sign refresh token", err)
	}

	if err := s.tokens.SaveRefreshToken(ctx, acct.ID, refreshToken, s.cfg.RefreshExpiry); err != nil {
		return nil, apperrors.Internal("failed to store refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
