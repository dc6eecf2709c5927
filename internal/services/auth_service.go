package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenConfig is built once at startup and handed to the auth service;
// there is no package-level secret.
type TokenConfig struct {
	Secret     []byte
	DefaultTTL time.Duration // token lifetime when no override is given
}

// TokenClaims are the signed assertions carried by an access token.
// All three of sub/tenant_id/role must be present for a token to be usable.
type TokenClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies tenant-scoped access tokens and checks
// credentials against stored bcrypt hashes.
type AuthService interface {
	IssueToken(ctx context.Context, userID, tenantID uuid.UUID, role string, ttl time.Duration) (string, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool
}

type authService struct {
	config TokenConfig
}

func NewAuthService(config TokenConfig) AuthService {
	return &authService{config: config}
}

// IssueToken signs an HS256 token for the user. A zero ttl uses the
// configured default (8h unless overridden at startup).
func (s *authService) IssueToken(_ context.Context, userID, tenantID uuid.UUID, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}

	now := time.Now().UTC()
	claims := TokenClaims{
		TenantID: tenantID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry, then checks that every claim
// the guard needs is actually present.
func (s *authService) ValidateToken(_ context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" || claims.TenantID == "" || claims.Role == "" {
		return nil, fmt.Errorf("token missing required claims")
	}

	return claims, nil
}

func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
