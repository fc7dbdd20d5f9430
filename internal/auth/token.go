package auth

import (
	"fmt"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/storage/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the typ claim. An access token can never be used
// where a refresh token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token types. Subject carries the
// username; ID carries the jti of refresh tokens.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"rol"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a TokenManager from the auth configuration. Only
// HS256 is supported.
func NewTokenManager(cfg *config.AuthConfig) (*TokenManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config cannot be nil")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("auth secret is required")
	}
	if cfg.Algorithm != "" && cfg.Algorithm != "HS256" {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  time.Duration(cfg.AccessExpireMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshExpireHours) * time.Hour,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.accessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

// IssueAccessToken mints a short-lived access token for the user.
func (tm *TokenManager) IssueAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken mints a long-lived refresh token and returns its jti so
// the caller can register it on the allow-list.
func (tm *TokenManager) IssueRefreshToken(user *models.User) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Type:   TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, jti, nil
}

// parse verifies signature and expiry and checks the typ claim.
func (tm *TokenManager) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "Token inválido o expirado")
	}
	if !token.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, "Token inválido o expirado")
	}
	if claims.Type != wantType {
		return nil, apperr.New(apperr.KindUnauthorized, "Tipo de token incorrecto")
	}
	return claims, nil
}

// ParseAccessToken verifies an access token and returns its claims.
func (tm *TokenManager) ParseAccessToken(tokenString string) (*Claims, error) {
	return tm.parse(tokenString, TokenTypeAccess)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func (tm *TokenManager) ParseRefreshToken(tokenString string) (*Claims, error) {
	return tm.parse(tokenString, TokenTypeRefresh)
}
