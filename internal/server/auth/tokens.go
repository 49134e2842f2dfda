// Package auth issues and verifies the signed session tokens.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiences tag each token with its kind; verification requires the
// matching one.
const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

// RefreshClaims are carried by refresh tokens. They identify the user only.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenConfig is the issuer configuration. It is copied on construction.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 tokens. Immutable, safe for
// concurrent use.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh token ttl must exceed access token ttl")
	}
	return &TokenIssuer{
		accessSecret:  append([]byte(nil), cfg.AccessSecret...),
		refreshSecret: append([]byte(nil), cfg.RefreshSecret...),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (i *TokenIssuer) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccessToken signs an access token for user.
func (i *TokenIssuer) IssueAccessToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: i.registered(user.ID, audienceAccess, i.accessTTL),
		UserID:           user.ID,
		UserName:         user.UserName,
		Email:            user.Email,
	})
	return token.SignedString(i.accessSecret)
}

// IssueRefreshToken signs a refresh token for userID.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: i.registered(userID, audienceRefresh, i.refreshTTL),
		UserID:           userID,
	})
	return token.SignedString(i.refreshSecret)
}

// IssuePair signs both tokens for user.
func (i *TokenIssuer) IssuePair(user *models.User) (models.TokenPair, error) {
	access, err := i.IssueAccessToken(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.IssueRefreshToken(user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyRefreshToken checks signature, algorithm, audience and expiry and
// returns the user id. Every failure wraps common.ErrInvalidToken.
func (i *TokenIssuer) VerifyRefreshToken(token string) (string, error) {
	claims := &RefreshClaims{}
	if err := i.parse(token, claims, i.refreshSecret, audienceRefresh); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing user id", common.ErrInvalidToken)
	}
	return claims.UserID, nil
}

// VerifyAccessToken checks an access token and returns the identity it
// carries. Every failure wraps common.ErrInvalidToken.
func (i *TokenIssuer) VerifyAccessToken(token string) (Identity, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessSecret, audienceAccess); err != nil {
		return Identity{}, err
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: missing user id", common.ErrInvalidToken)
	}
	return Identity{UserID: claims.UserID, UserName: claims.UserName}, nil
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte, audience string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
