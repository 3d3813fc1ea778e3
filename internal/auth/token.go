// Package auth holds the password hasher and the bearer token codec used by
// registration, login and the request verification gate.
package auth

import (
	"context"
	"errors"
	"time"

	"scms/internal/apperr"
	"scms/internal/secrets"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// Internal causes of a rejected token. Both render as the same 401.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// SecretFunc returns the signing secret. It is invoked on every Issue and
// Verify call.
type SecretFunc func(ctx context.Context) ([]byte, error)

// Claims is the token payload: the student ID plus issued-at and expiry.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 bearer tokens.
type TokenCodec struct {
	secret   SecretFunc
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenCodec returns a codec that signs with the secret returned by secret.
func NewTokenCodec(secret SecretFunc) *TokenCodec {
	return &TokenCodec{secret: secret, lifetime: TokenLifetime, now: time.Now}
}

// Issue signs a token for studentID.
func (c *TokenCodec) Issue(ctx context.Context, studentID string) (string, error) {
	key, err := c.signingKey(ctx)
	if err != nil {
		return "", err
	}

	now := c.now()
	claims := Claims{
		ID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Failed to issue token", "token_sign_failed", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// student ID it carries.
func (c *TokenCodec) Verify(ctx context.Context, tokenString string) (string, error) {
	key, err := c.signingKey(ctx)
	if err != nil {
		return "", err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", rejected("token_expired", errors.Join(ErrTokenExpired, err))
		}
		return "", rejected("token_invalid", errors.Join(ErrTokenInvalid, err))
	}
	if !token.Valid || claims.ID == "" {
		return "", rejected("token_invalid", ErrTokenInvalid)
	}

	return claims.ID, nil
}

func (c *TokenCodec) signingKey(ctx context.Context) ([]byte, error) {
	key, err := c.secret(ctx)
	if err != nil {
		if errors.Is(err, secrets.ErrNotConfigured) {
			return nil, apperr.Wrap(apperr.Configuration, secrets.ErrNotConfigured.Error(), "secret_unset", err)
		}
		return nil, apperr.Wrap(apperr.Configuration, "Token signing secret is unavailable", "secret_lookup_failed", err)
	}
	return key, nil
}

func rejected(reason string, err error) error {
	return apperr.Wrap(apperr.InvalidToken, "Not authorized, token failed", reason, err)
}
