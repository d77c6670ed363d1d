// Package jwt signs and verifies the bearer tokens issued by the dev
// backend.
//
// Tokens are HS256 with the registered claims plus an optional "extra"
// map. Revocation goes through a pluggable Store so logout survives until
// the token would have expired anyway.
//
// Usage:
//
//	j, err := jwt.New(opts, jwt.NewMemoryStore())
//	token, err := j.Sign(ctx, user.ID, map[string]interface{}{"role": "admin"})
//	claims, err := j.Verify(ctx, token.AccessToken)
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	jwtopts "github.com/kart-io/campus-portal/pkg/options/jwt"
	apierrors "github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
)

// Token is a freshly signed access token.
type Token struct {
	AccessToken string    `json:"token"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Claims are the verified contents of a token.
type Claims struct {
	Subject   string
	Issuer    string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]interface{}
}

// JWT signs and verifies tokens.
type JWT struct {
	opts  *jwtopts.Options
	store Store
	now   func() time.Time
}

// New creates a JWT from completed options. A nil store disables
// revocation.
func New(opts *jwtopts.Options, store Store) (*JWT, error) {
	if opts == nil {
		opts = jwtopts.NewOptions()
	}
	if err := opts.Complete(); err != nil {
		return nil, fmt.Errorf("complete jwt options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate jwt options: %w", err)
	}
	if store == nil {
		store = NoopStore{}
	}
	return &JWT{opts: opts, store: store, now: time.Now}, nil
}

// Sign creates a token for subject.
func (j *JWT) Sign(_ context.Context, subject string, extra map[string]interface{}) (*Token, error) {
	now := j.now()
	expiresAt := now.Add(j.opts.Expired)

	claims := &customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        id.NewULID(),
		},
		Extra: extra,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.opts.Key))
	if err != nil {
		return nil, apierrors.ErrInternal.WithCause(err).WithMessage("failed to sign token")
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Verify validates tokenString and returns its claims.
func (j *JWT) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := j.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apierrors.ErrInternal.WithCause(err).WithMessage("failed to check token revocation")
	}
	if revoked {
		return nil, apierrors.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke invalidates tokenString until it expires. Expired tokens are
// already unusable and are ignored.
func (j *JWT) Revoke(ctx context.Context, tokenString string) error {
	claims, err := j.parse(tokenString)
	if err != nil {
		if apierrors.IsCode(err, apierrors.ErrTokenExpired.Code) {
			return nil
		}
		return err
	}
	ttl := claims.ExpiresAt.Sub(j.now())
	if ttl <= 0 {
		return nil
	}
	return j.store.Revoke(ctx, claims.ID, ttl)
}

func (j *JWT) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apierrors.ErrInvalidToken.WithMessage("token is empty")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &customClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(j.opts.Key), nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	c, ok := token.Claims.(*customClaims)
	if !ok || !token.Valid {
		return nil, apierrors.ErrInvalidToken
	}
	return &Claims{
		Subject:   c.Subject,
		Issuer:    c.Issuer,
		ID:        c.ID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
		Extra:     c.Extra,
	}, nil
}

func mapParseError(err error) *apierrors.Errno {
	var ve *jwt.ValidationError
	if !errors.As(err, &ve) {
		return apierrors.ErrInvalidToken.WithCause(err)
	}
	switch {
	case ve.Errors&jwt.ValidationErrorExpired != 0:
		return apierrors.ErrTokenExpired
	case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
		return apierrors.ErrInvalidToken.WithMessage("invalid signature")
	case ve.Errors&jwt.ValidationErrorMalformed != 0:
		return apierrors.ErrInvalidToken.WithMessage("malformed token")
	case ve.Errors&jwt.ValidationErrorNotValidYet != 0:
		return apierrors.ErrInvalidToken.WithMessage("token not valid yet")
	default:
		return apierrors.ErrInvalidToken.WithCause(err)
	}
}

type customClaims struct {
	jwt.RegisteredClaims
	Extra map[string]interface{} `json:"extra,omitempty"`
}
