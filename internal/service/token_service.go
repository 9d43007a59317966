package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"order-service/internal/model"
)

const accessTokenType = "access"

type accessTokenClaims struct {
	PhoneNumber string `json:"phone_number"`
	Type        string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

func (s *TokenService) Issue(user model.User) (string, model.AccessClaims, error) {
	now := s.now().UTC()
	claims := accessTokenClaims{
		PhoneNumber: user.PhoneNumber,
		Type:        accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", model.AccessClaims{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, model.AccessClaims{
		Subject:     user.ID,
		PhoneNumber: user.PhoneNumber,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Verify returns model.ErrTokenExpired for expired tokens and
// model.ErrTokenInvalid for every other rejection.
func (s *TokenService) Verify(ctx context.Context, token string) (model.AccessClaims, error) {
	if err := ctx.Err(); err != nil {
		return model.AccessClaims{}, err
	}

	var claims accessTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.AccessClaims{}, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return model.AccessClaims{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}

	if claims.Type != accessTokenType {
		return model.AccessClaims{}, fmt.Errorf("%w: unexpected token type %q", model.ErrTokenInvalid, claims.Type)
	}
	if claims.Subject == "" || claims.PhoneNumber == "" {
		return model.AccessClaims{}, fmt.Errorf("%w: subject and phone_number are required", model.ErrTokenInvalid)
	}

	return model.AccessClaims{
		Subject:     claims.Subject,
		PhoneNumber: claims.PhoneNumber,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
