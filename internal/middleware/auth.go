package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"order-service/internal/model"
	"order-service/pkg/apierror"
)

const (
	AccessTokenCookie = "access_token"
	bearerPrefix      = "Bearer "
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSubjectNotFound   = errors.New("subject not found")
)

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (model.AccessClaims, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type identityContextKey struct{}

type AuthMiddleware struct {
	verifier tokenVerifier
	users    userFinder
}

func NewAuthMiddleware(verifier tokenVerifier, users userFinder) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

// Authenticate resolves the caller and attaches a model.Identity to the
// request context. Every rejection is the same 401 to the caller; the
// distinct cause is only logged.
func (m *AuthMiddleware) Authenticate(r *http.Request) (*http.Request, error) {
	ctx := r.Context()

	token, ok := ExtractCredential(r)
	if !ok {
		return nil, m.reject(r, ErrMissingCredential)
	}

	claims, err := m.verifier.Verify(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, m.reject(r, fmt.Errorf("%w: %w", ErrInvalidCredential, err))
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, m.reject(r, fmt.Errorf("%w: %s", ErrSubjectNotFound, claims.Subject))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	identity := model.Identity{
		ID:          user.ID,
		PhoneNumber: claims.PhoneNumber,
		Role:        user.Role,
	}
	return r.WithContext(WithIdentity(ctx, identity)), nil
}

func (m *AuthMiddleware) reject(r *http.Request, cause error) error {
	slog.WarnContext(r.Context(), "authentication rejected",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"reason", cause.Error(),
	)
	return apierror.Unauthenticated(cause)
}

// ExtractCredential reads the access token from the access_token cookie, or
// failing that from an "Authorization: Bearer <token>" header. The prefix
// match is case-sensitive and a token with inner whitespace counts as absent.
func ExtractCredential(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, true
		}
	}

	token, found := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireRoles is the role gate. It must run after Authenticate.
func RequireRoles(allowed model.RoleSet) Stage {
	return func(r *http.Request) (*http.Request, error) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			return nil, apierror.Unauthenticated(model.ErrUnauthorized)
		}

		if !allowed.Permits(identity.Role) {
			slog.InfoContext(r.Context(), "access denied",
				"request_id", RequestIDFromContext(r.Context()),
				"user_id", identity.ID,
				"role", identity.Role,
				"allowed", allowed.String(),
			)
			return nil, apierror.Forbidden("user not authorized for this action").WithCause(model.ErrForbidden)
		}

		return r, nil
	}
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(model.Identity)
	return identity, ok
}
