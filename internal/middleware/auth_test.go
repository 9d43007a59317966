package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-service/internal/model"
	"order-service/pkg/apierror"
)

type fakeVerifier struct {
	claims map[string]model.AccessClaims
	seen   []string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (model.AccessClaims, error) {
	f.seen = append(f.seen, token)
	claims, ok := f.claims[token]
	if !ok {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}
	return claims, nil
}

type fakeUsers struct {
	users map[string]model.User
	err   error
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func newTestAuth() (*AuthMiddleware, *fakeVerifier, *fakeUsers) {
	verifier := &fakeVerifier{claims: map[string]model.AccessClaims{
		"user-token":   {Subject: "u-1", PhoneNumber: "+15550001"},
		"admin-token":  {Subject: "a-1", PhoneNumber: "+15550002"},
		"orphan-token": {Subject: "gone", PhoneNumber: "+15550003"},
	}}
	users := &fakeUsers{users: map[string]model.User{
		"u-1": {ID: "u-1", PhoneNumber: "+15559999", Role: model.RoleUser},
		"a-1": {ID: "a-1", PhoneNumber: "+15550002", Role: model.RoleAdmin},
	}}
	return NewAuthMiddleware(verifier, users), verifier, users
}

func requireAPIError(t *testing.T, err error, status int, category string) *apierror.APIError {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.HTTPStatus)
	require.Equal(t, category, apiErr.Category)
	return apiErr
}

func TestExtractCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
		ok     bool
	}{
		{name: "cookie only", cookie: "c-token", want: "c-token", ok: true},
		{name: "header only", header: "Bearer h-token", want: "h-token", ok: true},
		{name: "cookie wins over header", cookie: "c-token", header: "Bearer h-token", want: "c-token", ok: true},
		{name: "empty cookie falls back to header", cookie: "", header: "Bearer h-token", want: "h-token", ok: true},
		{name: "prefix is case sensitive", header: "bearer h-token"},
		{name: "other scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
		{name: "token with inner space", header: "Bearer a b"},
		{name: "token with inner tab", header: "Bearer a\tb"},
		{name: "surrounding space is trimmed", header: "Bearer  h-token ", want: "h-token", ok: true},
		{name: "nothing"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			got, ok := ExtractCredential(req)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("missing credential is unauthenticated", func(t *testing.T) {
		auth, verifier, _ := newTestAuth()

		_, err := auth.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))

		requireAPIError(t, err, http.StatusUnauthorized, apierror.CategoryAuthentication)
		require.ErrorIs(t, err, ErrMissingCredential)
		require.Empty(t, verifier.seen)
	})

	t.Run("cookie credential is the one verified", func(t *testing.T) {
		auth, verifier, _ := newTestAuth()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "admin-token"})
		req.Header.Set("Authorization", "Bearer user-token")

		out, err := auth.Authenticate(req)
		require.NoError(t, err)
		require.Equal(t, []string{"admin-token"}, verifier.seen)

		identity, ok := IdentityFromContext(out.Context())
		require.True(t, ok)
		require.Equal(t, model.RoleAdmin, identity.Role)
	})

	t.Run("invalid token is unauthenticated", func(t *testing.T) {
		auth, _, _ := newTestAuth()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")

		_, err := auth.Authenticate(req)

		requireAPIError(t, err, http.StatusUnauthorized, apierror.CategoryAuthentication)
		require.ErrorIs(t, err, ErrInvalidCredential)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("unknown subject is unauthenticated, never forbidden", func(t *testing.T) {
		auth, _, _ := newTestAuth()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer orphan-token")

		_, err := auth.Authenticate(req)

		apiErr := requireAPIError(t, err, http.StatusUnauthorized, apierror.CategoryAuthentication)
		require.ErrorIs(t, err, ErrSubjectNotFound)
		require.Equal(t, "authentication required", apiErr.Message)
	})

	t.Run("all causes render identically", func(t *testing.T) {
		auth, _, _ := newTestAuth()

		missing := httptest.NewRequest(http.MethodGet, "/", nil)
		invalid := httptest.NewRequest(http.MethodGet, "/", nil)
		invalid.Header.Set("Authorization", "Bearer forged")
		orphan := httptest.NewRequest(http.MethodGet, "/", nil)
		orphan.Header.Set("Authorization", "Bearer orphan-token")

		var rendered []apierror.APIError
		for _, req := range []*http.Request{missing, invalid, orphan} {
			_, err := auth.Authenticate(req)
			var apiErr *apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			copied := *apiErr
			copied.Err = nil
			rendered = append(rendered, copied)
		}
		require.Equal(t, rendered[0], rendered[1])
		require.Equal(t, rendered[1], rendered[2])
	})

	t.Run("store failure is not reported as an auth failure", func(t *testing.T) {
		auth, _, users := newTestAuth()
		users.err = errors.New("connection refused")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer user-token")

		_, err := auth.Authenticate(req)

		require.Error(t, err)
		var apiErr *apierror.APIError
		require.False(t, errors.As(err, &apiErr))
	})

	t.Run("identity merges user record and claims", func(t *testing.T) {
		auth, _, _ := newTestAuth()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer user-token")

		out, err := auth.Authenticate(req)
		require.NoError(t, err)

		identity, ok := IdentityFromContext(out.Context())
		require.True(t, ok)
		require.Equal(t, model.Identity{ID: "u-1", PhoneNumber: "+15550001", Role: model.RoleUser}, identity)

		_, present := IdentityFromContext(req.Context())
		require.False(t, present, "original request must not be mutated")
	})
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	adminOnly := RequireRoles(model.NewRoleSet(model.RoleAdmin))
	withRole := func(role model.Role) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(WithIdentity(req.Context(), model.Identity{ID: "x", Role: role}))
	}

	t.Run("no identity is unauthenticated", func(t *testing.T) {
		_, err := adminOnly(httptest.NewRequest(http.MethodGet, "/", nil))
		requireAPIError(t, err, http.StatusUnauthorized, apierror.CategoryAuthentication)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		_, err := adminOnly(withRole(model.RoleUser))
		requireAPIError(t, err, http.StatusForbidden, apierror.CategoryAccess)
	})

	t.Run("admin passes through unchanged", func(t *testing.T) {
		req := withRole(model.RoleAdmin)
		out, err := adminOnly(req)
		require.NoError(t, err)
		require.Same(t, req, out)
	})

	t.Run("decision is repeatable", func(t *testing.T) {
		req := withRole(model.RoleUser)
		_, first := adminOnly(req)
		_, second := adminOnly(req)
		require.Equal(t, first.Error(), second.Error())
	})
}
