package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"order-service/internal/model"
	"order-service/pkg/apierror"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		category string
	}{
		{"api error", apierror.Conflict("ORDER_NOT_PAYABLE", "order is not awaiting payment", ""), http.StatusConflict, "ORDER_NOT_PAYABLE", apierror.CategoryConflict},
		{"wrapped api error", fmt.Errorf("outer: %w", apierror.Forbidden("nope")), http.StatusForbidden, "FORBIDDEN", apierror.CategoryAccess},
		{"expired token", fmt.Errorf("%w: exp", model.ErrTokenExpired), http.StatusUnauthorized, "UNAUTHENTICATED", apierror.CategoryAuthentication},
		{"unknown user", model.ErrUserNotFound, http.StatusUnauthorized, "UNAUTHENTICATED", apierror.CategoryAuthentication},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, "FORBIDDEN", apierror.CategoryAccess},
		{"order not found", model.ErrOrderNotFound, http.StatusNotFound, "NOT_FOUND", apierror.CategoryNotFound},
		{"transition", model.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", apierror.CategoryConflict},
		{"invalid input", model.ErrInvalidInput, http.StatusUnprocessableEntity, "INVALID_INPUT", apierror.CategoryValidation},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Unavailable"},
		{"unknown", errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL_ERROR", apierror.CategoryInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := classify(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, body.Code)
			require.Equal(t, tc.category, body.Category)
		})
	}
}

func TestWriteErrorHidesCause(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

	WriteError(rec, req, apierror.Unauthenticated(errors.New("subject not found: 42")))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NotContains(t, rec.Body.String(), "subject not found")

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "authentication required", resp.Error.Message)
}

func TestWriteSuccess(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccess(rec, http.StatusCreated, map[string]string{"id": "1"}, model.NewMeta(1, 20, 1))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"success":true,"data":{"id":"1"},"meta":{"page":1,"limit":20,"total":1,"total_pages":1}}`, rec.Body.String())
}
