package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"order-service/internal/middleware"
	"order-service/internal/model"
	"order-service/pkg/apierror"
)

func WriteSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// WriteError is the only place a failure becomes an HTTP response. Pipeline
// stages and handlers return errors; this maps them to status, code and
// category.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	attrs := []any{
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", body.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.DebugContext(r.Context(), "request rejected", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func classify(err error) (int, *model.APIError) {
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return fromAPIError(apiErr)
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrTokenInvalid), errors.Is(err, model.ErrTokenExpired):
		return fromAPIError(apierror.Unauthenticated(err))
	case errors.Is(err, model.ErrForbidden):
		return fromAPIError(apierror.Forbidden("user not authorized for this action"))
	case errors.Is(err, model.ErrOrderNotFound):
		return fromAPIError(apierror.NotFound("order not found", ""))
	case errors.Is(err, model.ErrInvalidTransition):
		return fromAPIError(apierror.Conflict("INVALID_TRANSITION", "order status transition not allowed", ""))
	case errors.Is(err, model.ErrInvalidInput):
		return fromAPIError(apierror.InvalidInput("invalid input", nil))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, &model.APIError{
			Code:     "REQUEST_CANCELLED",
			Category: "Unavailable",
			Message:  "request was cancelled",
		}
	default:
		return http.StatusInternalServerError, &model.APIError{
			Code:     "INTERNAL_ERROR",
			Category: apierror.CategoryInternal,
			Message:  "Unexpected server error",
		}
	}
}

func fromAPIError(e *apierror.APIError) (int, *model.APIError) {
	return e.HTTPStatus, &model.APIError{
		Code:     e.Code,
		Category: e.Category,
		Message:  e.Message,
		Details:  e.Details,
		Fields:   e.Fields,
	}
}
