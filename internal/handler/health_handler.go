package handler

import (
	"context"
	"net/http"
	"time"

	"order-service/pkg/apierror"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		WriteError(w, r, apierror.New("UNAVAILABLE", "database unreachable", "", http.StatusServiceUnavailable).WithCause(err))
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
