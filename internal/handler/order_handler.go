package handler

import (
	"context"
	"net/http"
	"strconv"

	"order-service/internal/middleware"
	"order-service/internal/model"
	"order-service/internal/service"
	"order-service/pkg/apierror"
)

type orderService interface {
	ListMine(ctx context.Context, actor model.Identity, q model.ListOrdersQuery) (model.OrderPage, model.ListOrdersQuery, error)
	ListAll(ctx context.Context, q model.ListOrdersQuery) (model.OrderPage, model.ListOrdersQuery, error)
	Create(ctx context.Context, actor model.Identity, req model.CreateOrderRequest) (model.Order, error)
	VerifyPayment(ctx context.Context, actor model.Identity, req model.VerifyPaymentRequest) (model.Order, error)
	Get(ctx context.Context, actor model.Identity, id string) (model.Order, error)
	Invoice(ctx context.Context, actor model.Identity, id string) (service.Invoice, error)
	UpdateStatus(ctx context.Context, actor model.Identity, id string, status model.OrderStatus) (model.Order, error)
	Cancel(ctx context.Context, actor model.Identity, id string, reason string) (model.Order, error)
}

type OrderHandler struct {
	service orderService
}

func NewOrderHandler(service orderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	q, err := parseListQuery(r)
	if err != nil {
		return err
	}

	page, q, err := h.service.ListMine(r.Context(), actor, q)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, page.Orders, model.NewMeta(q.Page, q.Limit, page.Total))
	return nil
}

func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) error {
	q, err := parseListQuery(r)
	if err != nil {
		return err
	}

	page, q, err := h.service.ListAll(r.Context(), q)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, page.Orders, model.NewMeta(q.Page, q.Limit, page.Total))
	return nil
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	req, err := body[model.CreateOrderRequest](r)
	if err != nil {
		return err
	}

	order, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusCreated, order, nil)
	return nil
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	req, err := body[model.VerifyPaymentRequest](r)
	if err != nil {
		return err
	}

	order, err := h.service.VerifyPayment(r.Context(), actor, req)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, order, nil)
	return nil
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	params, err := orderParams(r)
	if err != nil {
		return err
	}

	order, err := h.service.Get(r.Context(), actor, params.ID)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, order, nil)
	return nil
}

func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	params, err := orderParams(r)
	if err != nil {
		return err
	}

	invoice, err := h.service.Invoice(r.Context(), actor, params.ID)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+invoice.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(invoice.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(invoice.Content)
	return nil
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	params, err := orderParams(r)
	if err != nil {
		return err
	}
	req, err := body[model.UpdateStatusRequest](r)
	if err != nil {
		return err
	}

	order, err := h.service.UpdateStatus(r.Context(), actor, params.ID, req.Status)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, order, nil)
	return nil
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	params, err := orderParams(r)
	if err != nil {
		return err
	}
	req, err := body[model.CancelOrderRequest](r)
	if err != nil {
		return err
	}

	order, err := h.service.Cancel(r.Context(), actor, params.ID, req.Reason)
	if err != nil {
		return err
	}

	WriteSuccess(w, http.StatusOK, order, nil)
	return nil
}

func identity(r *http.Request) (model.Identity, error) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return model.Identity{}, apierror.Unauthenticated(model.ErrUnauthorized)
	}
	return actor, nil
}

func orderParams(r *http.Request) (model.OrderIDParams, error) {
	params, ok := middleware.ParamsFromContext[model.OrderIDParams](r.Context())
	if !ok {
		return model.OrderIDParams{}, apierror.InvalidInput("invalid request params", nil)
	}
	return params, nil
}

func body[T any](r *http.Request) (T, error) {
	req, ok := middleware.BodyFromContext[T](r.Context())
	if !ok {
		var zero T
		return zero, apierror.InvalidInput("invalid request body", nil)
	}
	return req, nil
}

func parseListQuery(r *http.Request) (model.ListOrdersQuery, error) {
	var (
		q      model.ListOrdersQuery
		fields = map[string]string{}
	)

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		switch {
		case err != nil || page < 1:
			fields["page"] = "This field must be a positive integer"
		case page > service.MaxListPage:
			fields["page"] = "This field must be less than or equal to " + strconv.Itoa(service.MaxListPage)
		}
		q.Page = page
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			fields["limit"] = "This field must be a positive integer"
		}
		q.Limit = limit
	}

	if len(fields) > 0 {
		return model.ListOrdersQuery{}, apierror.InvalidInput("invalid request query", fields)
	}
	return q, nil
}
