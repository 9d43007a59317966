package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"order-service/internal/event"
	"order-service/internal/model"
	"order-service/pkg/apierror"
)

const (
	defaultCurrency  = "INR"
	defaultPageLimit = 20
	maxPageLimit     = 100
	MaxListPage      = 1_000_000
)

type OrderStore interface {
	Create(ctx context.Context, o model.Order) error
	FindByID(ctx context.Context, id string) (model.Order, error)
	ListByUser(ctx context.Context, userID string, q model.ListOrdersQuery) (model.OrderPage, error)
	ListAll(ctx context.Context, q model.ListOrdersQuery) (model.OrderPage, error)
	UpdateState(ctx context.Context, o model.Order, from model.OrderStatus) error
}

type Invoice struct {
	Filename string
	Content  []byte
}

type OrderService struct {
	store         OrderStore
	paymentSecret []byte
	events        event.Publisher
	now           func() time.Time
}

func NewOrderService(store OrderStore, paymentSecret string, events event.Publisher) *OrderService {
	if events == nil {
		events = event.Discard
	}
	return &OrderService{
		store:         store,
		paymentSecret: []byte(paymentSecret),
		events:        events,
		now:           time.Now,
	}
}

func (s *OrderService) ListMine(ctx context.Context, actor model.Identity, q model.ListOrdersQuery) (model.OrderPage, model.ListOrdersQuery, error) {
	q = NormalizeListQuery(q)
	page, err := s.store.ListByUser(ctx, actor.ID, q)
	return page, q, err
}

func (s *OrderService) ListAll(ctx context.Context, q model.ListOrdersQuery) (model.OrderPage, model.ListOrdersQuery, error) {
	q = NormalizeListQuery(q)
	page, err := s.store.ListAll(ctx, q)
	return page, q, err
}

func (s *OrderService) Create(ctx context.Context, actor model.Identity, req model.CreateOrderRequest) (model.Order, error) {
	items := make([]model.OrderItem, 0, len(req.Items))
	var total int64
	for i, item := range req.Items {
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			return model.Order{}, apierror.InvalidInput("invalid request body", map[string]string{
				fmt.Sprintf("items[%d]", i): "quantity and unit_price must be positive",
			})
		}
		line, ok := mulAmount(int64(item.Quantity), item.UnitPrice)
		if ok {
			total, ok = addAmount(total, line)
		}
		if !ok {
			return model.Order{}, apierror.InvalidInput("invalid request body", map[string]string{
				"items": "order total is too large",
			})
		}

		items = append(items, model.OrderItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.now().UTC()
	order := model.Order{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Items:       items,
		Currency:    currency,
		TotalAmount: total,
		ShippingAddress: model.ShippingAddress{
			FullName:   req.ShippingAddress.FullName,
			Line1:      req.ShippingAddress.Line1,
			Line2:      req.ShippingAddress.Line2,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		Status:           model.StatusPaymentPending,
		PaymentReference: "pay_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return model.Order{}, err
	}

	slog.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", actor.ID, "total", total, "currency", currency)
	s.publish(event.TypeOrderCreated, order, actor, map[string]string{"total": formatAmount(total), "currency": currency})
	return order, nil
}

// Get hides orders the caller does not own behind a not-found error.
func (s *OrderService) Get(ctx context.Context, actor model.Identity, id string) (model.Order, error) {
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Order{}, translateStoreError(err, id)
	}

	if !actor.IsAdmin() && !order.OwnedBy(actor.ID) {
		return model.Order{}, apierror.NotFound("order not found", id).WithCause(model.ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) VerifyPayment(ctx context.Context, actor model.Identity, req model.VerifyPaymentRequest) (model.Order, error) {
	order, err := s.store.FindByID(ctx, req.OrderID)
	if err != nil {
		return model.Order{}, translateStoreError(err, req.OrderID)
	}
	if !order.OwnedBy(actor.ID) {
		return model.Order{}, apierror.NotFound("order not found", req.OrderID).WithCause(model.ErrForbidden)
	}

	if order.Status != model.StatusPaymentPending {
		return model.Order{}, apierror.Conflict("ORDER_NOT_PAYABLE", "order is not awaiting payment", string(order.Status)).
			WithCause(model.ErrOrderNotPayable)
	}

	expected := ComputePaymentSignature(s.paymentSecret, order.PaymentReference, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		slog.WarnContext(ctx, "payment signature mismatch", "order_id", order.ID, "payment_id", req.PaymentID)
		return model.Order{}, apierror.BadRequest("PAYMENT_VERIFICATION_FAILED", "payment could not be verified", "").
			WithCause(model.ErrPaymentSignature)
	}

	from := order.Status
	order.Status = model.StatusPaid
	order.PaymentID = req.PaymentID
	order.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateState(ctx, order, from); err != nil {
		return model.Order{}, translateStoreError(err, order.ID)
	}

	slog.InfoContext(ctx, "payment verified", "order_id", order.ID, "payment_id", req.PaymentID)
	s.publish(event.TypeOrderPaid, order, actor, map[string]string{"payment_id": req.PaymentID})
	return order, nil
}

func (s *OrderService) Invoice(ctx context.Context, actor model.Identity, id string) (Invoice, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return Invoice{}, err
	}

	if !order.Status.Invoiceable() {
		return Invoice{}, apierror.Conflict("INVOICE_UNAVAILABLE", "invoice is available once the order is paid", string(order.Status)).
			WithCause(model.ErrInvoiceUnavailable)
	}

	return Invoice{
		Filename: "invoice-" + order.ID + ".txt",
		Content:  renderInvoice(order),
	}, nil
}

// UpdateStatus forces a transition. Only admins may call it; owners use Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, actor model.Identity, id string, status model.OrderStatus) (model.Order, error) {
	if !actor.IsAdmin() {
		return model.Order{}, apierror.Forbidden("user not authorized for this action").WithCause(model.ErrForbidden)
	}

	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Order{}, translateStoreError(err, id)
	}

	from := order.Status
	if !from.CanForceTransition(status) {
		return model.Order{}, invalidTransition(from, status)
	}

	order.Status = status
	order.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateState(ctx, order, from); err != nil {
		return model.Order{}, translateStoreError(err, id)
	}

	slog.InfoContext(ctx, "order status updated", "order_id", id, "from", from, "to", status, "admin_id", actor.ID)
	s.publish(event.TypeOrderStatusChanged, order, actor, map[string]string{"from": string(from), "to": string(status)})
	return order, nil
}

// Cancel is the narrower, owner-reachable transition.
func (s *OrderService) Cancel(ctx context.Context, actor model.Identity, id string, reason string) (model.Order, error) {
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Order{}, translateStoreError(err, id)
	}
	if !order.OwnedBy(actor.ID) {
		return model.Order{}, apierror.NotFound("order not found", id).WithCause(model.ErrForbidden)
	}

	from := order.Status
	if !from.CanCancel() {
		return model.Order{}, invalidTransition(from, model.StatusCancelled)
	}

	order.Status = model.StatusCancelled
	order.CancelReason = strings.TrimSpace(reason)
	order.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateState(ctx, order, from); err != nil {
		return model.Order{}, translateStoreError(err, id)
	}

	slog.InfoContext(ctx, "order cancelled", "order_id", id, "user_id", actor.ID, "from", from)
	s.publish(event.TypeOrderCancelled, order, actor, map[string]string{"from": string(from), "reason": order.CancelReason})
	return order, nil
}

func (s *OrderService) publish(t event.Type, o model.Order, actor model.Identity, attrs map[string]string) {
	s.events.Publish(event.Event{
		Type:      t,
		OrderID:   o.ID,
		ActorID:   actor.ID,
		Attrs:     attrs,
		Timestamp: o.UpdatedAt,
	})
}

// ComputePaymentSignature is the gateway contract: hex HMAC-SHA256 of
// "<payment_reference>|<payment_id>".
func ComputePaymentSignature(secret []byte, paymentReference string, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(paymentReference + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func NormalizeListQuery(q model.ListOrdersQuery) model.ListOrdersQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	if q.Page > MaxListPage {
		q.Page = MaxListPage
	}
	return q
}

// mulAmount and addAmount report false instead of wrapping around. Both
// operands are positive.
func mulAmount(a int64, b int64) (int64, bool) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

func addAmount(a int64, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

func translateStoreError(err error, id string) error {
	switch {
	case errors.Is(err, model.ErrOrderNotFound):
		return apierror.NotFound("order not found", id).WithCause(err)
	case errors.Is(err, model.ErrInvalidTransition):
		return apierror.Conflict("INVALID_TRANSITION", "order status changed concurrently", id).WithCause(err)
	default:
		return err
	}
}

func invalidTransition(from model.OrderStatus, to model.OrderStatus) error {
	return apierror.New("INVALID_TRANSITION", "order status transition not allowed",
		fmt.Sprintf("%s -> %s", from, to), http.StatusConflict).WithCause(model.ErrInvalidTransition)
}

func renderInvoice(o model.Order) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "INVOICE\n\n")
	fmt.Fprintf(&b, "Order:     %s\n", o.ID)
	fmt.Fprintf(&b, "Date:      %s\n", o.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Payment:   %s\n", o.PaymentID)
	fmt.Fprintf(&b, "Bill to:   %s\n", o.ShippingAddress.FullName)
	fmt.Fprintf(&b, "           %s, %s %s, %s\n\n", o.ShippingAddress.Line1, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country)

	for _, item := range o.Items {
		label := item.Name
		if label == "" {
			label = item.ProductID
		}
		fmt.Fprintf(&b, "%-40s %4d x %12s = %12s\n", label, item.Quantity,
			formatAmount(item.UnitPrice), formatAmount(int64(item.Quantity)*item.UnitPrice))
	}

	fmt.Fprintf(&b, "\nTotal (%s): %s\n", o.Currency, formatAmount(o.TotalAmount))
	return []byte(b.String())
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
