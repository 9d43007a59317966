package model

import "time"

type OrderStatus string

const (
	StatusPaymentPending OrderStatus = "payment_pending"
	StatusPaid           OrderStatus = "paid"
	StatusFulfilling     OrderStatus = "fulfilling"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPaymentPending, StatusPaid, StatusFulfilling, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Invoiceable reports whether money has been captured for the order.
func (s OrderStatus) Invoiceable() bool {
	return s == StatusPaid || s == StatusFulfilling || s == StatusCompleted
}

// CanForceTransition is the admin rule: any non-terminal order may move to
// any other known status.
func (s OrderStatus) CanForceTransition(to OrderStatus) bool {
	return to.Valid() && !s.Terminal() && s != to
}

func (s OrderStatus) CanCancel() bool {
	return !s.Terminal()
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Items            []OrderItem     `json:"items"`
	Currency         string          `json:"currency"`
	TotalAmount      int64           `json:"total_amount"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	Status           OrderStatus     `json:"status"`
	PaymentReference string          `json:"payment_reference"`
	PaymentID        string          `json:"payment_id,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

type OrderPage struct {
	Orders []Order
	Total  int
}
