package model

import "strings"

type OrderIDParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Name      string `json:"name" validate:"omitempty,max=200"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
	UnitPrice int64  `json:"unit_price" validate:"required,gt=0,lte=100000000"`
}

type ShippingAddressRequest struct {
	FullName   string `json:"full_name" validate:"required,max=120"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2,uppercase"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,max=50,dive"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3,uppercase"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
}

// Normalize trims free-text fields so length rules apply to what is stored.
func (r *CreateOrderRequest) Normalize() {
	for i := range r.Items {
		r.Items[i].ProductID = strings.TrimSpace(r.Items[i].ProductID)
		r.Items[i].Name = strings.TrimSpace(r.Items[i].Name)
	}
	a := &r.ShippingAddress
	a.FullName = strings.TrimSpace(a.FullName)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required,uuid"`
	PaymentID string `json:"payment_id" validate:"required,max=100"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=64"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=payment_pending paid fulfilling completed cancelled"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func (r *CancelOrderRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

type ListOrdersQuery struct {
	Page  int
	Limit int
}
