package event

import "time"

type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderPaid          Type = "order.paid"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeOrderCancelled     Type = "order.cancelled"
)

type Event struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	OrderID   string            `json:"order_id"`
	ActorID   string            `json:"actor_id,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type Publisher interface {
	Publish(e Event)
}

type Bus interface {
	Publisher
	Subscribe() (<-chan Event, func())
}
