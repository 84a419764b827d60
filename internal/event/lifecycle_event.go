package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Resource string

const (
	ResourceCustomer Resource = "customer"
	ResourceLoan     Resource = "loan"
	ResourcePayment  Resource = "payment"
)

type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionDisabled Action = "disabled"
	ActionEnabled  Action = "enabled"
)

// LifecycleEvent is emitted after a committed mutation of a customer, loan or payment.
type LifecycleEvent struct {
	ID        string    `json:"id"`
	Resource  Resource  `json:"resource"`
	Action    Action    `json:"action"`
	EntityID  int64     `json:"entityId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewLifecycleEvent(resource Resource, action Action, entityID int64, payload any) LifecycleEvent {
	return LifecycleEvent{
		ID:        uuid.NewString(),
		Resource:  resource,
		Action:    action,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// RoutingKey is "<resource>.<action>", e.g. "loan.disabled".
func (e LifecycleEvent) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Resource, e.Action)
}

type EventPublisher interface {
	Publish(ctx context.Context, evt LifecycleEvent) error
}

// NoopPublisher drops every event. Used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, LifecycleEvent) error { return nil }

var _ EventPublisher = NoopPublisher{}
