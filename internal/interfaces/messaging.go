package interfaces

import (
	"context"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// Subscription is one independent listener. C is closed after Unsubscribe.
type Subscription interface {
	C() <-chan domain.Event
	Unsubscribe()
}

// Notifier is the realtime pub/sub transport. Delivery is best effort:
// no ordering, no replay after a reconnect.
type Notifier interface {
	Connected() bool
	Listen(channel domain.Channel) Subscription
	ListenReconnect() Subscription
	Send(ctx context.Context, channel domain.Channel, payload any) error
}
