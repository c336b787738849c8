package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
	"github.com/YelzhanWeb/comandas/internal/realtime"
)

// Notifier is an in-process realtime transport over a shared hub. Every
// Notifier built on the same hub sees the others' sends.
type Notifier struct {
	hub       *realtime.Hub
	connected atomic.Bool
}

func NewNotifier(hub *realtime.Hub) *Notifier {
	n := &Notifier{hub: hub}
	n.connected.Store(true)
	return n
}

var _ interfaces.Notifier = (*Notifier)(nil)

func (n *Notifier) Connected() bool {
	return n.connected.Load()
}

// SetConnected simulates a drop or a restored connection. Going from
// disconnected to connected raises the reconnect signal.
func (n *Notifier) SetConnected(connected bool) {
	was := n.connected.Swap(connected)
	if connected && !was {
		n.hub.Publish(domain.Event{Channel: domain.ChannelReconnected, ReceivedAt: time.Now()})
	}
}

func (n *Notifier) Listen(channel domain.Channel) interfaces.Subscription {
	return n.hub.Subscribe(channel)
}

func (n *Notifier) ListenReconnect() interfaces.Subscription {
	return n.hub.Subscribe(domain.ChannelReconnected)
}

func (n *Notifier) Send(ctx context.Context, channel domain.Channel, payload any) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransportError{Channel: channel, Err: err}
	}
	if !n.Connected() {
		return &domain.TransportError{Channel: channel, Err: fmt.Errorf("not connected")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &domain.TransportError{Channel: channel, Err: fmt.Errorf("marshal payload: %w", err)}
	}
	n.hub.Publish(domain.Event{Channel: channel, Payload: body, ReceivedAt: time.Now()})
	return nil
}
