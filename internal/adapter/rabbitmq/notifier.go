package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/config"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
	"github.com/YelzhanWeb/comandas/internal/realtime"
)

var ErrNotConnected = errors.New("not connected")

// Notifier carries every realtime channel through one fanout exchange. The
// channel name travels as the message Type, and each process consumes from
// its own exclusive queue and fans deliveries out locally through a hub.
type Notifier struct {
	cfg    config.RabbitMQConfig
	dial   Dialer
	hub    *realtime.Hub
	logger logger.Logger

	connected atomic.Bool
	mu        sync.Mutex
	pub       Channel
}

func NewNotifier(cfg config.RabbitMQConfig, hub *realtime.Hub, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, dial: Connect, hub: hub, logger: log}
}

var _ interfaces.Notifier = (*Notifier)(nil)

func (n *Notifier) Connected() bool {
	return n.connected.Load()
}

func (n *Notifier) Listen(channel domain.Channel) interfaces.Subscription {
	return n.hub.Subscribe(channel)
}

func (n *Notifier) ListenReconnect() interfaces.Subscription {
	return n.hub.Subscribe(domain.ChannelReconnected)
}

// Run keeps a connection open until ctx is done. After a drop it retries
// with a fixed delay and gives up after ReconnectAttempts consecutive
// failures. Every connection after the first raises the reconnect signal.
func (n *Notifier) Run(ctx context.Context) error {
	established := 0
	failures := 0

	for {
		up := false
		err := n.serve(ctx, func() {
			up = true
			established++
			n.connected.Store(true)
			n.logger.Info("rabbitmq_connected", "Connected to realtime exchange", "", map[string]interface{}{
				"exchange": n.cfg.Exchange,
				"session":  established,
			})
			if established > 1 {
				n.hub.Publish(domain.Event{Channel: domain.ChannelReconnected, ReceivedAt: time.Now()})
			}
		})
		n.setPublisher(nil)
		n.connected.Store(false)

		if ctx.Err() != nil {
			return nil
		}
		if up {
			failures = 0
		}
		failures++
		if failures > n.cfg.ReconnectAttempts {
			return fmt.Errorf("giving up after %d reconnect attempts: %w", n.cfg.ReconnectAttempts, err)
		}

		n.logger.Warn("rabbitmq_disconnected", "Realtime connection lost, retrying", "", map[string]interface{}{
			"attempt": failures,
			"delay":   n.cfg.ReconnectDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(n.cfg.ReconnectDelay):
		}
	}
}

// serve runs one connection until it drops or ctx is done.
func (n *Notifier) serve(ctx context.Context, onUp func()) error {
	conn, err := n.dial(n.cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	closed := conn.NotifyClose()

	sub, err := conn.Channel()
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := sub.ExchangeDeclare(n.cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	q, err := sub.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := sub.QueueBind(q.Name, "", n.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := sub.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		return err
	}
	defer pub.Close()
	if err := pub.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	n.setPublisher(pub)

	onUp()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closed:
			if err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			return fmt.Errorf("connection closed")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			n.deliver(msg)
		}
	}
}

func (n *Notifier) deliver(msg amqp.Delivery) {
	channel := domain.Channel(msg.Type)
	if channel == "" || channel == domain.ChannelReconnected {
		n.logger.Debug("rabbitmq_dropped", "Ignoring message without a usable channel", "", map[string]interface{}{
			"type": msg.Type,
		})
		return
	}
	n.hub.Publish(domain.Event{Channel: channel, Payload: json.RawMessage(msg.Body), ReceivedAt: time.Now()})
}

// Send publishes payload on channel and returns once the broker confirms it.
func (n *Notifier) Send(ctx context.Context, channel domain.Channel, payload any) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransportError{Channel: channel, Err: err}
	}
	pub := n.publisher()
	if pub == nil || !n.Connected() {
		return &domain.TransportError{Channel: channel, Err: ErrNotConnected}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &domain.TransportError{Channel: channel, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	conf, err := pub.PublishWithDeferredConfirmWithContext(ctx, n.cfg.Exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        string(channel),
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return &domain.TransportError{Channel: channel, Err: fmt.Errorf("failed to publish message: %w", err)}
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return &domain.TransportError{Channel: channel, Err: err}
	}
	if !acked {
		return &domain.TransportError{Channel: channel, Err: fmt.Errorf("broker rejected message")}
	}
	return nil
}

func (n *Notifier) setPublisher(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pub = ch
}

func (n *Notifier) publisher() Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pub
}
