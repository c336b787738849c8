package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/comandas/internal/config"
)

type Connection interface {
	Channel() (Channel, error)
	Close() error
	NotifyClose() <-chan *amqp.Error
}

type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (Confirmation, error)
	Close() error
}

// Confirmation resolves once the broker acks or nacks a publish.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type Queue struct {
	Name      string
	Messages  int
	Consumers int
}

// Dialer opens a broker connection. Connect is the production one.
type Dialer func(cfg config.RabbitMQConfig) (Connection, error)

type amqpConnection struct {
	conn   *amqp.Connection
	mu     sync.RWMutex
	closed bool
}

type amqpChannel struct {
	ch *amqp.Channel
}

func URL(cfg config.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

func Connect(cfg config.RabbitMQConfig) (Connection, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return &amqpConnection{conn: conn}, nil
}

func (c *amqpConnection) Channel() (Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("connection is closed")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &amqpChannel{ch: ch}, nil
}

func (c *amqpConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}

func (c *amqpConnection) NotifyClose() <-chan *amqp.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (ch *amqpChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *amqpChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	q, err := ch.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
	if err != nil {
		return Queue{}, err
	}
	return Queue{Name: q.Name, Messages: q.Messages, Consumers: q.Consumers}, nil
}

func (ch *amqpChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.ch.QueueBind(name, key, exchange, noWait, args)
}

func (ch *amqpChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return ch.ch.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}

func (ch *amqpChannel) Confirm(noWait bool) error {
	return ch.ch.Confirm(noWait)
}

func (ch *amqpChannel) PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (Confirmation, error) {
	dc, err := ch.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, fmt.Errorf("channel is not in confirm mode")
	}
	return dc, nil
}

func (ch *amqpChannel) Close() error {
	return ch.ch.Close()
}
