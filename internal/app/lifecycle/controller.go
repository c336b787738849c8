package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Controller mediates order creation and status changes. A change is always
// persisted before it is broadcast, and a failed broadcast never undoes it.
type Controller struct {
	gateway  interfaces.OrderGateway
	notifier interfaces.Notifier
	session  interfaces.SessionReader
	logger   logger.Logger
	now      func() time.Time
}

func NewController(
	gateway interfaces.OrderGateway,
	notifier interfaces.Notifier,
	session interfaces.SessionReader,
	logger logger.Logger,
) *Controller {
	return &Controller{
		gateway:  gateway,
		notifier: notifier,
		session:  session,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit validates and persists order, then announces it on the
// order-changed channel. The returned order carries the server id.
func (c *Controller) Submit(ctx context.Context, order domain.Order) (*domain.Order, error) {
	o := order.Clone()
	o.ApplySubmitDefaults(c.now())
	o.RecalculateTotal()

	if err := o.Validate(); err != nil {
		c.logger.Debug("validation_failed", "Order rejected before submit", "", map[string]interface{}{
			"client": o.Client,
		})
		return nil, err
	}

	if o.UserID == 0 {
		if sess, err := c.session.Current(ctx); err == nil {
			o.UserID = sess.User.ID
		}
	}

	id, err := c.gateway.CreateOrder(ctx, o)
	if err != nil {
		c.logger.Error("order_create_failed", "Failed to create order", "", map[string]interface{}{
			"client": o.Client,
		}, err)
		return nil, &domain.PersistenceError{Op: "create order", Err: err}
	}
	o.ID = id

	c.logger.Info("order_created", "Order created", "", map[string]interface{}{
		"order_id": o.ID,
		"total":    o.Total.String(),
		"items":    len(o.Items),
	})

	c.broadcast(ctx, domain.ChannelOrderChanged, o)

	created := o.Clone()
	return &created, nil
}

// Transition moves order to target on behalf of actorID. The current status
// is taken from order as given; the server remains the authority.
func (c *Controller) Transition(ctx context.Context, order domain.Order, target domain.Status, actorID int64) error {
	if !order.Status.CanTransitionTo(target) {
		return &domain.InvalidTransitionError{From: order.Status, To: target}
	}

	if err := c.gateway.UpdateStatus(ctx, order.ID, target, actorID); err != nil {
		c.logger.Error("status_update_failed", "Failed to update order status", "", map[string]interface{}{
			"order_id": order.ID,
			"from":     order.Status.String(),
			"to":       target.String(),
		}, err)
		return &domain.PersistenceError{Op: "update order status", Err: err}
	}

	c.logger.Info("status_changed", "Order status changed", "", map[string]interface{}{
		"order_id": order.ID,
		"from":     order.Status.String(),
		"to":       target.String(),
		"actor_id": actorID,
	})

	c.broadcast(ctx, domain.ChannelOrderChanged, domain.StatusChangedPayload{
		OrderID:  order.ID,
		Status:   target,
		Client:   order.Client,
		Total:    order.Total,
		Comments: order.Comments,
		UserID:   actorID,
	})

	if target == domain.StatusCompleted {
		c.broadcast(ctx, domain.ChannelCharts, domain.SalePayload{
			Month: int(c.now().Month()),
			Total: order.Total,
		})
	}
	return nil
}

// broadcast is best effort. A failure is logged and dropped.
func (c *Controller) broadcast(ctx context.Context, channel domain.Channel, payload any) {
	err := c.notifier.Send(ctx, channel, payload)
	if err == nil {
		return
	}
	var tErr *domain.TransportError
	if !errors.As(err, &tErr) {
		err = &domain.TransportError{Channel: channel, Err: err}
	}
	c.logger.Warn("broadcast_failed", "Realtime broadcast dropped", "", map[string]interface{}{
		"channel": string(channel),
	}, err)
}
