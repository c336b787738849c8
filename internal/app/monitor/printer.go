package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

// Printer writes one console line per realtime event it hears.
type Printer struct {
	out    io.Writer
	logger logger.Logger
}

func NewPrinter(out io.Writer, logger logger.Logger) *Printer {
	return &Printer{out: out, logger: logger}
}

// Run listens on every given channel until ctx is done.
func (p *Printer) Run(ctx context.Context, notifier interfaces.Notifier, channels ...domain.Channel) {
	var wg sync.WaitGroup
	for _, ch := range channels {
		sub := notifier.Listen(ch)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sub.Unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-sub.C():
					if !ok {
						return
					}
					_ = p.Handle(ev)
				}
			}
		}()
	}
	wg.Wait()
}

func (p *Printer) Handle(ev domain.Event) error {
	switch ev.Channel {
	case domain.ChannelOrderChanged, domain.ChannelStatusChanged:
		var msg domain.StatusChangedPayload
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			p.logger.Error("message_parse_failed", "Failed to parse notification", "", map[string]interface{}{
				"channel": string(ev.Channel),
			}, err)
			return err
		}

		p.logger.Debug("notification_received", fmt.Sprintf("Received update for order %d", msg.OrderID), "",
			map[string]interface{}{
				"order_id":   msg.OrderID,
				"new_status": msg.Status.String(),
			})
		fmt.Fprintf(p.out, "Notification for order %d (%s): status is now '%s'\n", msg.OrderID, msg.Client, msg.Status)

	case domain.ChannelCharts:
		var msg domain.SalePayload
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			p.logger.Error("message_parse_failed", "Failed to parse sale", "", nil, err)
			return err
		}
		fmt.Fprintf(p.out, "Sale recorded for month %d: %s\n", msg.Month, msg.Total.StringFixed(2))

	default:
		fmt.Fprintf(p.out, "Event on %s: %s\n", ev.Channel, string(ev.Payload))
	}
	return nil
}
