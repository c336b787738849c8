package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Channel names a realtime event stream.
type Channel string

const (
	ChannelOrderChanged  Channel = "comandas"
	ChannelStatusChanged Channel = "status-orden"
	ChannelCharts        Channel = "graficas"
	ChannelUsers         Channel = "usuarios"

	// ChannelReconnected never crosses the wire. Notifiers raise it locally
	// every time a lost connection is re-established.
	ChannelReconnected Channel = "$reconnected"
)

// Event is one delivery on a channel. Payload shape depends on the channel.
type Event struct {
	Channel    Channel         `json:"channel"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// StatusChangedPayload is broadcast after a persisted status transition.
type StatusChangedPayload struct {
	OrderID  int64           `json:"idorder"`
	Status   Status          `json:"status"`
	Client   string          `json:"client"`
	Total    decimal.Decimal `json:"total"`
	Comments string          `json:"comments"`
	UserID   int64           `json:"users_idusers"`
}

// SalePayload feeds the reporting charts when an order is completed.
type SalePayload struct {
	Month int             `json:"mes"`
	Total decimal.Decimal `json:"total"`
}
