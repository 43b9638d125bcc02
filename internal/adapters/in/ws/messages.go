package ws

import (
	"encoding/json"
	"time"
)

// Inbound message types. Drivers stream position fixes and drive their
// assignment forward; customers and admins manage tracking subscriptions.
const (
	MessageTypePosition      = "position"
	MessageTypeAccept        = "accept"
	MessageTypeDecline       = "decline"
	MessageTypeStartTransit  = "start_transit"
	MessageTypeMarkDelivered = "mark_delivered"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeHeartbeat     = "heartbeat"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type positionMessage struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Heading    float64   `json:"heading"`
	SpeedKmh   float64   `json:"speed_kmh"`
	AccuracyM  float64   `json:"accuracy_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

type orderMessage struct {
	OrderID string `json:"order_id"`
}

type ackMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
	ActorID      string `json:"actor_id"`
	Role         string `json:"role"`
}

type errorMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
