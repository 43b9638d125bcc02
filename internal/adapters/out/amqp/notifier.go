// Package amqp publishes notification requests to RabbitMQ. Downstream
// notification services (push, SMS) consume them from a fanout exchange;
// this subsystem only hands the request over.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fueltrack/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the fanout exchange notification requests go to.
	DefaultExchange = "fueltrack.notifications"

	publishTimeout = 5 * time.Second
)

// notificationMessage is the wire form of a notification request.
type notificationMessage struct {
	Kind       string    `json:"kind"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	DriverID   string    `json:"driver_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier implements the notification port over a RabbitMQ fanout
// exchange. Publishing is fire and forget: a failed publish is the
// caller's to log, never to roll back on.
type Notifier struct {
	logger   *slog.Logger
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewNotifier connects to RabbitMQ and declares the notification exchange.
//
// Parameters:
//   - url: AMQP connection URL
//   - exchange: exchange name; empty means DefaultExchange
//   - logger: structured logger; nil falls back to slog.Default()
//
// Returns an error when the broker is unreachable or the exchange cannot
// be declared.
func NewNotifier(url, exchange string, logger *slog.Logger) (*Notifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &Notifier{
		logger:   logger.With("component", "amqp_notifier"),
		url:      url,
		exchange: exchange,
	}

	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

// Notify publishes one notification request. The message is persistent so
// the broker survives a restart without losing queued requests.
func (n *Notifier) Notify(ctx context.Context, notification ports.Notification) error {
	msg := notificationMessage{
		Kind:       string(notification.Kind),
		OrderID:    notification.OrderID.String(),
		CustomerID: notification.CustomerID.String(),
		OccurredAt: time.Now(),
	}
	if notification.DriverID != nil {
		msg.DriverID = notification.DriverID.String()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := n.publish(ctx, body); err == nil {
		return nil
	}

	// One reconnect attempt covers the common broken-channel case after a
	// broker restart.
	if err := n.reconnect(); err != nil {
		return fmt.Errorf("reconnect notifier: %w", err)
	}
	return n.publish(ctx, body)
}

// Close shuts the channel and connection down.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

func (n *Notifier) publish(ctx context.Context, body []byte) error {
	n.mu.Lock()
	ch := n.ch
	n.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("notifier channel is not open")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(
		publishCtx,
		n.exchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (n *Notifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		n.exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", n.exchange, err)
	}

	n.mu.Lock()
	n.conn = conn
	n.ch = ch
	n.mu.Unlock()

	n.logger.Info("connected to rabbitmq", "exchange", n.exchange)
	return nil
}

func (n *Notifier) reconnect() error {
	n.Close()
	return n.connect()
}
