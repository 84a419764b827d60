package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "lending-service"

// AMQPConnection is the subset of *amqp.Connection the publisher needs.
type AMQPConnection interface {
	Channel() (*amqp.Channel, error)
}

// RabbitMQEventPublisher sends lifecycle events to a durable topic exchange
// over one shared channel, reopened when the broker closes it.
type RabbitMQEventPublisher struct {
	conn     AMQPConnection
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	channel *amqp.Channel
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)

func NewRabbitMQEventPublisher(conn AMQPConnection, exchange string, logger *slog.Logger) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, errors.New("RabbitMQ connection cannot be nil")
	}
	if exchange == "" {
		return nil, errors.New("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &RabbitMQEventPublisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With("component", "RabbitMQEventPublisher", "exchange", exchange),
	}
	if _, err := p.ensureChannel(); err != nil {
		return nil, err
	}
	p.logger.Info("Declared lifecycle exchange", "type", amqp.ExchangeTopic)
	return p, nil
}

// ensureChannel returns the open channel, opening and declaring the
// exchange when there is none. Callers must not hold p.mu.
func (p *RabbitMQEventPublisher) ensureChannel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", p.exchange, err)
	}
	p.channel = ch
	return ch, nil
}

func (p *RabbitMQEventPublisher) Publish(ctx context.Context, evt LifecycleEvent) error {
	routingKey := evt.RoutingKey()
	logger := p.logger.With(slog.String("routingKey", routingKey), slog.Int64("entityID", evt.EntityID))

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	ch, err := p.ensureChannel()
	if err != nil {
		logger.ErrorContext(ctx, "RabbitMQ channel unavailable", slog.Any("error", err))
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Type:         routingKey,
		Timestamp:    evt.Timestamp,
		AppId:        publisherAppID,
		Body:         body,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish lifecycle event", slog.Any("error", err))
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	logger.DebugContext(ctx, "Published lifecycle event", slog.Int("bytes", len(body)))
	return nil
}

// Close releases the shared channel. The connection is owned by the caller.
func (p *RabbitMQEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}
