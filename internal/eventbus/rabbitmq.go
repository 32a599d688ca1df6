package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/c3foc/hagrid/internal/config"
	"github.com/c3foc/hagrid/internal/domain"
)

const publishTimeout = 5 * time.Second

// RabbitMQPublisher pushes count and availability events onto a topic
// exchange so downstream displays can react without polling.
type RabbitMQPublisher struct {
	cfg config.Config

	mu            sync.Mutex
	connection    *amqp.Connection
	channel       *amqp.Channel
	notifyConfirm chan amqp.Confirmation
	ready         bool
}

func NewRabbitMQPublisher(cfg config.Config) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{cfg: cfg}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RabbitMQPublisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Info().Str("url", p.cfg.RabbitMQURL).Msg("Connecting to RabbitMQ")
	conn, err := amqp.Dial(p.cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	p.connection = conn

	p.channel, err = conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := p.channel.Confirm(false); err != nil {
		conn.Close()
		return fmt.Errorf("channel could not be put into confirm mode: %w", err)
	}
	p.notifyConfirm = make(chan amqp.Confirmation, 1)
	p.channel.NotifyPublish(p.notifyConfirm)

	err = p.channel.ExchangeDeclare(
		p.cfg.ExchangeName, // name
		p.cfg.ExchangeType, // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.cfg.ExchangeName, err)
	}

	p.ready = true
	log.Info().Str("exchange", p.cfg.ExchangeName).Msg("RabbitMQ publisher ready")
	return nil
}

type countRecordedMessage struct {
	VariationID string    `json:"variation_id"`
	At          time.Time `json:"at"`
	Count       int       `json:"count"`
	Name        string    `json:"name,omitempty"`
}

type availabilityChangedMessage struct {
	VariationID string    `json:"variation_id"`
	At          time.Time `json:"at"`
	OldState    string    `json:"old_state"`
	NewState    string    `json:"new_state"`
}

func (p *RabbitMQPublisher) CountRecorded(ctx context.Context, event domain.CountEvent) error {
	return p.publish(ctx, p.cfg.CountRoutingKey, countRecordedMessage{
		VariationID: event.VariationID,
		At:          event.At,
		Count:       event.Count,
		Name:        event.Name,
	})
}

func (p *RabbitMQPublisher) AvailabilityChanged(ctx context.Context, event domain.AvailabilityEvent) error {
	return p.publish(ctx, p.cfg.AvailRoutingKey, availabilityChangedMessage{
		VariationID: event.VariationID,
		At:          event.At,
		OldState:    string(event.OldState),
		NewState:    string(event.NewState),
	})
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		return errors.New("publisher not ready")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.ExchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case confirm := <-p.notifyConfirm:
		if confirm.Ack {
			log.Debug().Str("routing_key", routingKey).Msg("Message published and confirmed")
			return nil
		}
		return errors.New("message published but not confirmed")
	case <-time.After(publishTimeout):
		return errors.New("publish confirmation timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *RabbitMQPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = false
	if p.connection != nil && !p.connection.IsClosed() {
		p.connection.Close()
	}
}
