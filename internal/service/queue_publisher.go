package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/queue"
)

// EventPublisher announces committed catalog changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// NopPublisher drops every event. Used when EVENTS_ENABLED is false and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.CatalogEvent) error { return nil }

// AMQPPublisher publishes events to the catalog.changed queue. It dials per
// publish so the API keeps working while the broker is down.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log.Named("publisher")}
}

// Publish sends ev as a persistent JSON message. Errors are logged and
// returned so the caller can choose to ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.CatalogEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.CatalogQueueName, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.CatalogQueueName, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.Error(err), zap.String("event_id", ev.ID))
		return err
	}
	return nil
}

// notify publishes ev after a mutation has been committed. A broker
// failure never fails the request.
func notify(ctx context.Context, pub EventPublisher, log *zap.Logger, ev queue.CatalogEvent) {
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("catalog event not published",
			zap.String("entity", ev.Entity),
			zap.String("action", ev.Action),
			zap.Uint64("entity_id", ev.EntityID),
			zap.Error(err))
	}
}
