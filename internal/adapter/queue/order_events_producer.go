package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventsExchange    = "order.events"
	createdRoutingKey = "order.created"
	createdQueueName  = "order.created.q"
)

// publishChannel is the slice of *amqp.Channel the producer needs.
type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// OrderEventsProducer publishes lifecycle events to the order.events
// exchange and waits for the broker's publisher confirm before reporting
// success. Implements usecase.EventPublisher.
type OrderEventsProducer struct {
	ch       publishChannel
	mu       sync.Mutex // one outstanding publish, so confirms pair up
	confirms chan amqp.Confirmation
}

var _ usecase.EventPublisher = (*OrderEventsProducer)(nil)

// NewOrderEventsProducer sets up the exchange, queue, binding and confirm
// mode once at startup.
func NewOrderEventsProducer(ch publishChannel) (*OrderEventsProducer, error) {
	if err := ch.ExchangeDeclare(
		eventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		createdQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, createdRoutingKey, eventsExchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &OrderEventsProducer{
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

// PublishCreated sends an "order.created" event to the exchange and blocks
// until the broker confirms it.
func (p *OrderEventsProducer) PublishCreated(ctx context.Context, msg usecase.OrderCreatedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, eventsExchange, createdRoutingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	select {
	case conf, open := <-p.confirms:
		if !open {
			return fmt.Errorf("publish order.created: confirm channel closed")
		}
		if !conf.Ack {
			return fmt.Errorf("publish order.created: broker nacked delivery %d", conf.DeliveryTag)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish order.created: %w", ctx.Err())
	}
}
