package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RPCClient does request/reply over the default exchange: publish to a
// well-known queue with ReplyTo pointing at an anonymous exclusive queue,
// then wait for the correlated reply. One attempt, bounded by the timeout;
// no retries.
type RPCClient struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewRPCClient(ch *amqp.Channel, timeout time.Duration) *RPCClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RPCClient{ch: ch, timeout: timeout}
}

// Call publishes req as JSON to routingKey and returns the raw reply body.
func (c *RPCClient) Call(ctx context.Context, routingKey string, req any) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// anonymous exclusive queue, auto-deleted when the consumer goes away
	replyQ, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare reply queue: %w", err)
	}

	corrID := uuid.NewString()
	deliveries, err := c.ch.Consume(replyQ.Name, corrID, true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume reply queue: %w", err)
	}
	defer func() { _ = c.ch.Cancel(corrID, false) }()

	if err := c.ch.PublishWithContext(ctx, "", routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: corrID,
		ReplyTo:       replyQ.Name,
		Body:          body,
	}); err != nil {
		return nil, fmt.Errorf("publish request: %w", err)
	}

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil, fmt.Errorf("reply channel closed")
			}
			if d.CorrelationId != corrID {
				continue
			}
			return d.Body, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
