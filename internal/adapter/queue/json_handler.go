package queue

import (
	"context"
	"encoding/json"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// JSONHandler adapts a typed function into a raw Delivery handler.
// It unmarshals d.Body into T and calls HandleFunc(ctx, T).
type JSONHandler[T any] struct {
	HandleFunc func(ctx context.Context, msg T) error
}

func (h JSONHandler[T]) Handle(ctx context.Context, d amqp.Delivery) error {
	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		return err
	}
	return h.HandleFunc(ctx, v)
}

// rpcError is the error envelope published on the reply queue. Successful
// calls reply with the raw result payload instead.
type rpcError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// RPCHandler adapts a typed request/reply function into a Delivery handler.
// The result (or an error envelope derived from the error kind) is
// published to d.ReplyTo with the delivery's correlation id. Handler errors
// are answered, not nacked: requeueing a failed RPC would only make the
// caller time out twice.
type RPCHandler[T any] struct {
	Ch         *amqp.Channel
	HandleFunc func(ctx context.Context, msg T) (any, error)
}

func (h RPCHandler[T]) Handle(ctx context.Context, d amqp.Delivery) error {
	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		return h.reply(ctx, d, nil, entity.Invalidf("malformed payload: %v", err))
	}
	out, err := h.HandleFunc(ctx, v)
	return h.reply(ctx, d, out, err)
}

func (h RPCHandler[T]) reply(ctx context.Context, d amqp.Delivery, out any, herr error) error {
	if d.ReplyTo == "" {
		// fire-and-forget delivery; let the router decide on ack/nack
		return herr
	}

	var body []byte
	var err error
	if herr != nil {
		body, err = json.Marshal(rpcError{Status: entity.StatusCode(herr), Message: herr.Error()})
	} else {
		body, err = json.Marshal(out)
	}
	if err != nil {
		logging.New("rmq-rpc").Error("marshal reply failed", "error", err)
		return err
	}

	return h.Ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
}
