package queue

import (
	"context"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
)

// Queues the orders service answers on. Requests are JSON, replies go to
// the delivery's ReplyTo queue.
const (
	CreateOrderQueue  = "orders.create"
	FindAllQueue      = "orders.find_all"
	FindOneQueue      = "orders.find_one"
	ChangeStatusQueue = "orders.change_status"
)

const createScope = "orders.create"

// OrderCommands holds the bus-facing command handlers. Each handler is
// registered through RPCHandler, so returned errors become error envelopes
// on the reply queue.
type OrderCommands struct {
	uc   *usecase.Orders
	idem usecase.IdempotencyStore // optional
}

func NewOrderCommands(uc *usecase.Orders, idem usecase.IdempotencyStore) *OrderCommands {
	return &OrderCommands{uc: uc, idem: idem}
}

type createReply struct {
	Order          usecase.OrderView       `json:"order"`
	PaymentSession *usecase.PaymentSession `json:"paymentSession,omitempty"`
}

// HandleCreate creates the order and opens a payment session for it.
// The bus delivers at-least-once, so commands carrying a requestId are
// deduped: a redelivery answers with the already-created order.
func (h *OrderCommands) HandleCreate(ctx context.Context, cmd usecase.CreateOrderCmd) (any, error) {
	locked := false
	if h.idem != nil && cmd.RequestID != "" {
		if orderID, ok, _ := h.idem.Recall(ctx, createScope, cmd.RequestID); ok {
			existing, err := h.uc.FindOne(ctx, orderID)
			if err != nil {
				return nil, err
			}
			return createReply{Order: usecase.ViewOf(existing)}, nil
		}
		ok, err := h.idem.TryLock(ctx, createScope, cmd.RequestID)
		if err != nil {
			logging.New("orders-bus").Warn("idempotency check failed", "error", err)
		} else if !ok {
			return nil, entity.Conflictf("create request %s already in progress", cmd.RequestID)
		} else {
			locked = true
		}
	}

	order, err := h.uc.Create(ctx, cmd.Items)
	if err != nil {
		// release the key so a redelivery can retry the failed create
		if locked {
			_ = h.idem.Unlock(ctx, createScope, cmd.RequestID)
		}
		return nil, err
	}
	if h.idem != nil && cmd.RequestID != "" {
		_ = h.idem.Remember(ctx, createScope, cmd.RequestID, order.ID)
	}

	session, err := h.uc.InitiatePayment(ctx, order)
	if err != nil {
		// the order exists; the caller can retry payment initiation later
		return nil, err
	}
	return createReply{Order: usecase.ViewOf(order), PaymentSession: session}, nil
}

func (h *OrderCommands) HandleFindAll(ctx context.Context, q usecase.FindAllQuery) (any, error) {
	lq := usecase.ListQuery{Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		st, err := entity.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		lq.Status = &st
	}
	page, err := h.uc.FindAll(ctx, lq)
	if err != nil {
		return nil, err
	}
	return usecase.ViewOfPage(page), nil
}

func (h *OrderCommands) HandleFindOne(ctx context.Context, q usecase.FindOneQuery) (any, error) {
	order, err := h.uc.FindOne(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return usecase.ViewOf(order), nil
}

func (h *OrderCommands) HandleChangeStatus(ctx context.Context, cmd usecase.ChangeStatusCmd) (any, error) {
	st, err := entity.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	order, err := h.uc.ChangeStatus(ctx, cmd.ID, st)
	if err != nil {
		return nil, err
	}
	return usecase.ViewOf(order), nil
}
