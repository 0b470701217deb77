package kafka

import (
	"context"
	"errors"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
)

// PaymentSucceededHandler reconciles payment confirmations from the
// payments service into the order lifecycle.
type PaymentSucceededHandler struct {
	uc *usecase.Orders
}

func NewPaymentSucceededHandler(uc *usecase.Orders) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{uc: uc}
}

// Handle applies the confirmation. The topic delivers at-least-once, so a
// conflict (order already paid) counts as success and the offset is marked;
// an unknown order is poison and is dropped after logging. Anything else is
// left unmarked for redelivery.
func (h *PaymentSucceededHandler) Handle(ctx context.Context, ev usecase.PaymentSucceededMsg) error {
	err := h.uc.ConfirmPayment(ctx, ev.OrderID, ev.StripePaymentID, ev.ReceiptURL)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrConflict):
		logging.New("payments").Info("duplicate payment confirmation ignored", "order_id", ev.OrderID)
		return nil
	case errors.Is(err, entity.ErrNotFound):
		logging.New("payments").Error("payment for unknown order dropped", "order_id", ev.OrderID)
		return nil
	default:
		return err
	}
}
