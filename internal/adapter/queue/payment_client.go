package queue

import (
	"context"
	"encoding/json"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
)

const createPaymentSessionQueue = "payments.create_session"

// BusPaymentInitiator starts a checkout session through the payments
// service over the bus.
type BusPaymentInitiator struct {
	rpc rpcCaller
}

func NewBusPaymentInitiator(rpc rpcCaller) *BusPaymentInitiator {
	return &BusPaymentInitiator{rpc: rpc}
}

var _ usecase.PaymentInitiator = (*BusPaymentInitiator)(nil)

type createSessionReq struct {
	OrderID  string                `json:"orderId"`
	Currency string                `json:"currency"`
	Items    []usecase.SessionItem `json:"items"`
}

func (p *BusPaymentInitiator) CreateSession(ctx context.Context, orderID, currency string, items []usecase.SessionItem) (*usecase.PaymentSession, error) {
	body, err := p.rpc.Call(ctx, createPaymentSessionQueue, createSessionReq{
		OrderID:  orderID,
		Currency: currency,
		Items:    items,
	})
	if err != nil {
		return nil, entity.Externalf("unable to create payment session")
	}

	var session usecase.PaymentSession
	if err := json.Unmarshal(body, &session); err != nil || session.URL == "" {
		return nil, entity.Externalf("unable to create payment session")
	}
	return &session, nil
}
