package kafka

import (
	"context"
	"testing"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/repo"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, ids []string) ([]usecase.Product, error) {
	out := make([]usecase.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, usecase.Product{ID: id, Name: "stub", Price: decimal.NewFromInt(5)})
	}
	return out, nil
}

type stubPayments struct{}

func (stubPayments) CreateSession(context.Context, string, string, []usecase.SessionItem) (*usecase.PaymentSession, error) {
	return &usecase.PaymentSession{SessionID: "cs", URL: "https://pay"}, nil
}

func TestPaymentSucceededHandler(t *testing.T) {
	store := repo.NewMemOrderStore()
	uc := usecase.NewOrders(store, stubValidator{}, stubPayments{})
	h := NewPaymentSucceededHandler(uc)

	order, err := uc.Create(context.Background(), []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	ev := usecase.PaymentSucceededMsg{
		OrderID:         order.ID,
		StripePaymentID: "ch_1",
		ReceiptURL:      "https://pay.example/r/1",
	}
	require.NoError(t, h.Handle(context.Background(), ev))

	read, err := uc.FindOne(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, read.Paid)
	assert.Equal(t, entity.StatusPaid, read.Status)
	require.NotNil(t, read.Receipt)
	assert.Equal(t, "https://pay.example/r/1", read.Receipt.ReceiptURL)
}

func TestPaymentSucceededHandlerDuplicateIsAcked(t *testing.T) {
	store := repo.NewMemOrderStore()
	uc := usecase.NewOrders(store, stubValidator{}, stubPayments{})
	h := NewPaymentSucceededHandler(uc)

	order, err := uc.Create(context.Background(), []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	ev := usecase.PaymentSucceededMsg{OrderID: order.ID, StripePaymentID: "ch_1", ReceiptURL: "u"}
	require.NoError(t, h.Handle(context.Background(), ev))
	// a redelivery must not fail the claim or write a second receipt
	assert.NoError(t, h.Handle(context.Background(), ev))

	read, err := uc.FindOne(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", read.StripeChargeID)
}

func TestPaymentSucceededHandlerUnknownOrderIsDropped(t *testing.T) {
	uc := usecase.NewOrders(repo.NewMemOrderStore(), stubValidator{}, stubPayments{})
	h := NewPaymentSucceededHandler(uc)

	ev := usecase.PaymentSucceededMsg{OrderID: "ghost", StripePaymentID: "ch", ReceiptURL: "u"}
	assert.NoError(t, h.Handle(context.Background(), ev))
}
