package queue

import (
	"context"
	"errors"
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
		out = append(out, usecase.Product{ID: id, Name: "stub", Price: decimal.NewFromInt(3)})
	}
	return out, nil
}

type stubPayments struct{}

func (stubPayments) CreateSession(_ context.Context, orderID, _ string, _ []usecase.SessionItem) (*usecase.PaymentSession, error) {
	return &usecase.PaymentSession{SessionID: "cs_" + orderID, URL: "https://pay.example/" + orderID}, nil
}

type memIdem struct {
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Unlock(_ context.Context, scope, key string) error {
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

func newCommands(t *testing.T) (*OrderCommands, *repo.MemOrderStore) {
	t.Helper()
	store := repo.NewMemOrderStore()
	uc := usecase.NewOrders(store, stubValidator{}, stubPayments{})
	return NewOrderCommands(uc, newMemIdem()), store
}

func TestHandleCreate(t *testing.T) {
	h, _ := newCommands(t)

	out, err := h.HandleCreate(context.Background(), usecase.CreateOrderCmd{
		Items: []usecase.OrderItemInput{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	reply, ok := out.(createReply)
	require.True(t, ok)
	assert.Equal(t, "PENDING", reply.Order.Status)
	assert.True(t, reply.Order.TotalAmount.Equal(decimal.NewFromInt(6)))
	require.NotNil(t, reply.PaymentSession)
}

func TestHandleCreateDedupesRedelivery(t *testing.T) {
	h, store := newCommands(t)

	cmd := usecase.CreateOrderCmd{
		RequestID: "req-1",
		Items:     []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
	}
	first, err := h.HandleCreate(context.Background(), cmd)
	require.NoError(t, err)

	second, err := h.HandleCreate(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.(createReply).Order.ID, second.(createReply).Order.ID)
	n, err := store.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// recoveringValidator fails its first call and answers normally afterwards.
type recoveringValidator struct{ calls int }

func (v *recoveringValidator) Validate(ctx context.Context, ids []string) ([]usecase.Product, error) {
	v.calls++
	if v.calls == 1 {
		return nil, errors.New("catalog down")
	}
	return stubValidator{}.Validate(ctx, ids)
}

func TestHandleCreateRedeliveryRetriesAfterFailure(t *testing.T) {
	store := repo.NewMemOrderStore()
	uc := usecase.NewOrders(store, &recoveringValidator{}, stubPayments{})
	h := NewOrderCommands(uc, newMemIdem())

	cmd := usecase.CreateOrderCmd{
		RequestID: "req-1",
		Items:     []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
	}
	_, err := h.HandleCreate(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrExternal))

	// the failed attempt released its key, so the redelivery creates the
	// order instead of reporting the request as in progress
	out, err := h.HandleCreate(context.Background(), cmd)
	require.NoError(t, err)
	reply, ok := out.(createReply)
	require.True(t, ok)
	assert.Equal(t, "PENDING", reply.Order.Status)

	n, err := store.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHandleCreateValidation(t *testing.T) {
	h, _ := newCommands(t)

	_, err := h.HandleCreate(context.Background(), usecase.CreateOrderCmd{})
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestHandleFindAllParsesStatus(t *testing.T) {
	h, _ := newCommands(t)

	_, err := h.HandleFindAll(context.Background(), usecase.FindAllQuery{Status: "SHIPPED"})
	assert.True(t, errors.Is(err, entity.ErrValidation))

	out, err := h.HandleFindAll(context.Background(), usecase.FindAllQuery{Status: "PENDING"})
	require.NoError(t, err)
	page, ok := out.(usecase.PageView)
	require.True(t, ok)
	assert.Empty(t, page.Data)
}

func TestHandleChangeStatus(t *testing.T) {
	h, _ := newCommands(t)

	created, err := h.HandleCreate(context.Background(), usecase.CreateOrderCmd{
		Items: []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	id := created.(createReply).Order.ID

	out, err := h.HandleChangeStatus(context.Background(), usecase.ChangeStatusCmd{ID: id, Status: "DELIVERED"})
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", out.(usecase.OrderView).Status)

	_, err = h.HandleChangeStatus(context.Background(), usecase.ChangeStatusCmd{ID: id, Status: "DELIVERED"})
	assert.True(t, errors.Is(err, entity.ErrConflict))
}

func TestHandleFindOne(t *testing.T) {
	h, _ := newCommands(t)

	_, err := h.HandleFindOne(context.Background(), usecase.FindOneQuery{ID: "ghost"})
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}
