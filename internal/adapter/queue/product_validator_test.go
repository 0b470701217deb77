package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	reply []byte
	err   error
	key   string
}

func (f *fakeCaller) Call(_ context.Context, routingKey string, _ any) ([]byte, error) {
	f.key = routingKey
	return f.reply, f.err
}

func TestBusValidatorHappyPath(t *testing.T) {
	c := &fakeCaller{reply: []byte(`[{"id":"p1","name":"Keyboard","price":"49.9"},{"id":"p2","name":"Mouse","price":"19.99"}]`)}
	v := NewBusProductValidator(c)

	products, err := v.Validate(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, validateProductsQueue, c.key)
	require.Len(t, products, 2)
	assert.Equal(t, "Keyboard", products[0].Name)
}

func TestBusValidatorFailuresAreOpaque(t *testing.T) {
	cases := map[string]*fakeCaller{
		"transport error":  {err: errors.New("dial refused")},
		"error envelope":   {reply: []byte(`{"status":400,"message":"some products were not found"}`)},
		"partial result":   {reply: []byte(`[{"id":"p1","name":"Keyboard","price":"49.9"}]`)},
		"negative price":   {reply: []byte(`[{"id":"p1","name":"K","price":"-1"},{"id":"p2","name":"M","price":"1"}]`)},
		"malformed answer": {reply: []byte(`nope`)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v := NewBusProductValidator(c)
			_, err := v.Validate(context.Background(), []string{"p1", "p2"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, entity.ErrExternal))
			assert.Equal(t, "unable to validate products", err.Error())
		})
	}
}

func TestBusPaymentInitiator(t *testing.T) {
	c := &fakeCaller{reply: []byte(`{"sessionId":"cs_1","url":"https://pay.example/cs_1"}`)}
	p := NewBusPaymentInitiator(c)

	session, err := p.CreateSession(context.Background(), "o1", "usd", []usecase.SessionItem{})
	require.NoError(t, err)
	assert.Equal(t, createPaymentSessionQueue, c.key)
	assert.Equal(t, "cs_1", session.SessionID)
}

func TestBusPaymentInitiatorFailure(t *testing.T) {
	p := NewBusPaymentInitiator(&fakeCaller{err: errors.New("down")})
	_, err := p.CreateSession(context.Background(), "o1", "usd", nil)
	assert.True(t, errors.Is(err, entity.ErrExternal))
}
