package usecase

import (
	"context"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/shopspring/decimal"
)

// Product is the authoritative catalog answer for one product id.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PaymentSession is the handle returned by the payment collaborator for a
// payer-facing checkout flow.
type PaymentSession struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	CancelURL  string `json:"cancelUrl,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
}

// OrderStore is the durable record of orders. Implementations must make
// Insert (order + items) and RecordPayment (status + paid flag + receipt)
// atomic: a concurrent reader never observes a partially written order.
//
// Absent ids are reported with an error matching entity.ErrNotFound.
// RecordPayment on an already-paid order reports entity.ErrConflict and
// must not create a second receipt.
type OrderStore interface {
	Insert(ctx context.Context, o *entity.Order) error
	Get(ctx context.Context, id string) (*entity.Order, error)
	Count(ctx context.Context, status *entity.Status) (int64, error)
	List(ctx context.Context, status *entity.Status, offset, limit int) ([]entity.Order, error)
	// UpdateStatus is last-write-wins: concurrent updates to the same order
	// are not serialized and the later write prevails.
	UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Order, error)
	RecordPayment(ctx context.Context, id, chargeID, receiptURL string, paidAt time.Time) error
}

// ProductValidator resolves product ids against the catalog service. It
// returns every requested id with name and price, or fails the whole call;
// partial results are never returned.
type ProductValidator interface {
	Validate(ctx context.Context, ids []string) ([]Product, error)
}

// PaymentInitiator starts a payer-facing payment flow for a priced order.
type PaymentInitiator interface {
	CreateSession(ctx context.Context, orderID, currency string, items []SessionItem) (*PaymentSession, error)
}

type SessionItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// OrderCache keeps a best-effort copy of order status for cheap reads.
type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

// IdempotencyStore dedupes redelivered bus commands. A failed command must
// Unlock its key so a later redelivery can retry instead of waiting out the
// lock TTL.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// EventPublisher announces lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishCreated(ctx context.Context, msg OrderCreatedMsg) error
}
