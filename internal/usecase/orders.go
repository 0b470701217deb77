package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Orders drives the order lifecycle: create (validate, price, persist),
// status transitions, payment confirmation and payment-session initiation.
type Orders struct {
	store     OrderStore
	validator ProductValidator
	payments  PaymentInitiator
	cache     OrderCache     // optional, best-effort
	events    EventPublisher // optional
	currency  string
	now       func() time.Time
	log       *slog.Logger
}

type OrdersOption func(*Orders)

// WithCache enables best-effort status caching.
func WithCache(c OrderCache) OrdersOption { return func(o *Orders) { o.cache = c } }

// WithEvents publishes order.created events after successful creates.
func WithEvents(p EventPublisher) OrdersOption { return func(o *Orders) { o.events = p } }

// WithCurrency overrides the currency passed to the payment collaborator.
func WithCurrency(cur string) OrdersOption { return func(o *Orders) { o.currency = cur } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) OrdersOption { return func(o *Orders) { o.now = now } }

func NewOrders(store OrderStore, validator ProductValidator, payments PaymentInitiator, opts ...OrdersOption) *Orders {
	o := &Orders{
		store:     store,
		validator: validator,
		payments:  payments,
		currency:  "usd",
		now:       time.Now,
		log:       logging.New("orders"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create validates the requested items against the catalog, prices them and
// persists the order with its items in one transaction. The returned order
// carries validator-resolved item names.
func (u *Orders) Create(ctx context.Context, items []OrderItemInput) (*entity.Order, error) {
	if len(items) == 0 {
		return nil, entity.Invalidf("order must contain at least one item")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return nil, entity.Invalidf("item product id is required")
		}
		if it.Quantity <= 0 {
			return nil, entity.Invalidf("item quantity must be positive, got %d", it.Quantity)
		}
	}

	products, err := u.validator.Validate(ctx, distinctProductIDs(items))
	if err != nil {
		u.log.Warn("product validation failed", "error", err)
		return nil, entity.Externalf("unable to validate products")
	}

	priced, err := PriceItems(items, products)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	order := &entity.Order{
		ID:          uuid.NewString(),
		TotalAmount: priced.TotalAmount,
		TotalItems:  priced.TotalItems,
		Status:      entity.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       priced.Items,
	}
	if err := u.store.Insert(ctx, order); err != nil {
		u.log.Error("order insert failed", "error", err)
		return nil, entity.Internalf("unable to persist order")
	}

	if u.cache != nil {
		_ = u.cache.SetStatus(ctx, order.ID, string(order.Status))
	}
	if u.events != nil {
		if err := u.events.PublishCreated(ctx, OrderCreatedMsg{
			OrderID:     order.ID,
			TotalAmount: order.TotalAmount,
			TotalItems:  order.TotalItems,
			Status:      string(order.Status),
		}); err != nil {
			u.log.Warn("order.created publish failed", "order_id", order.ID, "error", err)
		}
	}

	u.log.Info("order created", "order_id", order.ID, "total_items", order.TotalItems)
	return order, nil
}

// FindOne loads an order and re-resolves item names from the catalog.
// Names are display-time enrichment: when the catalog can no longer resolve
// a historical product id the order is still returned, with empty names for
// the unresolved items, and the failure is only logged.
func (u *Orders) FindOne(ctx context.Context, id string) (*entity.Order, error) {
	order, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.enrich(ctx, order)
	return order, nil
}

type ListQuery struct {
	Status *entity.Status
	Page   int
	Limit  int
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int64 `json:"lastPage"`
}

type OrderPage struct {
	Data []entity.Order `json:"data"`
	Meta PageMeta       `json:"meta"`
}

// FindAll returns one page of orders matching the optional status filter,
// ordered by creation. Pages past the end yield empty data, not an error.
func (u *Orders) FindAll(ctx context.Context, q ListQuery) (*OrderPage, error) {
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Page < 0 {
		return nil, entity.Invalidf("page must be positive, got %d", q.Page)
	}
	if q.Limit < 0 {
		return nil, entity.Invalidf("limit must be positive, got %d", q.Limit)
	}

	total, err := u.store.Count(ctx, q.Status)
	if err != nil {
		return nil, entity.Internalf("unable to count orders")
	}
	data, err := u.store.List(ctx, q.Status, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, entity.Internalf("unable to list orders")
	}
	return &OrderPage{
		Data: data,
		Meta: PageMeta{
			Total:    total,
			Page:     q.Page,
			LastPage: int64(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}, nil
}

// ChangeStatus moves an order to a new status. A no-op transition is
// rejected with a conflict so callers must know the current state. No other
// transition matrix is enforced; beyond the no-op check every move is
// currently permitted.
func (u *Orders) ChangeStatus(ctx context.Context, id string, status entity.Status) (*entity.Order, error) {
	// cached status answers the no-op check without a store round trip;
	// the cache only ever holds statuses this service wrote
	if u.cache != nil {
		if cached, ok, err := u.cache.GetStatus(ctx, id); err == nil && ok && cached == string(status) {
			return nil, entity.Conflictf("order %s is already %s", id, status)
		}
	}
	order, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return nil, entity.Conflictf("order %s is already %s", id, status)
	}
	updated, err := u.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		_ = u.cache.SetStatus(ctx, id, string(status))
	}
	u.log.Info("order status changed", "order_id", id, "from", order.Status, "to", status)
	return updated, nil
}

// ConfirmPayment marks the order paid and records the receipt, atomically.
// A second confirmation for the same order is rejected with a conflict and
// never produces a second receipt.
func (u *Orders) ConfirmPayment(ctx context.Context, id, chargeID, receiptURL string) error {
	if err := u.store.RecordPayment(ctx, id, chargeID, receiptURL, u.now().UTC()); err != nil {
		return err
	}
	if u.cache != nil {
		_ = u.cache.SetStatus(ctx, id, string(entity.StatusPaid))
	}
	u.log.Info("order paid", "order_id", id)
	return nil
}

// InitiatePayment asks the payment collaborator for a checkout session for
// the given order. Pure delegation; failures surface unchanged in kind.
func (u *Orders) InitiatePayment(ctx context.Context, order *entity.Order) (*PaymentSession, error) {
	items := make([]SessionItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, SessionItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	session, err := u.payments.CreateSession(ctx, order.ID, u.currency, items)
	if err != nil {
		u.log.Warn("payment session failed", "order_id", order.ID, "error", err)
		return nil, entity.Externalf("unable to create payment session")
	}
	return session, nil
}

// enrich resolves item names from the catalog, degrading to empty names
// when the catalog cannot answer.
func (u *Orders) enrich(ctx context.Context, order *entity.Order) {
	if len(order.Items) == 0 {
		return
	}
	ids := make([]string, 0, len(order.Items))
	seen := make(map[string]struct{}, len(order.Items))
	for _, it := range order.Items {
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	products, err := u.validator.Validate(ctx, ids)
	if err != nil {
		u.log.Warn("enrichment skipped, product validation failed", "order_id", order.ID, "error", err)
		return
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range order.Items {
		order.Items[i].Name = names[order.Items[i].ProductID]
	}
}

func distinctProductIDs(items []OrderItemInput) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
