package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
)

// MemOrderStore is an in-memory OrderStore with the same error semantics as
// the MySQL one. Used by tests and local runs without a database. All
// operations take the mutex, so multi-field updates are atomic to readers.
type MemOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*entity.Order
	seq    int64
	seqOf  map[string]int64
}

func NewMemOrderStore() *MemOrderStore {
	return &MemOrderStore{
		orders: make(map[string]*entity.Order),
		seqOf:  make(map[string]int64),
	}
}

var _ usecase.OrderStore = (*MemOrderStore)(nil)

func (s *MemOrderStore) Insert(_ context.Context, o *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneOrder(o)
	// names are display-time enrichment, never part of the stored record
	for i := range cp.Items {
		cp.Items[i].Name = ""
	}
	s.orders[o.ID] = &cp
	s.seq++
	s.seqOf[o.ID] = s.seq
	return nil
}

func (s *MemOrderStore) Get(_ context.Context, id string) (*entity.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, entity.NotFoundf("order %s not found", id)
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (s *MemOrderStore) Count(_ context.Context, status *entity.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, o := range s.orders {
		if status == nil || o.Status == *status {
			n++
		}
	}
	return n, nil
}

func (s *MemOrderStore) List(_ context.Context, status *entity.Status, offset, limit int) ([]entity.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*entity.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status == nil || o.Status == *status {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return s.seqOf[matched[i].ID] < s.seqOf[matched[j].ID]
	})

	out := []entity.Order{}
	for i := offset; i < len(matched) && len(out) < limit; i++ {
		out = append(out, cloneOrder(matched[i]))
	}
	return out, nil
}

func (s *MemOrderStore) UpdateStatus(_ context.Context, id string, status entity.Status) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, entity.NotFoundf("order %s not found", id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	cp := cloneOrder(o)
	return &cp, nil
}

func (s *MemOrderStore) RecordPayment(_ context.Context, id, chargeID, receiptURL string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return entity.NotFoundf("order %s not found", id)
	}
	if o.Paid {
		return entity.Conflictf("order %s is already paid", id)
	}
	o.Status = entity.StatusPaid
	o.Paid = true
	t := paidAt
	o.PaidAt = &t
	o.StripeChargeID = chargeID
	o.UpdatedAt = paidAt
	o.Receipt = &entity.OrderReceipt{ReceiptURL: receiptURL, CreatedAt: paidAt}
	return nil
}

func cloneOrder(o *entity.Order) entity.Order {
	cp := *o
	cp.Items = make([]entity.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	if o.Receipt != nil {
		r := *o.Receipt
		cp.Receipt = &r
	}
	return cp
}
