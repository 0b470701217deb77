package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus maps a wire-level status string onto a known Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", Invalidf("unknown order status %q", s)
}

type Order struct {
	ID             string
	TotalAmount    decimal.Decimal
	TotalItems     int64
	Status         Status
	Paid           bool
	PaidAt         *time.Time
	StripeChargeID string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items   []OrderItem
	Receipt *OrderReceipt
}

// OrderItem snapshots a product's price at order time. Name is display-time
// enrichment resolved from the product service on every read; it is never
// persisted.
type OrderItem struct {
	ProductID string
	Quantity  int64
	Price     decimal.Decimal
	Name      string
}

type OrderReceipt struct {
	ReceiptURL string
	CreatedAt  time.Time
}
