package usecase

import (
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/shopspring/decimal"
)

// Bus command and event payloads. Field names follow the wire contract of
// the surrounding services (camelCase JSON).

type OrderItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type CreateOrderCmd struct {
	// RequestID dedupes redelivered commands when the sender sets it.
	RequestID string           `json:"requestId,omitempty"`
	Items     []OrderItemInput `json:"items"`
}

type FindAllQuery struct {
	Status string `json:"status,omitempty"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type FindOneQuery struct {
	ID string `json:"id"`
}

type ChangeStatusCmd struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Published on the order.events exchange after a successful create.
type OrderCreatedMsg struct {
	OrderID     string          `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalItems  int64           `json:"totalItems"`
	Status      string          `json:"status"`
}

// Sent by the payments service on Kafka when a charge succeeds.
type PaymentSucceededMsg struct {
	OrderID         string `json:"orderId"`
	StripePaymentID string `json:"stripePaymentId"`
	ReceiptURL      string `json:"receiptUrl"`
}

// OrderView is the wire shape of an order, shared by the HTTP and bus
// surfaces.
type OrderView struct {
	ID             string          `json:"id"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalItems     int64           `json:"totalItems"`
	Status         string          `json:"status"`
	Paid           bool            `json:"paid"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	StripeChargeID string          `json:"stripeChargeId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Items          []OrderItemView `json:"items"`
	Receipt        *ReceiptView    `json:"receipt,omitempty"`
}

type OrderItemView struct {
	ProductID string          `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
}

type ReceiptView struct {
	ReceiptURL string `json:"receiptUrl"`
}

type PageView struct {
	Data []OrderView `json:"data"`
	Meta PageMeta    `json:"meta"`
}

func ViewOf(o *entity.Order) OrderView {
	v := OrderView{
		ID:             o.ID,
		TotalAmount:    o.TotalAmount,
		TotalItems:     o.TotalItems,
		Status:         string(o.Status),
		Paid:           o.Paid,
		PaidAt:         o.PaidAt,
		StripeChargeID: o.StripeChargeID,
		CreatedAt:      o.CreatedAt,
		Items:          make([]OrderItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Name:      it.Name,
		})
	}
	if o.Receipt != nil {
		v.Receipt = &ReceiptView{ReceiptURL: o.Receipt.ReceiptURL}
	}
	return v
}

func ViewOfPage(p *OrderPage) PageView {
	out := PageView{Data: make([]OrderView, 0, len(p.Data)), Meta: p.Meta}
	for i := range p.Data {
		out.Data = append(out.Data, ViewOf(&p.Data[i]))
	}
	return out
}
