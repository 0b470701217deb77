package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/entity"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	uc *usecase.Orders
}

func NewOrderHandler(uc *usecase.Orders) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type createOrderReq struct {
	Items []struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
}

type createOrderResp struct {
	Order          usecase.OrderView       `json:"order"`
	PaymentSession *usecase.PaymentSession `json:"paymentSession,omitempty"`
}

// CreateOrder creates the order and opens a payment session for it.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	items := make([]usecase.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.uc.Create(ctx, items)
	if err != nil {
		fail(c, err)
		return
	}
	session, err := h.uc.InitiatePayment(ctx, order)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, createOrderResp{
		Order:          usecase.ViewOf(order),
		PaymentSession: session,
	})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.uc.FindOne(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, usecase.ViewOf(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	q := usecase.ListQuery{}
	if s := c.Query("status"); s != "" {
		st, err := entity.ParseStatus(s)
		if err != nil {
			fail(c, err)
			return
		}
		q.Status = &st
	}
	var err error
	if q.Page, err = intQuery(c, "page"); err != nil {
		fail(c, err)
		return
	}
	if q.Limit, err = intQuery(c, "limit"); err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, err := h.uc.FindAll(ctx, q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, usecase.ViewOfPage(page))
}

type changeStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	st, err := entity.ParseStatus(req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.uc.ChangeStatus(ctx, c.Param("id"), st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, usecase.ViewOf(order))
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, entity.Invalidf("%s must be a positive integer", name)
	}
	return n, nil
}

func fail(c *gin.Context, err error) {
	c.JSON(entity.StatusCode(err), gin.H{"error": err.Error()})
}
