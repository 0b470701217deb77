package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/http/middleware"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/repo"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, ids []string) ([]usecase.Product, error) {
	out := make([]usecase.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, usecase.Product{ID: id, Name: "Widget " + id, Price: decimal.RequireFromString("2.50")})
	}
	return out, nil
}

type stubPayments struct{}

func (stubPayments) CreateSession(_ context.Context, orderID, _ string, _ []usecase.SessionItem) (*usecase.PaymentSession, error) {
	return &usecase.PaymentSession{SessionID: "cs_" + orderID, URL: "https://pay.example/" + orderID}, nil
}

func testRouter(t *testing.T) (*gin.Engine, *usecase.Orders) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uc := usecase.NewOrders(repo.NewMemOrderStore(), stubValidator{}, stubPayments{})
	h := NewOrderHandler(uc)

	r := gin.New()
	r.Use(middleware.MetricsMiddleware())
	r.POST("/v1/orders", h.CreateOrder)
	r.GET("/v1/orders", h.ListOrders)
	r.GET("/v1/orders/:id", h.GetOrderByID)
	r.PATCH("/v1/orders/:id/status", h.ChangeStatus)
	return r, uc
}

func TestCreateOrderEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	body := `{"items":[{"productId":"p1","quantity":2},{"productId":"p2","quantity":1}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order          usecase.OrderView       `json:"order"`
		PaymentSession *usecase.PaymentSession `json:"paymentSession"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING", resp.Order.Status)
	assert.Equal(t, int64(3), resp.Order.TotalItems)
	assert.True(t, resp.Order.TotalAmount.Equal(decimal.RequireFromString("7.50")))
	require.NotNil(t, resp.PaymentSession)
	assert.NotEmpty(t, resp.PaymentSession.URL)
}

func TestCreateOrderEndpointRejectsEmptyItems(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/does-not-exist", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangeStatusEndpointConflict(t *testing.T) {
	r, uc := testRouter(t)

	order, err := uc.Create(context.Background(), []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/v1/orders/"+order.ID+"/status", strings.NewReader(`{"status":"PENDING"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListOrdersEndpointValidation(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders?page=0", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/orders?status=SHIPPED", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	r, uc := testRouter(t)

	for i := 0; i < 3; i++ {
		_, err := uc.Create(context.Background(), []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders?page=1&limit=2", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var page usecase.PageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.Equal(t, int64(2), page.Meta.LastPage)
}
