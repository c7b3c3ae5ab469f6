package controllers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-service/controllers"
	"shop-service/middleware"
	"shop-service/models"
	"shop-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// ---- stub service ----

type stubOrderService struct {
	webhookState      string
	webhookMerchantID string
	webhookCalls      int

	intentResp *services.PaymentIntentResponse
	intentErr  error

	order    *models.Order
	orderErr error

	lastPaymentStatus  string
	lastTrackingNumber string
}

func (s *stubOrderService) CreateOrder(_ context.Context, _ services.Identity, _ *services.CreateOrderRequest) (*models.Order, error) {
	return s.order, s.orderErr
}
func (s *stubOrderService) GetOrder(_ context.Context, _ services.Identity, _ string) (*models.Order, error) {
	return s.order, s.orderErr
}
func (s *stubOrderService) ListUserOrders(_ context.Context, _ services.Identity) ([]models.Order, error) {
	return nil, s.orderErr
}
func (s *stubOrderService) ListAllOrders(_ context.Context, _ services.Identity) ([]models.Order, error) {
	return nil, s.orderErr
}
func (s *stubOrderService) DeleteOrder(_ context.Context, _ services.Identity, _ string) error {
	return s.orderErr
}
func (s *stubOrderService) CreatePaymentIntent(_ context.Context, _ services.Identity, _ string) (*services.PaymentIntentResponse, error) {
	return s.intentResp, s.intentErr
}
func (s *stubOrderService) UpdatePaymentStatus(_ context.Context, _ services.Identity, _, status string) error {
	s.lastPaymentStatus = status
	return s.orderErr
}
func (s *stubOrderService) MarkShipped(_ context.Context, _ services.Identity, _, trackingNumber string) error {
	s.lastTrackingNumber = trackingNumber
	return s.orderErr
}
func (s *stubOrderService) HandlePaymentWebhook(_ context.Context, state, merchantOrderID string) {
	s.webhookCalls++
	s.webhookState = state
	s.webhookMerchantID = merchantOrderID
}

// fakeIdentity mounts request identity without going through JWT parsing.
func fakeIdentity(uid, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, uid)
		c.Set(middleware.RoleContextKey, role)
		c.Next()
	}
}

func setupPaymentRouter(svc services.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pc := controllers.NewPaymentController(svc, zap.NewNop())
	r.POST("/webhook/paypay", pc.Webhook)
	r.POST("/api/orders/:id/payment-create", fakeIdentity("user-1", "user"), pc.CreatePayment)
	return r
}

func TestWebhook_CompletedAlwaysAcked(t *testing.T) {
	svc := &stubOrderService{}
	r := setupPaymentRouter(svc)

	body := []byte(`{"state":"COMPLETED","merchant_order_id":"abc123-1744127147253"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/paypay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.webhookCalls)
	assert.Equal(t, "COMPLETED", svc.webhookState)
	assert.Equal(t, "abc123-1744127147253", svc.webhookMerchantID)
}

func TestWebhook_UnparseableBodyStillAcked(t *testing.T) {
	svc := &stubOrderService{}
	r := setupPaymentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/webhook/paypay", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// The provider must never be told to retry.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.webhookCalls)
}

func TestWebhook_NonCompletedStateAcked(t *testing.T) {
	svc := &stubOrderService{}
	r := setupPaymentRouter(svc)

	body := []byte(`{"state":"FAILED","merchant_order_id":"abc123-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/paypay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// State filtering is the service's call; the controller forwards everything.
	assert.Equal(t, 1, svc.webhookCalls)
	assert.Equal(t, "FAILED", svc.webhookState)
}

func TestCreatePayment_Success(t *testing.T) {
	svc := &stubOrderService{
		intentResp: &services.PaymentIntentResponse{QRCodeURL: "https://qr.example/1", PaymentID: "code-1"},
	}
	r := setupPaymentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/abc123/payment-create", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://qr.example/1")
	assert.Contains(t, w.Body.String(), "code-1")
}

func TestCreatePayment_ServiceErrorMapped(t *testing.T) {
	svc := &stubOrderService{
		intentErr: &services.ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to create payment"},
	}
	r := setupPaymentRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/abc123/payment-create", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to create payment")
}
