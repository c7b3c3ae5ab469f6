package controllers

import (
	"net/http"

	"shop-service/middleware"
	"shop-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	svc    services.OrderService
	logger *zap.Logger
}

func NewPaymentController(svc services.OrderService, logger *zap.Logger) *PaymentController {
	return &PaymentController{svc: svc, logger: logger}
}

// CreatePayment creates a provider payment intent (QR code) for an order.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	resp, err := pc.svc.CreatePaymentIntent(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// webhookPayload is the provider's notification body. Only the two fields the
// system acts on are modeled.
type webhookPayload struct {
	State           string `json:"state"`
	MerchantOrderID string `json:"merchant_order_id"`
}

// Webhook receives provider payment notifications. It always acks with 200
// once processing was attempted: the provider retries on non-2xx, and a
// permanently-unresolvable reference must not cause a retry storm.
func (pc *PaymentController) Webhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		pc.logger.Warn("Webhook with unparseable body", zap.Error(err))
		middleware.RecordPaymentWebhook("unparseable")
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	pc.logger.Info("Payment webhook received",
		zap.String("state", payload.State),
		zap.String("merchant_order_id", payload.MerchantOrderID),
	)
	middleware.RecordPaymentWebhook(payload.State)

	pc.svc.HandlePaymentWebhook(c.Request.Context(), payload.State, payload.MerchantOrderID)

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
