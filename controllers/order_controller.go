package controllers

import (
	"errors"
	"net/http"

	"shop-service/middleware"
	"shop-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderController struct {
	svc    services.OrderService
	logger *zap.Logger
}

func NewOrderController(svc services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{svc: svc, logger: logger}
}

func identityFrom(c *gin.Context) services.Identity {
	return services.Identity{
		UserID: middleware.GetUserID(c),
		Email:  middleware.GetEmail(c),
		Role:   middleware.GetRole(c),
	}
}

// respondServiceError maps a service-layer error onto the HTTP response.
func respondServiceError(c *gin.Context, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// CreateOrder handles order creation requests.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := oc.svc.CreateOrder(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetOrders returns the authenticated user's orders, newest first.
func (oc *OrderController) GetOrders(c *gin.Context) {
	orders, err := oc.svc.ListUserOrders(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetAllOrders returns every order (admin only).
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.svc.ListAllOrders(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderByID returns a single order for its owner or an admin.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.svc.GetOrder(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder removes an order.
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	if err := oc.svc.DeleteOrder(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// UpdatePaymentStatus is the manual mark-paid endpoint; admins may also set
// any other status as an explicit override.
func (oc *OrderController) UpdatePaymentStatus(c *gin.Context) {
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	// An empty body defaults to marking the order paid.
	_ = c.ShouldBindJSON(&req)
	if req.PaymentStatus == "" {
		req.PaymentStatus = "paid"
	}

	if err := oc.svc.UpdatePaymentStatus(c.Request.Context(), identityFrom(c), c.Param("id"), req.PaymentStatus); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}

// MarkShipped stamps the shipped state and carrier tracking number (admin only).
func (oc *OrderController) MarkShipped(c *gin.Context) {
	var req struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tracking number is required"})
		return
	}

	if err := oc.svc.MarkShipped(c.Request.Context(), identityFrom(c), c.Param("id"), req.TrackingNumber); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shipping status updated"})
}
