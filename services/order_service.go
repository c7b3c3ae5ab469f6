package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shop-service/models"
	"shop-service/providers"
	"shop-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Identity is the authenticated caller, extracted from the bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

// EventPublisher is the broadcaster seam: the service only ever publishes.
type EventPublisher interface {
	Publish(evt models.Event)
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Price     int    `json:"price" binding:"min=0"`
}

type CreateOrderRequest struct {
	Items       []OrderItemRequest `json:"items" binding:"required,dive"`
	TotalAmount int                `json:"total_amount" binding:"required,min=1"`
	Address     string             `json:"address" binding:"required"`
	Phone       string             `json:"phone" binding:"required"`
}

type PaymentIntentResponse struct {
	QRCodeURL string `json:"qr_code_url"`
	PaymentID string `json:"payment_id"`
}

// OrderService owns the order-payment state machine. Payment state moves
// unpaid -> intent_created -> paid; the webhook and the manual mark-paid path
// both funnel into the repository's conditional update so concurrent
// deliveries resolve to a single transition.
type OrderService interface {
	CreateOrder(ctx context.Context, ident Identity, req *CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, ident Identity, orderID string) (*models.Order, error)
	ListUserOrders(ctx context.Context, ident Identity) ([]models.Order, error)
	ListAllOrders(ctx context.Context, ident Identity) ([]models.Order, error)
	DeleteOrder(ctx context.Context, ident Identity, orderID string) error
	CreatePaymentIntent(ctx context.Context, ident Identity, orderID string) (*PaymentIntentResponse, error)
	UpdatePaymentStatus(ctx context.Context, ident Identity, orderID, status string) error
	MarkShipped(ctx context.Context, ident Identity, orderID, trackingNumber string) error
	HandlePaymentWebhook(ctx context.Context, state, merchantOrderID string)
}

type orderService struct {
	orders      repository.OrderRepository
	provider    providers.PaymentProvider
	publisher   EventPublisher
	redirectURL string
	logger      *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, provider providers.PaymentProvider, publisher EventPublisher, redirectURL string, logger *zap.Logger) OrderService {
	return &orderService{
		orders:      orders,
		provider:    provider,
		publisher:   publisher,
		redirectURL: redirectURL,
		logger:      logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, ident Identity, req *CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "At least one item is required"}
	}

	order := &models.Order{
		ID:             models.NewOrderID(),
		UserID:         ident.UserID,
		UserEmail:      ident.Email,
		TotalAmount:    req.TotalAmount,
		Address:        req.Address,
		Phone:          req.Phone,
		PaymentStatus:  models.PaymentStatusUnpaid,
		ShippingStatus: models.ShippingStatusNotShipped,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create order"}
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", ident.UserID),
		zap.Int("total_amount", order.TotalAmount),
	)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, ident Identity, orderID string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, &ServiceError{StatusCode: http.StatusForbidden, Message: "Access denied"}
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, ident Identity) ([]models.Order, error) {
	orders, err := s.orders.FindByUserID(ctx, ident.UserID)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.String("user_id", ident.UserID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to fetch orders"}
	}
	return orders, nil
}

func (s *orderService) ListAllOrders(ctx context.Context, ident Identity) ([]models.Order, error) {
	if !ident.IsAdmin() {
		return nil, &ServiceError{StatusCode: http.StatusForbidden, Message: "Admin access required"}
	}
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list all orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to fetch orders"}
	}
	return orders, nil
}

// DeleteOrder removes an order. Owners may delete only while the order is
// still unpaid; admins may delete regardless of state.
func (s *orderService) DeleteOrder(ctx context.Context, ident Identity, orderID string) error {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !ident.IsAdmin() {
		if order.UserID != ident.UserID {
			return &ServiceError{StatusCode: http.StatusForbidden, Message: "Access denied"}
		}
		if order.PaymentStatus != models.PaymentStatusUnpaid {
			return &ServiceError{StatusCode: http.StatusForbidden, Message: "Paid orders can only be removed by an administrator"}
		}
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
		}
		s.logger.Error("Failed to delete order", zap.String("order_id", orderID), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to delete order"}
	}
	return nil
}

// CreatePaymentIntent asks the provider for a QR code tied to this order. The
// merchant payment id embeds the order id before the first dash, which is the
// only part the webhook consumer looks at when correlating back.
func (s *orderService) CreatePaymentIntent(ctx context.Context, ident Identity, orderID string) (*PaymentIntentResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != ident.UserID {
		return nil, &ServiceError{StatusCode: http.StatusForbidden, Message: "Access denied"}
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Order is already paid"}
	}

	merchantPaymentID := fmt.Sprintf("%s-%d", order.ID, time.Now().UnixMilli())

	qr, err := s.provider.CreateQRCode(ctx, providers.CreateQRCodeRequest{
		MerchantPaymentID: merchantPaymentID,
		Amount:            order.TotalAmount,
		Currency:          "JPY",
		OrderDescription:  fmt.Sprintf("Order #%s", order.ID),
		RedirectURL:       s.redirectURL,
	})
	if err != nil {
		s.logger.Error("Provider QR code creation failed",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to create payment"}
	}

	// The stored reference is set-once and never touches an order that is
	// already paid (the completion webhook may have won the race during the
	// provider call above). Correlation works off the order id prefix
	// regardless.
	changed, err := s.orders.SetPaymentIntent(ctx, order.ID, qr.PaymentID, qr.URL)
	if err != nil {
		s.logger.Error("Failed to persist payment intent",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to save payment intent"}
	}
	if !changed {
		s.logger.Info("Payment intent not persisted, order already referenced or paid",
			zap.String("order_id", order.ID),
			zap.String("new_payment_id", qr.PaymentID),
		)
	}

	s.logger.Info("Payment intent created",
		zap.String("order_id", order.ID),
		zap.String("merchant_payment_id", merchantPaymentID),
	)
	return &PaymentIntentResponse{QRCodeURL: qr.URL, PaymentID: qr.PaymentID}, nil
}

// UpdatePaymentStatus is the manual path: owners and admins can mark an order
// paid; moving it anywhere else (the revert escape hatch) is admin only.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, ident Identity, orderID, status string) error {
	switch status {
	case models.PaymentStatusUnpaid, models.PaymentStatusIntentCreated, models.PaymentStatusPaid:
	default:
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid payment status"}
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != ident.UserID && !ident.IsAdmin() {
		return &ServiceError{StatusCode: http.StatusForbidden, Message: "Access denied"}
	}
	if status != models.PaymentStatusPaid && !ident.IsAdmin() {
		return &ServiceError{StatusCode: http.StatusForbidden, Message: "Only an administrator can revert payment status"}
	}

	if status == models.PaymentStatusPaid {
		transitioned, err := s.orders.MarkPaid(ctx, orderID)
		if err != nil {
			s.logger.Error("Failed to mark order paid", zap.String("order_id", orderID), zap.Error(err))
			return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update payment status"}
		}
		if !transitioned {
			s.logger.Info("Order already paid", zap.String("order_id", orderID))
		}
		return nil
	}

	if err := s.orders.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		s.logger.Error("Failed to update payment status", zap.String("order_id", orderID), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update payment status"}
	}
	s.logger.Warn("Payment status overridden",
		zap.String("order_id", orderID),
		zap.String("status", status),
		zap.String("admin", ident.UserID),
	)
	return nil
}

func (s *orderService) MarkShipped(ctx context.Context, ident Identity, orderID, trackingNumber string) error {
	if !ident.IsAdmin() {
		return &ServiceError{StatusCode: http.StatusForbidden, Message: "Admin access required"}
	}
	if trackingNumber == "" {
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "Tracking number is required"}
	}

	if _, err := s.findOrder(ctx, orderID); err != nil {
		return err
	}

	if err := s.orders.MarkShipped(ctx, orderID, trackingNumber); err != nil {
		s.logger.Error("Failed to mark order shipped", zap.String("order_id", orderID), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update shipping status"}
	}
	return nil
}

// HandlePaymentWebhook processes a provider notification. It never reports a
// failure upward: the webhook endpoint acks with 200 regardless, so problems
// are logged here and swallowed. Deliveries may be duplicated or arrive
// before the intent's own persistence, so the order id is recovered from the
// merchant reference prefix and the PAID transition is idempotent.
func (s *orderService) HandlePaymentWebhook(ctx context.Context, state, merchantOrderID string) {
	if state != "COMPLETED" {
		s.logger.Info("Ignoring webhook state",
			zap.String("state", state),
			zap.String("merchant_order_id", merchantOrderID),
		)
		return
	}
	if merchantOrderID == "" {
		s.logger.Warn("Webhook missing merchant_order_id")
		return
	}

	// merchant_order_id is "<orderID>-<attemptTimestamp>". Only the prefix
	// before the first dash identifies the order; the rest disambiguates
	// attempts and is never compared against the stored reference.
	orderID := strings.SplitN(merchantOrderID, "-", 2)[0]

	order, err := s.findOrderRaw(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("Webhook references unknown order",
				zap.String("order_id", orderID),
				zap.String("merchant_order_id", merchantOrderID),
			)
		} else {
			s.logger.Error("Failed to load order for webhook",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		}
		return
	}

	transitioned, err := s.orders.MarkPaid(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to apply paid transition",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return
	}
	if !transitioned {
		s.logger.Info("Duplicate completion webhook, order already paid",
			zap.String("order_id", order.ID),
		)
	}

	s.publisher.Publish(models.Event{
		Type:    models.EventPaymentSucceeded,
		OrderID: order.ID,
	})
}

// findOrder wraps repository lookup with the service error taxonomy.
func (s *orderService) findOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.findOrderRaw(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
		}
		s.logger.Error("Failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to fetch order"}
	}
	return order, nil
}

func (s *orderService) findOrderRaw(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}
