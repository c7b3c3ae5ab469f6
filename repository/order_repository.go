package repository

import (
	"context"
	"time"

	"shop-service/models"

	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access. Mutations of
// payment state go through conditional single-row UPDATEs so that concurrent
// writers (webhook vs. manual mark-paid) serialize on the database row and
// exactly one of them wins.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	Delete(ctx context.Context, id string) error
	// SetPaymentIntent stores the provider payment reference and QR URL,
	// moving the order to intent_created. The reference is set-once, and an
	// order that already reached paid is left untouched; in either case the
	// call is a no-op and returns false.
	SetPaymentIntent(ctx context.Context, id, providerRef, qrURL string) (bool, error)
	// MarkPaid transitions the order to paid unless it already is. Returns
	// whether this call performed the transition.
	MarkPaid(ctx context.Context, id string) (bool, error)
	// UpdatePaymentStatus sets the payment status unconditionally. Admin
	// override path only.
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	MarkShipped(ctx context.Context, id, trackingNumber string) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormOrderRepository) SetPaymentIntent(ctx context.Context, id, providerRef, qrURL string) (bool, error) {
	// Guards on payment_status too: a completion webhook can land while the
	// provider call for this intent is still in flight, and the paid state it
	// set must never be rewound here.
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND provider_payment_ref = '' AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"provider_payment_ref": providerRef,
			"payment_qr_url":       qrURL,
			"payment_status":       models.PaymentStatusIntentCreated,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormOrderRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormOrderRepository) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	updates := map[string]interface{}{"payment_status": status}
	if status != models.PaymentStatusPaid {
		updates["paid_at"] = nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *GormOrderRepository) MarkShipped(ctx context.Context, id, trackingNumber string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"shipping_status": models.ShippingStatusShipped,
			"tracking_number": trackingNumber,
		}).Error
}
