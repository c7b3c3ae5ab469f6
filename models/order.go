package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment lifecycle. Transitions only move forward; the single exception is
// an explicit admin override through the status endpoint.
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusIntentCreated = "intent_created"
	PaymentStatusPaid          = "paid"
)

const (
	ShippingStatusNotShipped = "not_shipped"
	ShippingStatusShipped    = "shipped"
)

type Order struct {
	ID                 string `gorm:"type:char(32);primaryKey" json:"id"`
	UserID             string `gorm:"type:varchar(128);not null;index" json:"user_id"`
	UserEmail          string `gorm:"type:varchar(255)" json:"user_email"`
	TotalAmount        int    `gorm:"not null" json:"total_amount"` // smallest currency unit (JPY)
	Address            string `gorm:"type:varchar(512);not null" json:"address"`
	Phone              string `gorm:"type:varchar(32);not null" json:"phone"`
	PaymentStatus      string `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	ShippingStatus     string `gorm:"type:varchar(20);not null;default:'not_shipped'" json:"shipping_status"`
	TrackingNumber     string `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`
	ProviderPaymentRef string `gorm:"type:varchar(128);not null;default:''" json:"provider_payment_ref,omitempty"`
	PaymentQRURL       string `gorm:"type:varchar(1024)" json:"payment_qr_url,omitempty"`
	PaidAt             *time.Time     `json:"paid_at,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Items              []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   string    `gorm:"type:char(32);not null;index" json:"order_id"`
	ProductID string    `gorm:"type:varchar(64);not null" json:"product_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"` // snapshot at order time
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     int       `gorm:"not null" json:"price"`
}

// NewOrderID returns a fresh order identifier. The merchant payment reference
// sent to the provider is "<orderID>-<timestamp>" and resolved by splitting on
// the first dash, so order ids must never contain one.
func NewOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
