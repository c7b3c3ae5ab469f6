package providers

import (
	"context"
	"fmt"
)

// CreateQRCodeRequest describes a payment intent to create on the provider.
// MerchantPaymentID is the correlation string "<orderID>-<timestamp>" that
// later comes back on the webhook as merchant_order_id.
type CreateQRCodeRequest struct {
	MerchantPaymentID string
	Amount            int
	Currency          string
	OrderDescription  string
	RedirectURL       string
}

// QRCodeResponse is the provider-side payment intent: an id to correlate by
// and a URL the buyer is redirected to (QR code page).
type QRCodeResponse struct {
	PaymentID string
	URL       string
}

// PaymentProvider wraps the external payment API's "create payment intent"
// call. Actual completion arrives later, asynchronously, via the webhook.
type PaymentProvider interface {
	CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*QRCodeResponse, error)
}

// ProviderError is returned when the remote call fails or the provider
// answers with a non-success result code. Callers surface it as a generic
// upstream failure and never expose provider internals.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error: %s (%s)", e.Message, e.Code)
}
