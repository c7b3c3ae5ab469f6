package models

// Event types pushed to SSE subscribers.
const EventPaymentSucceeded = "payment_succeeded"

// Event is the payload broadcast to every live subscriber. Delivery is
// best-effort while the connection is open; there is no replay.
type Event struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id,omitempty"`
}
