package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func webhookCount(label string) float64 {
	return testutil.ToFloat64(paymentWebhooksTotal.WithLabelValues(label))
}

func TestRecordPaymentWebhook_KnownState(t *testing.T) {
	before := webhookCount("COMPLETED")
	RecordPaymentWebhook("COMPLETED")
	assert.Equal(t, before+1, webhookCount("COMPLETED"))
}

func TestRecordPaymentWebhook_EmptyState(t *testing.T) {
	before := webhookCount("unknown")
	RecordPaymentWebhook("")
	assert.Equal(t, before+1, webhookCount("unknown"))
}

func TestRecordPaymentWebhook_UnrecognizedStatesBucketed(t *testing.T) {
	// Arbitrary caller-supplied strings must not mint new label values.
	before := webhookCount("other")
	RecordPaymentWebhook("SOMETHING_NEW")
	RecordPaymentWebhook("x\ny")
	assert.Equal(t, before+2, webhookCount("other"))
}
