package executor

import "github.com/DanielPopoola/ficmart-payment-engine/internal/domain"

const (
	CaptureMethodManual    = "manual"
	CaptureMethodAutomatic = "automatic"
)

// payment method types that accept separate authorization and capture
var manualCaptureTypes = map[string]struct{}{
	"card":              {},
	"link":              {},
	"klarna":            {},
	"afterpay_clearpay": {},
	"affirm":            {},
	"cashapp":           {},
	"paypal":            {},
	"amazon_pay":        {},
	"revolut_pay":       {},
	"mobilepay":         {},
}

// ResolveCaptureMethod picks the capture method for a payment. Payment element
// integrations fall back to automatic capture for types without manual support.
func ResolveCaptureMethod(cfg domain.PaymentMethodConfig, paymentMethodType string) string {
	if !cfg.IsManualCapture() {
		return CaptureMethodAutomatic
	}
	if cfg.Integration != domain.IntegrationPaymentElement || paymentMethodType == "" {
		return CaptureMethodManual
	}
	if supportsManualCapture(paymentMethodType) {
		return CaptureMethodManual
	}
	return CaptureMethodAutomatic
}

func supportsManualCapture(paymentMethodType string) bool {
	_, ok := manualCaptureTypes[paymentMethodType]
	return ok
}
