package payment

import (
	"context"
)

// Webhook event types handled by the service
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

// IntentRequest asks the provider for a payment intent. Amounts are in minor units.
type IntentRequest struct {
	Amount         int64
	PlatformFee    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the provider's handle for a pending charge
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified webhook notification
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
}

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=payment

// Gateway is the payment provider
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error)
	Refund(ctx context.Context, intentID, idempotencyKey string) error
	// ParseWebhook verifies signature over payload and decodes the event.
	ParseWebhook(payload []byte, signature string) (Event, error)
}
