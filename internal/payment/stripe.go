package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"voltbay/internal/auctionerrors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway with the Stripe API
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddMetadata("platform_fee_minor", strconv.FormatInt(req.PlatformFee, 10))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: create payment intent: %v", auctionerrors.ErrPaymentUnavailable, err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID, idempotencyKey string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("%w: refund %s: %v", auctionerrors.ErrPaymentUnavailable, intentID, err)
	}
	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", auctionerrors.ErrInvalidSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && ev.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("%w: decode payment intent: %v", auctionerrors.ErrInvalidInput, err)
		}
		out.PaymentIntentID = pi.ID
	}
	return out, nil
}

// DisabledGateway is used when no provider key is configured
type DisabledGateway struct{}

func (DisabledGateway) CreatePaymentIntent(context.Context, IntentRequest) (Intent, error) {
	return Intent{}, auctionerrors.ErrPaymentUnavailable
}

func (DisabledGateway) Refund(context.Context, string, string) error {
	return auctionerrors.ErrPaymentUnavailable
}

func (DisabledGateway) ParseWebhook([]byte, string) (Event, error) {
	return Event{}, auctionerrors.ErrInvalidSignature
}
