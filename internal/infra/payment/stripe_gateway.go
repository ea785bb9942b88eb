package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"menswear/internal/usecase"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var ErrNotConfigured = usecase.ErrPaymentNotConfigured

// StripeGateway はusecase.PaymentGatewayのStripe実装。
type StripeGateway struct {
	sc            *client.API
	secretKey     string
	webhookSecret string
}

// DI
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc, secretKey: secretKey, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, in usecase.CreatePaymentIntentInput) (usecase.PaymentIntent, error) {
	if g.secretKey == "" {
		return usecase.PaymentIntent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if in.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(in.IdempotencyKey)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	if g.secretKey == "" {
		return usecase.PaymentIntent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("get payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	if g.secretKey == "" {
		return usecase.PaymentIntent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Cancel(id, params)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("cancel payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

// payment_intent.* 以外のイベントはIntentが空のまま返す
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return usecase.PaymentEvent{}, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("verify webhook: %w", err)
	}

	out := usecase.PaymentEvent{ID: event.ID, Type: string(event.Type)}

	switch string(event.Type) {
	case usecase.PaymentEventSucceeded, usecase.PaymentEventFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return usecase.PaymentEvent{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = toPaymentIntent(&pi)
	}
	return out, nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) usecase.PaymentIntent {
	return usecase.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
