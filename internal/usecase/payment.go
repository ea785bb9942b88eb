package usecase

import (
	"context"
	"errors"
)

// 秘密鍵が未設定
var ErrPaymentNotConfigured = errors.New("payments are not configured")

// 決済事業者の状態
const (
	PaymentStatusSucceeded      = "succeeded"
	PaymentStatusRequiresAction = "requires_action"
	PaymentStatusProcessing     = "processing"
	PaymentStatusCanceled       = "canceled"
)

// webhookのイベント種別
const (
	PaymentEventSucceeded = "payment_intent.succeeded"
	PaymentEventFailed    = "payment_intent.payment_failed"
)

type CreatePaymentIntentInput struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

type PaymentEvent struct {
	ID     string
	Type   string
	Intent PaymentIntent
}

// 決済事業者とのやりとり
type PaymentGateway interface {
	CreateIntent(ctx context.Context, in CreatePaymentIntentInput) (PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (PaymentIntent, error)
	// 以後そのclient_secretでは支払えなくなる
	CancelIntent(ctx context.Context, id string) (PaymentIntent, error)
	// 署名を検証してイベントを取り出す
	ParseWebhook(payload []byte, signature string) (PaymentEvent, error)
}
