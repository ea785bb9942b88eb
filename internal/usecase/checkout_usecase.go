package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

// 配送方法の料金（セント）
const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"

	standardShippingCost  int64 = 795
	expressShippingCost   int64 = 1995
	overnightShippingCost int64 = 3995
)

// ウィザードの次のステップ
const (
	StepAddress  = "address"
	StepShipping = "shipping"
	StepPayment  = "payment"
	StepComplete = "complete"
	StepDone     = "done"
)

type CheckoutConfig struct {
	Currency              string
	TTL                   time.Duration
	FreeShippingThreshold int64
}

type CheckoutUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	checkouts repo.CheckoutRepository
	addresses repo.AddressRepository
	payments  PaymentGateway
	cfg       CheckoutConfig
	log       Logger
	now       func() time.Time
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	checkouts repo.CheckoutRepository,
	addresses repo.AddressRepository,
	payments PaymentGateway,
	cfg CheckoutConfig,
	log Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		carts:     carts,
		cartItems: cartItems,
		checkouts: checkouts,
		addresses: addresses,
		payments:  payments,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type CheckoutOutput struct {
	Session  model.CheckoutSession `json:"session"`
	NextStep string                `json:"next_step"`
}

type PaymentOutput struct {
	CheckoutSessionID int64  `json:"checkout_session_id"`
	PaymentIntentID   string `json:"payment_intent_id"`
	ClientSecret      string `json:"client_secret"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
}

type CompleteOutput struct {
	Session model.CheckoutSession `json:"session"`
	Order   OrderOutput           `json:"order"`
}

// 小計に応じた配送方法一覧
func (u *CheckoutUsecase) ShippingRatesFor(subtotal int64) []model.ShippingRate {
	standard := standardShippingCost
	if u.cfg.FreeShippingThreshold > 0 && subtotal >= u.cfg.FreeShippingThreshold {
		standard = 0
	}
	return []model.ShippingRate{
		{Code: ShippingStandard, Label: "Standard", Amount: standard, EstimatedDays: "5-7"},
		{Code: ShippingExpress, Label: "Express", Amount: expressShippingCost, EstimatedDays: "2-3"},
		{Code: ShippingOvernight, Label: "Overnight", Amount: overnightShippingCost, EstimatedDays: "1"},
	}
}

func (u *CheckoutUsecase) rateFor(code string, subtotal int64) (model.ShippingRate, bool) {
	for _, r := range u.ShippingRatesFor(subtotal) {
		if r.Code == code {
			return r, true
		}
	}
	return model.ShippingRate{}, false
}

func nextStep(s model.CheckoutSession) string {
	switch {
	case s.Status == model.CheckoutStatusCompleted:
		return StepDone
	case !s.HasAddress():
		return StepAddress
	case !s.HasShippingRate():
		return StepShipping
	case !s.HasPaymentIntent():
		return StepPayment
	default:
		return StepComplete
	}
}

func toCheckoutOutput(s model.CheckoutSession) CheckoutOutput {
	return CheckoutOutput{Session: s, NextStep: nextStep(s)}
}

// 前のステップが終わっていなければ409
func requireStep(s model.CheckoutSession, step string) error {
	if !s.HasAddress() {
		return NewHTTPError(http.StatusConflict, "address step required")
	}
	if step == StepShipping {
		return nil
	}
	if !s.HasShippingRate() {
		return NewHTTPError(http.StatusConflict, "shipping step required")
	}
	if step == StepPayment {
		return nil
	}
	if !s.HasPaymentIntent() {
		return NewHTTPError(http.StatusConflict, "payment step required")
	}
	return nil
}

// ACTIVEカートの小計
func (u *CheckoutUsecase) cartSubtotal(ctx context.Context, cartID int64) (int64, error) {
	items, err := u.cartItems.ListByCartID(ctx, cartID)
	if err != nil {
		return 0, errDB()
	}
	if len(items) == 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceSnapshot * it.Quantity
	}
	return subtotal, nil
}

// 小計を入れ直し、選択済みの送料も再計算する
func (u *CheckoutUsecase) reprice(s *model.CheckoutSession, subtotal int64) {
	s.Subtotal = subtotal
	if s.HasShippingRate() {
		if r, ok := u.rateFor(s.ShippingRateCode, subtotal); ok {
			s.ShippingCost = r.Amount
		}
	}
	s.Recalculate()
}

// 1. ACTIVEカートから開始（同じカートの有効なOPENセッションは使い回す）
func (u *CheckoutUsecase) Start(ctx context.Context, userID int64) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, errUnauthorized()
	}

	cart, err := u.carts.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return CheckoutOutput{}, errDB()
	}

	subtotal, err := u.cartSubtotal(ctx, cart.ID)
	if err != nil {
		return CheckoutOutput{}, err
	}

	now := u.now()
	s, err := u.checkouts.FindOpenByCartID(ctx, cart.ID)
	switch {
	case err == nil && !s.IsExpired(now):
		u.reprice(&s, subtotal)
		if err := u.checkouts.Save(ctx, s); err != nil {
			return CheckoutOutput{}, errDB()
		}
		return toCheckoutOutput(s), nil
	case err == nil:
		s.Status = model.CheckoutStatusExpired
		if err := u.checkouts.Save(ctx, s); err != nil {
			return CheckoutOutput{}, errDB()
		}
	case !errors.Is(err, repo.ErrNotFound):
		return CheckoutOutput{}, errDB()
	}

	created, err := u.checkouts.Create(ctx, model.CheckoutSession{
		UserID:    userID,
		CartID:    cart.ID,
		Subtotal:  subtotal,
		Total:     subtotal,
		Currency:  u.cfg.Currency,
		Status:    model.CheckoutStatusOpen,
		ExpiresAt: now.Add(u.cfg.TTL),
	})
	if err != nil {
		return CheckoutOutput{}, errDB()
	}
	return toCheckoutOutput(created), nil
}

func (u *CheckoutUsecase) Get(ctx context.Context, userID int64, sessionID int64) (CheckoutOutput, error) {
	s, err := u.load(ctx, userID, sessionID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	return toCheckoutOutput(s), nil
}

// 本人のセッションを取得（他人のものは404）
func (u *CheckoutUsecase) load(ctx context.Context, userID int64, sessionID int64) (model.CheckoutSession, error) {
	if userID <= 0 {
		return model.CheckoutSession{}, errUnauthorized()
	}
	if sessionID <= 0 {
		return model.CheckoutSession{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	s, err := u.checkouts.FindByID(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CheckoutSession{}, errNotFound()
	}
	if err != nil {
		return model.CheckoutSession{}, errDB()
	}
	if s.UserID != userID {
		return model.CheckoutSession{}, errNotFound()
	}
	return s, nil
}

// 変更できるOPENセッション。期限切れは410
func (u *CheckoutUsecase) loadOpen(ctx context.Context, userID int64, sessionID int64) (model.CheckoutSession, error) {
	s, err := u.load(ctx, userID, sessionID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	switch s.Status {
	case model.CheckoutStatusCompleted:
		return model.CheckoutSession{}, NewHTTPError(http.StatusConflict, "checkout already completed")
	case model.CheckoutStatusAbandoned, model.CheckoutStatusExpired:
		return model.CheckoutSession{}, NewHTTPError(http.StatusGone, "checkout expired")
	}
	if s.IsExpired(u.now()) {
		s.Status = model.CheckoutStatusExpired
		if err := u.checkouts.Save(ctx, s); err != nil {
			return model.CheckoutSession{}, errDB()
		}
		return model.CheckoutSession{}, NewHTTPError(http.StatusGone, "checkout expired")
	}
	return s, nil
}

// 2. 配送先
func (u *CheckoutUsecase) SetAddress(ctx context.Context, userID int64, sessionID int64, addressID int64) (CheckoutOutput, error) {
	if addressID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}

	s, err := u.loadOpen(ctx, userID, sessionID)
	if err != nil {
		return CheckoutOutput{}, err
	}

	addr, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, errNotFound()
	}
	if err != nil {
		return CheckoutOutput{}, errDB()
	}
	if addr.UserID != userID {
		return CheckoutOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	s.AddressID = &addr.ID
	if err := u.checkouts.Save(ctx, s); err != nil {
		return CheckoutOutput{}, errDB()
	}
	return toCheckoutOutput(s), nil
}

// 3. 配送方法の一覧
func (u *CheckoutUsecase) ShippingRates(ctx context.Context, userID int64, sessionID int64) ([]model.ShippingRate, error) {
	s, err := u.loadOpen(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(s, StepShipping); err != nil {
		return nil, err
	}
	return u.ShippingRatesFor(s.Subtotal), nil
}

// 3. 配送方法の選択
func (u *CheckoutUsecase) SetShipping(ctx context.Context, userID int64, sessionID int64, code string) (CheckoutOutput, error) {
	s, err := u.loadOpen(ctx, userID, sessionID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if err := requireStep(s, StepShipping); err != nil {
		return CheckoutOutput{}, err
	}

	rate, ok := u.rateFor(code, s.Subtotal)
	if !ok {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid shipping rate")
	}

	if rate.Code != s.ShippingRateCode || rate.Amount != s.ShippingCost {
		if err := u.releaseIntent(ctx, &s); err != nil {
			return CheckoutOutput{}, err
		}
	}

	s.ShippingRateCode = rate.Code
	s.ShippingCost = rate.Amount
	s.Recalculate()
	if err := u.checkouts.Save(ctx, s); err != nil {
		return CheckoutOutput{}, errDB()
	}
	return toCheckoutOutput(s), nil
}

// 4. PaymentIntentの作成（金額が同じなら使い回す）
func (u *CheckoutUsecase) CreatePayment(ctx context.Context, userID int64, sessionID int64) (PaymentOutput, error) {
	s, err := u.loadOpen(ctx, userID, sessionID)
	if err != nil {
		return PaymentOutput{}, err
	}
	if err := requireStep(s, StepPayment); err != nil {
		return PaymentOutput{}, err
	}

	// 決済直前の金額で確定する
	subtotal, err := u.cartSubtotal(ctx, s.CartID)
	if err != nil {
		return PaymentOutput{}, err
	}
	u.reprice(&s, subtotal)

	if s.HasPaymentIntent() {
		pi, err := u.payments.GetIntent(ctx, s.PaymentIntentID)
		if err != nil {
			return PaymentOutput{}, u.paymentError(err)
		}
		if pi.Amount == s.Total && pi.Status != PaymentStatusCanceled && pi.Status != PaymentStatusSucceeded {
			if err := u.checkouts.Save(ctx, s); err != nil {
				return PaymentOutput{}, errDB()
			}
			return toPaymentOutput(s, pi), nil
		}
		if err := u.discardIntent(ctx, &s, pi); err != nil {
			return PaymentOutput{}, err
		}
	}

	pi, err := u.payments.CreateIntent(ctx, CreatePaymentIntentInput{
		Amount:         s.Total,
		Currency:       s.Currency,
		IdempotencyKey: fmt.Sprintf("checkout-%d-%d", s.ID, s.Total),
		Metadata: map[string]string{
			"checkout_session_id": strconv.FormatInt(s.ID, 10),
			"user_id":             strconv.FormatInt(s.UserID, 10),
		},
	})
	if err != nil {
		return PaymentOutput{}, u.paymentError(err)
	}

	s.PaymentIntentID = pi.ID
	if err := u.checkouts.Save(ctx, s); err != nil {
		return PaymentOutput{}, errDB()
	}
	return toPaymentOutput(s, pi), nil
}

// 金額が変わる前に今のIntentを取り消す。支払い済みか処理中なら409
func (u *CheckoutUsecase) releaseIntent(ctx context.Context, s *model.CheckoutSession) error {
	if !s.HasPaymentIntent() {
		return nil
	}
	pi, err := u.payments.GetIntent(ctx, s.PaymentIntentID)
	if err != nil {
		return u.paymentError(err)
	}
	return u.discardIntent(ctx, s, pi)
}

func (u *CheckoutUsecase) discardIntent(ctx context.Context, s *model.CheckoutSession, pi PaymentIntent) error {
	switch pi.Status {
	case PaymentStatusSucceeded, PaymentStatusProcessing:
		return NewHTTPError(http.StatusConflict, "payment already submitted")
	case PaymentStatusCanceled:
	default:
		// 確定と競合したらStripe側で失敗するのでIntentは残す
		if _, err := u.payments.CancelIntent(ctx, pi.ID); err != nil {
			return u.paymentError(err)
		}
	}
	s.PaymentIntentID = ""
	return nil
}

// 5. 決済成功を確認して注文を確定
// 決済が済んでいれば期限切れでも確定する
func (u *CheckoutUsecase) Complete(ctx context.Context, userID int64, sessionID int64) (CompleteOutput, error) {
	s, err := u.load(ctx, userID, sessionID)
	if err != nil {
		return CompleteOutput{}, err
	}
	if s.Status == model.CheckoutStatusCompleted {
		return u.finalize(ctx, s, s.PaymentIntentID)
	}
	if s.Status == model.CheckoutStatusAbandoned {
		return CompleteOutput{}, NewHTTPError(http.StatusGone, "checkout expired")
	}
	if err := requireStep(s, StepComplete); err != nil {
		return CompleteOutput{}, err
	}

	pi, err := u.payments.GetIntent(ctx, s.PaymentIntentID)
	if err != nil {
		return CompleteOutput{}, u.paymentError(err)
	}
	if pi.Status != PaymentStatusSucceeded {
		if s.IsExpired(u.now()) {
			return CompleteOutput{}, NewHTTPError(http.StatusGone, "checkout expired")
		}
		return CompleteOutput{}, NewHTTPError(http.StatusPaymentRequired, "payment not completed")
	}
	if pi.Amount != s.Total {
		return CompleteOutput{}, NewHTTPError(http.StatusConflict, "payment amount mismatch")
	}

	return u.finalize(ctx, s, pi.ID)
}

// 注文作成・PAID・顧客統計・セッション完了を1つのTxで行う（何度呼んでも同じ結果）
func (u *CheckoutUsecase) finalize(ctx context.Context, s model.CheckoutSession, paymentIntentID string) (CompleteOutput, error) {
	var result CompleteOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := r.Checkouts().FindByID(ctx, s.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if !cur.HasAddress() {
			return NewHTTPError(http.StatusConflict, "address step required")
		}

		sessionID := cur.ID
		placed, err := placeOrderTx(ctx, r, placeOrderParams{
			UserID:            cur.UserID,
			AddressID:         *cur.AddressID,
			Key:               fmt.Sprintf("checkout-%d", cur.ID),
			CartID:            cur.CartID,
			CheckoutSessionID: &sessionID,
			ShippingRateCode:  cur.ShippingRateCode,
			ShippingCost:      cur.ShippingCost,
			Currency:          cur.Currency,
			ExpectedSubtotal:  &cur.Subtotal,
		})
		if err != nil {
			return err
		}
		order := placed.Order

		if order.Status == model.OrderStatusPending {
			now := u.now()
			if err := r.Orders().MarkPaid(ctx, order.ID, paymentIntentID, now); err != nil {
				return errDB()
			}
			order.Status = model.OrderStatusPaid
			order.PaymentIntentID = paymentIntentID
			order.PaidAt = &now

			if err := recordCustomerOrder(ctx, r, order.UserID, order.TotalPrice, now); err != nil {
				return err
			}
		}

		if cur.Status != model.CheckoutStatusCompleted {
			cur.Status = model.CheckoutStatusCompleted
			cur.OrderID = &order.ID
			cur.PaymentIntentID = paymentIntentID
			if err := r.Checkouts().Save(ctx, cur); err != nil {
				return errDB()
			}
			u.log.Infof("checkout completed: session=%d order=%d total=%d", cur.ID, order.ID, order.TotalPrice)
		}

		result = CompleteOutput{Session: cur, Order: toOrderOutput(order, placed.Items)}
		return nil
	})
	if err != nil {
		return CompleteOutput{}, err
	}
	return result, nil
}

// 顧客プロフィールに注文を反映（無ければ作る）
func recordCustomerOrder(ctx context.Context, r repo.TxRepos, userID int64, total int64, at time.Time) error {
	p, err := r.Customers().FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		p = model.CustomerProfile{UserID: userID, Tier: model.TierBronze}
		if err := r.Customers().Create(ctx, &p); err != nil {
			return errDB()
		}
	} else if err != nil {
		return errDB()
	}

	p.RecordOrder(total, at)
	if err := r.Customers().SaveStats(ctx, p); err != nil {
		return errDB()
	}
	return nil
}

// webhook（署名検証済みのイベントだけ処理する）
// 5xxを返すと決済事業者が再送する
func (u *CheckoutUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.payments.ParseWebhook(payload, signature)
	if errors.Is(err, ErrPaymentNotConfigured) {
		return NewHTTPError(http.StatusServiceUnavailable, "payments not configured")
	}
	if err != nil {
		u.log.Warnf("webhook rejected: %v", err)
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	switch ev.Type {
	case PaymentEventSucceeded:
		return u.onPaymentSucceeded(ctx, ev)
	case PaymentEventFailed:
		u.log.Warnf("payment failed: event=%s intent=%s", ev.ID, ev.Intent.ID)
		return nil
	default:
		u.log.Infof("webhook ignored: event=%s type=%s", ev.ID, ev.Type)
		return nil
	}
}

func (u *CheckoutUsecase) onPaymentSucceeded(ctx context.Context, ev PaymentEvent) error {
	s, err := u.checkouts.FindByPaymentIntentID(ctx, ev.Intent.ID)
	if errors.Is(err, repo.ErrNotFound) {
		u.log.Warnf("webhook ignored: no checkout for intent=%s", ev.Intent.ID)
		return nil
	}
	if err != nil {
		return errDB()
	}
	if s.Status == model.CheckoutStatusCompleted {
		return nil
	}
	if ev.Intent.Amount != s.Total {
		u.log.Errorf("payment amount mismatch: session=%d intent=%s amount=%d total=%d", s.ID, ev.Intent.ID, ev.Intent.Amount, s.Total)
		return nil
	}

	if _, err := u.finalize(ctx, s, ev.Intent.ID); err != nil {
		if he, ok := AsHTTPError(err); ok && he.Status < http.StatusInternalServerError {
			// 決済済みで注文にできなかったものは手動対応
			u.log.Errorf("paid checkout not completed: session=%d intent=%s: %s", s.ID, ev.Intent.ID, he.Message)
			return nil
		}
		return err
	}
	return nil
}

func (u *CheckoutUsecase) paymentError(err error) error {
	if errors.Is(err, ErrPaymentNotConfigured) {
		return NewHTTPError(http.StatusServiceUnavailable, "payments not configured")
	}
	u.log.Errorf("payment provider error: %v", err)
	return NewHTTPError(http.StatusBadGateway, "payment provider error")
}

func toPaymentOutput(s model.CheckoutSession, pi PaymentIntent) PaymentOutput {
	return PaymentOutput{
		CheckoutSessionID: s.ID,
		PaymentIntentID:   pi.ID,
		ClientSecret:      pi.ClientSecret,
		Amount:            pi.Amount,
		Currency:          s.Currency,
	}
}
