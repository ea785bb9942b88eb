package usecase

import (
	"context"
	"net/http"
	"time"

	repo "menswear/internal/repository"

	"github.com/shopspring/decimal"
)

// 期間指定が無いときの集計日数
const defaultAnalyticsDays = 30

type AnalyticsUsecase struct {
	analytics repo.AnalyticsRepository
	currency  string
	now       func() time.Time
}

func NewAnalyticsUsecase(analytics repo.AnalyticsRepository, currency string) *AnalyticsUsecase {
	return &AnalyticsUsecase{analytics: analytics, currency: currency, now: time.Now}
}

type DateRange struct {
	From *time.Time
	To   *time.Time
}

type SummaryOutput struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Currency          string    `json:"currency"`
	Revenue           int64     `json:"revenue"`
	OrderCount        int64     `json:"order_count"`
	AverageOrderValue string    `json:"average_order_value"`
	NewCustomers      int64     `json:"new_customers"`
}

type TopProductsOutput struct {
	From  time.Time            `json:"from"`
	To    time.Time            `json:"to"`
	Items []repo.TopProductRow `json:"items"`
}

type CategorySalesOutput struct {
	From  time.Time               `json:"from"`
	To    time.Time               `json:"to"`
	Items []repo.CategorySalesRow `json:"items"`
}

// 既定は直近30日。from > to は400
func (u *AnalyticsUsecase) resolveRange(r DateRange) (time.Time, time.Time, error) {
	to := u.now()
	if r.To != nil {
		to = *r.To
	}
	from := to.AddDate(0, 0, -defaultAnalyticsDays)
	if r.From != nil {
		from = *r.From
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}
	return from, to, nil
}

// 平均注文額（最小通貨単位を主単位にして小数2桁）
func AverageOrderValue(revenue, orders int64) string {
	if orders == 0 {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromInt(revenue).
		Div(decimal.NewFromInt(orders)).
		Shift(-2).
		StringFixed(2)
}

func (u *AnalyticsUsecase) Summary(ctx context.Context, r DateRange) (SummaryOutput, error) {
	from, to, err := u.resolveRange(r)
	if err != nil {
		return SummaryOutput{}, err
	}

	t, err := u.analytics.SalesTotals(ctx, from, to)
	if err != nil {
		return SummaryOutput{}, errDB()
	}

	return SummaryOutput{
		From:              from,
		To:                to,
		Currency:          u.currency,
		Revenue:           t.Revenue,
		OrderCount:        t.OrderCount,
		AverageOrderValue: AverageOrderValue(t.Revenue, t.OrderCount),
		NewCustomers:      t.NewCustomers,
	}, nil
}

func (u *AnalyticsUsecase) TopProducts(ctx context.Context, r DateRange, limit int) (TopProductsOutput, error) {
	if limit == 0 {
		limit = 10
	}
	if limit < 1 || limit > 100 {
		return TopProductsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	from, to, err := u.resolveRange(r)
	if err != nil {
		return TopProductsOutput{}, err
	}

	rows, err := u.analytics.TopProducts(ctx, from, to, limit)
	if err != nil {
		return TopProductsOutput{}, errDB()
	}
	if rows == nil {
		rows = []repo.TopProductRow{}
	}
	return TopProductsOutput{From: from, To: to, Items: rows}, nil
}

func (u *AnalyticsUsecase) SalesByCategory(ctx context.Context, r DateRange) (CategorySalesOutput, error) {
	from, to, err := u.resolveRange(r)
	if err != nil {
		return CategorySalesOutput{}, err
	}

	rows, err := u.analytics.SalesByCategory(ctx, from, to)
	if err != nil {
		return CategorySalesOutput{}, errDB()
	}
	if rows == nil {
		rows = []repo.CategorySalesRow{}
	}
	return CategorySalesOutput{From: from, To: to, Items: rows}, nil
}
