package repository

import (
	"context"

	"menswear/internal/domain/model"
)

type CustomerListFilter struct {
	Page  int
	Limit int
	Q     string // email・氏名の部分一致
	Tier  *model.CustomerTier
}

// 一覧表示用（ユーザーとプロフィールの結合）
type CustomerRow struct {
	UserID          int64              `json:"user_id"`
	Email           string             `json:"email"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Tier            model.CustomerTier `json:"tier"`
	EngagementScore int64              `json:"engagement_score"`
	LifetimeSpend   int64              `json:"lifetime_spend"`
	OrderCount      int64              `json:"order_count"`
}

type CustomerRepository interface {
	Create(ctx context.Context, profile *model.CustomerProfile) error
	FindByUserID(ctx context.Context, userID int64) (model.CustomerProfile, error)
	Update(ctx context.Context, profile model.CustomerProfile) error
	// 注文統計だけを更新（tier・スコアを含む）
	SaveStats(ctx context.Context, profile model.CustomerProfile) error
	List(ctx context.Context, f CustomerListFilter) ([]CustomerRow, int64, error)
}
