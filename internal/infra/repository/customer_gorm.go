package repository

import (
	"context"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type customerGormRepository struct {
	db *gorm.DB
}

func NewCustomerGormRepository(db *gorm.DB) repo.CustomerRepository {
	return &customerGormRepository{db: db}
}

func (r *customerGormRepository) Create(ctx context.Context, profile *model.CustomerProfile) error {
	if profile.Tier == "" {
		profile.Tier = model.TierBronze
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return mapError(err)
	}
	return nil
}

func (r *customerGormRepository) FindByUserID(ctx context.Context, userID int64) (model.CustomerProfile, error) {
	var p model.CustomerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return model.CustomerProfile{}, mapError(err)
	}
	return p, nil
}

// 本人が編集できる項目だけ
func (r *customerGormRepository) Update(ctx context.Context, p model.CustomerProfile) error {
	res := r.db.WithContext(ctx).Model(&model.CustomerProfile{}).
		Where("user_id = ?", p.UserID).
		Updates(map[string]interface{}{
			"first_name":   p.FirstName,
			"last_name":    p.LastName,
			"phone":        p.Phone,
			"size_profile": p.SizeProfile,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *customerGormRepository) SaveStats(ctx context.Context, p model.CustomerProfile) error {
	res := r.db.WithContext(ctx).Model(&model.CustomerProfile{}).
		Where("user_id = ?", p.UserID).
		Updates(map[string]interface{}{
			"engagement_score": p.EngagementScore,
			"tier":             p.Tier,
			"lifetime_spend":   p.LifetimeSpend,
			"order_count":      p.OrderCount,
			"last_order_at":    p.LastOrderAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// usersとプロフィールを結合した一覧
func (r *customerGormRepository) List(ctx context.Context, f repo.CustomerListFilter) ([]repo.CustomerRow, int64, error) {
	q := r.db.WithContext(ctx).
		Table("users AS u").
		Joins("JOIN customer_profiles AS cp ON cp.user_id = u.id")

	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + s + "%"
		q = q.Where("(u.email ILIKE ? OR cp.first_name ILIKE ? OR cp.last_name ILIKE ?)", like, like, like)
	}
	if f.Tier != nil {
		q = q.Where("cp.tier = ?", *f.Tier)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []repo.CustomerRow{}, 0, err
	}

	var rows []repo.CustomerRow
	err := q.Select(`u.id AS user_id, u.email, cp.first_name, cp.last_name, cp.tier,
			cp.engagement_score, cp.lifetime_spend, cp.order_count`).
		Order("cp.lifetime_spend DESC, u.id ASC").
		Offset(pageOffset(f.Page, f.Limit)).
		Limit(f.Limit).
		Scan(&rows).Error
	if err != nil {
		return []repo.CustomerRow{}, 0, err
	}
	return rows, total, nil
}
