package repository

import (
	"context"
	"errors"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// 平文は保存しないのでSHA-256で引く
func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "token_hash = ?", tokenHash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// 未使用かつ未失効のときだけ使用済みにする。
// 同じトークンで並行してrefreshされても1本しか通らない。
func (r *refreshTokenGormRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ?", tokenID).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		Update("used_at", usedAt)
	return affected(res, repo.ErrRefreshTokenNotFound)
}

// ログアウト、強制ログアウト、再利用検知で使う
func (r *refreshTokenGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Scopes(byUser(userID)).Delete(&model.RefreshToken{}).Error
}

func (r *refreshTokenGormRepository) DeleteByID(ctx context.Context, tokenID string) error {
	res := r.db.WithContext(ctx).Delete(&model.RefreshToken{}, "id = ?", tokenID)
	return affected(res, repo.ErrRefreshTokenNotFound)
}
