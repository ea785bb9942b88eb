package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) repo.UserRepository {
	return &userGormRepository{db: db}
}

// emailの一意制約違反はErrConflict
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return mapError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userGormRepository) findOne(ctx context.Context, conds ...any) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, conds...).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// emailは正規化済みで渡される
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, id)
}

func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	return mapError(r.db.WithContext(ctx).Save(user).Error)
}

// 発行済みアクセストークンを一括で無効にする
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{ID: id}).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	return affected(res, repo.ErrNotFound)
}
