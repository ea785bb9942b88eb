package repository

import (
	"context"

	"menswear/internal/domain/model"
)

type CollectionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Collection, error)
	FindByID(ctx context.Context, id int64) (model.Collection, error)
	FindByHandle(ctx context.Context, handle string) (model.Collection, error)
	Create(ctx context.Context, c model.Collection) (model.Collection, error)
	Update(ctx context.Context, c model.Collection) error
	Delete(ctx context.Context, id int64) error
}
