package repository

import (
	"context"

	"menswear/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Category string
	Color    string
	Sort     string
}

// コレクション・組み合わせ提案で使うルール検索
type RuleQuery struct {
	Rules     model.CollectionRules
	Page      int
	Limit     int
	Sort      string
	ExcludeID int64
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	ListByRules(ctx context.Context, q RuleQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByHandle(ctx context.Context, handle string) (model.Product, error)
	// バリアントも一緒に作成する
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}

type VariantRepository interface {
	FindByID(ctx context.Context, id int64) (model.ProductVariant, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error)
	Update(ctx context.Context, v model.ProductVariant) error
	SoftDelete(ctx context.Context, id int64) error
}
