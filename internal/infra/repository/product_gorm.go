package repository

import (
	"context"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、検索/価格帯/カテゴリ/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// 公開（is_active=true）かつ、削除されていないものだけ
	tx = tx.Where("is_active = ?", true)

	// q name・brandを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("(name ILIKE ? OR brand ILIKE ?)", like, like)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Color != "" {
		tx = tx.Where("LOWER(color_family) = ?", strings.ToLower(q.Color))
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	tx = applyProductSort(tx, q.Sort)
	if err := tx.Offset(pageOffset(q.Page, q.Limit)).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// コレクションルールで公開商品を検索
func (r *ProductGormRepository) ListByRules(ctx context.Context, q repo.RuleQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)
	tx = ApplyRules(tx, q.Rules)
	if q.ExcludeID > 0 {
		tx = tx.Where("id <> ?", q.ExcludeID)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	tx = applyProductSort(tx, q.Sort)
	if err := tx.Offset(pageOffset(q.Page, q.Limit)).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

func applyProductSort(tx *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "price_asc":
		return tx.Order("price asc").Order("id asc")
	case "price_desc":
		return tx.Order("price desc").Order("id desc")
	case "name":
		return tx.Order("name asc").Order("id asc")
	default:
		return tx.Order("created_at desc").Order("id desc")
	}
}

// IDで商品を取得（バリアント付き）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		First(&p, id).Error
	if err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByHandle(ctx context.Context, handle string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Where("handle = ?", handle).
		First(&p).Error
	if err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

// 商品の作成（Variantsも関連付けで作られる）
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	var total int64
	for _, v := range p.Variants {
		total += v.Stock
	}
	p.TotalStock = total

	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

// 商品の更新（在庫はinventory経由のみ）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":             p.Name,
		"handle":           p.Handle,
		"description":      p.Description,
		"category":         p.Category,
		"brand":            p.Brand,
		"color_family":     p.ColorFamily,
		"price":            p.Price,
		"compare_at_price": p.CompareAtPrice,
		"tags":             p.Tags,
		"smart_attributes": p.SmartAttributes,
		"is_active":        p.IsActive,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（論理削除。バリアントも一緒に）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return tx.Where("product_id = ?", id).Delete(&model.ProductVariant{}).Error
	})
}
