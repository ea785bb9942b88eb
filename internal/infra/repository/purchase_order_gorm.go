package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type PurchaseOrderGormRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderGormRepository(db *gorm.DB) *PurchaseOrderGormRepository {
	return &PurchaseOrderGormRepository{db: db}
}

// 明細（Items）も関連付けで作られる
func (r *PurchaseOrderGormRepository) Create(ctx context.Context, po model.PurchaseOrder) (model.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(&po).Error; err != nil {
		return model.PurchaseOrder{}, err
	}
	return po, nil
}

func (r *PurchaseOrderGormRepository) FindByID(ctx context.Context, id int64) (model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		First(&po, id).Error
	if err != nil {
		return model.PurchaseOrder{}, mapError(err)
	}
	return po, nil
}

func (r *PurchaseOrderGormRepository) List(ctx context.Context, f repo.PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.PurchaseOrder{}, 0, err
	}

	var list []model.PurchaseOrder
	if err := q.Order("id desc").Offset(pageOffset(f.Page, f.Limit)).Limit(f.Limit).Find(&list).Error; err != nil {
		return []model.PurchaseOrder{}, 0, err
	}
	return list, total, nil
}

// ヘッダのみ保存（明細はSetReceivedQuantity）
func (r *PurchaseOrderGormRepository) Save(ctx context.Context, po model.PurchaseOrder, from model.PurchaseOrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("id = ? AND status = ?", po.ID, from).Updates(map[string]interface{}{
		"status":      po.Status,
		"total_cost":  po.TotalCost,
		"notes":       po.Notes,
		"expected_at": po.ExpectedAt,
		"ordered_at":  po.OrderedAt,
		"received_at": po.ReceivedAt,
	})
	return affected(res, repo.ErrConflict)
}

func (r *PurchaseOrderGormRepository) SetReceivedQuantity(ctx context.Context, itemID int64, qty int64) error {
	res := r.db.WithContext(ctx).Model(&model.PurchaseOrderItem{}).
		Where("id = ?", itemID).
		Update("received_quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
