package repository

import (
	"context"
	"errors"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 最新のACTIVEカート
func activeCartOf(userID int64) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Scopes(byUser(userID)).
			Where("status = ?", model.CartStatusActive).
			Order("id desc")
	}
}

// ACTIVEカートを返す。無ければ作る
func (r *CartGormRepository) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(activeCartOf(userID)).
			First(&cart).Error
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		cart = model.Cart{UserID: userID, Status: model.CartStatusActive}
		createErr := tx.Create(&cart).Error
		if createErr == nil {
			return nil
		}
		// 並行リクエストが先に作っていればそれを使う
		if tx.Scopes(activeCartOf(userID)).First(&cart).Error == nil {
			return nil
		}
		return createErr
	})
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).Scopes(activeCartOf(userID)).First(&cart).Error; err != nil {
		return model.Cart{}, mapError(err)
	}
	return cart, nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).First(&cart, cartID).Error; err != nil {
		return model.Cart{}, mapError(err)
	}
	return cart, nil
}

// CHECKED_OUTへの遷移など
func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Cart{ID: cartID}).Update("status", status)
	return affected(res, repo.ErrNotFound)
}

func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, "cart_id = ?", cartID).Error
}

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := r.db.WithContext(ctx).Order("id asc").Find(&items, "cart_id = ?", cartID).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 同じバリアントの行があれば数量を足す。価格スナップショットは最初の追加時のまま
func (r *CartItemGormRepository) UpsertByCartAndVariant(ctx context.Context, cartID, productID, variantID, addQty, unitPriceSnapshot int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line model.CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&line, "cart_id = ? AND variant_id = ?", cartID, variantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.CartItem{
				CartID:            cartID,
				ProductID:         productID,
				VariantID:         variantID,
				Quantity:          addQty,
				UnitPriceSnapshot: unitPriceSnapshot,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&line).
			Update("quantity", gorm.Expr("quantity + ?", addQty)).Error
	})
}

func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).Model(&model.CartItem{ID: cartItemID}).Update("quantity", qty)
	return affected(res, repo.ErrNotFound)
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID), repo.ErrNotFound)
}

func (r *CartItemGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var line model.CartItem
	if err := r.db.WithContext(ctx).First(&line, cartItemID).Error; err != nil {
		return model.CartItem{}, mapError(err)
	}
	return line, nil
}

// cartsをjoinして持ち主を確かめる
func (r *CartItemGormRepository) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ?", cartItemID).
		Where("carts.user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}
