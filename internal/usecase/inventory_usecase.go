package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

type InventoryUsecase struct {
	tx                repo.TransactionManager
	inventoryRepo     repo.InventoryRepository
	lowStockThreshold int64
}

func NewInventoryUsecase(tx repo.TransactionManager, inventoryRepo repo.InventoryRepository, lowStockThreshold int64) *InventoryUsecase {
	return &InventoryUsecase{tx: tx, inventoryRepo: inventoryRepo, lowStockThreshold: lowStockThreshold}
}

type SetStockInput struct {
	Stock  *int64
	Reason string
}

type StockOutput struct {
	VariantID int64 `json:"variant_id"`
	ProductID int64 `json:"product_id"`
	Before    int64 `json:"before"`
	After     int64 `json:"after"`
}

// 在庫の絶対値を設定（調整履歴と監査ログを同じTxで書く）
func (u *InventoryUsecase) SetVariantStock(ctx context.Context, actorUserID int64, variantID int64, in SetStockInput) (StockOutput, error) {
	if actorUserID <= 0 {
		return StockOutput{}, errUnauthorized()
	}
	if variantID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if in.Stock == nil {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "stock required")
	}
	if *in.Stock < 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}
	if len(reason) > 255 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	var out StockOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		v, err := r.Variants().FindByID(ctx, variantID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		if err := r.Inventory().SetStock(ctx, variantID, *in.Stock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return errDB()
		}

		delta := *in.Stock - v.Stock
		if delta != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				VariantID:   variantID,
				ActorUserID: actorUserID,
				Delta:       delta,
				Reason:      reason,
			}); err != nil {
				return errDB()
			}
		}

		if err := writeAudit(ctx, r, actorUserID,
			model.AuditActionUpdateStock, model.AuditResourceVariant, variantID,
			map[string]int64{"stock": v.Stock},
			map[string]interface{}{"stock": *in.Stock, "reason": reason},
		); err != nil {
			return err
		}

		out = StockOutput{VariantID: variantID, ProductID: v.ProductID, Before: v.Stock, After: *in.Stock}
		return nil
	})
	if err != nil {
		return StockOutput{}, err
	}
	return out, nil
}

// thresholdがnilなら設定値
func (u *InventoryUsecase) ListLowStock(ctx context.Context, threshold *int64, limit int) ([]repo.LowStockRow, error) {
	t := u.lowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid threshold")
		}
		t = *threshold
	}
	if limit == 0 {
		limit = 100
	}
	if limit < 1 || limit > 500 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	rows, err := u.inventoryRepo.ListLowStock(ctx, t, limit)
	if err != nil {
		return nil, errDB()
	}
	if rows == nil {
		rows = []repo.LowStockRow{}
	}
	return rows, nil
}
