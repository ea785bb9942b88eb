package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

type AdminOrderUsecase struct {
	tx  repo.TransactionManager
	log Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, log Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if err := validatePaging(f.Page, f.Limit, ""); err != nil {
		return OrderListOutput{}, err
	}
	if f.Status != "" {
		st, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(f.Status)))
		if !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = string(st)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return errDB()
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errDB()
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ステータス更新（PENDING/PAIDからのCANCELED・REFUNDEDは在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized()
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot change %s order to %s", o.Status, next))
		}

		if o.Status.RestocksOn(next) {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return errDB()
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.VariantID, it.Quantity); err != nil {
					return errDB()
				}
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					VariantID:   it.VariantID,
					ActorUserID: actorAdminUserID,
					Delta:       it.Quantity,
					Reason:      fmt.Sprintf("order %d %s", orderID, strings.ToLower(string(next))),
				}); err != nil {
					return errDB()
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, o.Status, next); err != nil {
			return statusWriteError(err)
		}

		if err := writeAudit(ctx, r, actorAdminUserID,
			model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(o.Status)},
			map[string]string{"status": string(next)},
		); err != nil {
			return err
		}

		u.log.Infof("order status changed: id=%d %s -> %s by=%d", orderID, o.Status, next, actorAdminUserID)
		return nil
	})
}
