package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

type SupplierUsecase struct {
	tx          repo.TransactionManager
	suppliers   repo.SupplierRepository
	pos         repo.PurchaseOrderRepository
	variantRepo repo.VariantRepository
	log         Logger
}

func NewSupplierUsecase(
	tx repo.TransactionManager,
	suppliers repo.SupplierRepository,
	pos repo.PurchaseOrderRepository,
	variantRepo repo.VariantRepository,
	log Logger,
) *SupplierUsecase {
	return &SupplierUsecase{tx: tx, suppliers: suppliers, pos: pos, variantRepo: variantRepo, log: log}
}

type SupplierInput struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	ContactName  string `json:"contact_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	LeadTimeDays int    `json:"lead_time_days"`
	IsActive     *bool  `json:"is_active"`
}

func (in SupplierInput) toModel() (model.Supplier, error) {
	s := model.Supplier{
		Name:         strings.TrimSpace(in.Name),
		Code:         strings.ToUpper(strings.TrimSpace(in.Code)),
		ContactName:  strings.TrimSpace(in.ContactName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		LeadTimeDays: in.LeadTimeDays,
		IsActive:     true,
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	if s.Name == "" || s.Code == "" {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "name and code required")
	}
	if len(s.Code) > 50 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "code too long")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "invalid email")
		}
	}
	if s.LeadTimeDays < 0 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "lead_time_days must be >= 0")
	}
	return s, nil
}

func (u *SupplierUsecase) List(ctx context.Context, activeOnly bool) ([]model.Supplier, error) {
	list, err := u.suppliers.List(ctx, activeOnly)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *SupplierUsecase) Get(ctx context.Context, id int64) (model.Supplier, error) {
	if id <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := u.suppliers.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Supplier{}, errNotFound()
	}
	if err != nil {
		return model.Supplier{}, errDB()
	}
	return s, nil
}

func (u *SupplierUsecase) Create(ctx context.Context, in SupplierInput) (model.Supplier, error) {
	s, err := in.toModel()
	if err != nil {
		return model.Supplier{}, err
	}
	created, err := u.suppliers.Create(ctx, s)
	if errors.Is(err, repo.ErrConflict) {
		return model.Supplier{}, NewHTTPError(http.StatusConflict, "supplier code already exists")
	}
	if err != nil {
		return model.Supplier{}, errDB()
	}
	return created, nil
}

func (u *SupplierUsecase) Update(ctx context.Context, id int64, in SupplierInput) (model.Supplier, error) {
	current, err := u.Get(ctx, id)
	if err != nil {
		return model.Supplier{}, err
	}
	if in.IsActive == nil {
		in.IsActive = &current.IsActive
	}
	s, err := in.toModel()
	if err != nil {
		return model.Supplier{}, err
	}
	s.ID = id
	s.CreatedAt = current.CreatedAt

	err = u.suppliers.Update(ctx, s)
	if errors.Is(err, repo.ErrConflict) {
		return model.Supplier{}, NewHTTPError(http.StatusConflict, "supplier code already exists")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Supplier{}, errNotFound()
	}
	if err != nil {
		return model.Supplier{}, errDB()
	}
	return s, nil
}

func (u *SupplierUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.suppliers.SoftDelete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	return nil
}

type PurchaseOrderItemInput struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
	UnitCost  int64 `json:"unit_cost"`
}

type PurchaseOrderInput struct {
	SupplierID int64
	Notes      string
	ExpectedAt *time.Time
	Items      []PurchaseOrderItemInput
}

type PurchaseOrderListOutput struct {
	Items []model.PurchaseOrder `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// 稼働中の仕入先だけ
func (u *SupplierUsecase) activeSupplier(ctx context.Context, id int64) error {
	s, err := u.suppliers.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid supplier")
	}
	if err != nil {
		return errDB()
	}
	if !s.IsActive {
		return NewHTTPError(http.StatusConflict, "supplier is inactive")
	}
	return nil
}

func (u *SupplierUsecase) CreatePurchaseOrder(ctx context.Context, actorUserID int64, in PurchaseOrderInput) (model.PurchaseOrder, error) {
	if actorUserID <= 0 {
		return model.PurchaseOrder{}, errUnauthorized()
	}
	if in.SupplierID <= 0 {
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "invalid supplier_id")
	}
	if len(in.Items) == 0 {
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	if err := u.activeSupplier(ctx, in.SupplierID); err != nil {
		return model.PurchaseOrder{}, err
	}

	items := make([]model.PurchaseOrderItem, 0, len(in.Items))
	var totalCost int64
	for _, it := range in.Items {
		if it.VariantID <= 0 || it.Quantity <= 0 {
			return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
		}
		if it.UnitCost < 0 {
			return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "unit_cost must be >= 0")
		}
		if _, err := u.variantRepo.FindByID(ctx, it.VariantID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid variant: %d", it.VariantID))
			}
			return model.PurchaseOrder{}, errDB()
		}
		items = append(items, model.PurchaseOrderItem{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
		totalCost += it.Quantity * it.UnitCost
	}

	po, err := u.pos.Create(ctx, model.PurchaseOrder{
		SupplierID: in.SupplierID,
		Status:     model.POStatusDraft,
		TotalCost:  totalCost,
		Notes:      strings.TrimSpace(in.Notes),
		ExpectedAt: in.ExpectedAt,
		CreatedBy:  actorUserID,
		Items:      items,
	})
	if err != nil {
		return model.PurchaseOrder{}, errDB()
	}
	return po, nil
}

func (u *SupplierUsecase) ListPurchaseOrders(ctx context.Context, f repo.PurchaseOrderListFilter) (PurchaseOrderListOutput, error) {
	if err := validatePaging(f.Page, f.Limit, ""); err != nil {
		return PurchaseOrderListOutput{}, err
	}
	if f.Status != "" {
		f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
		switch model.PurchaseOrderStatus(f.Status) {
		case model.POStatusDraft, model.POStatusOrdered, model.POStatusReceived, model.POStatusCanceled:
		default:
			return PurchaseOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	list, total, err := u.pos.List(ctx, f)
	if err != nil {
		return PurchaseOrderListOutput{}, errDB()
	}
	return PurchaseOrderListOutput{Items: list, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (u *SupplierUsecase) GetPurchaseOrder(ctx context.Context, id int64) (model.PurchaseOrder, error) {
	if id <= 0 {
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	po, err := u.pos.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.PurchaseOrder{}, errNotFound()
	}
	if err != nil {
		return model.PurchaseOrder{}, errDB()
	}
	return po, nil
}

// ORDERED・CANCELEDへの変更。入荷は Receive を使う
func (u *SupplierUsecase) UpdatePurchaseOrderStatus(ctx context.Context, actorUserID int64, id int64, status string) (model.PurchaseOrder, error) {
	if actorUserID <= 0 {
		return model.PurchaseOrder{}, errUnauthorized()
	}
	if id <= 0 {
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next := model.PurchaseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch next {
	case model.POStatusOrdered, model.POStatusCanceled:
	case model.POStatusReceived:
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "use receive endpoint")
	default:
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out model.PurchaseOrder
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		po, err := r.PurchaseOrders().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if po.Status == next {
			out = po
			return nil
		}
		if !po.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot change %s purchase order to %s", po.Status, next))
		}

		if next == model.POStatusOrdered {
			s, err := r.Suppliers().FindByID(ctx, po.SupplierID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return errDB()
			}
			if err != nil || !s.IsActive {
				return NewHTTPError(http.StatusConflict, "supplier is inactive")
			}
			now := time.Now()
			po.OrderedAt = &now
		}

		before := po.Status
		po.Status = next
		if err := r.PurchaseOrders().Save(ctx, po, before); err != nil {
			return statusWriteError(err)
		}
		if err := writeAudit(ctx, r, actorUserID,
			model.AuditActionUpdatePOStatus, model.AuditResourcePurchaseOrder, id,
			map[string]string{"status": string(before)},
			map[string]string{"status": string(next)},
		); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return model.PurchaseOrder{}, err
	}
	return out, nil
}

// 入荷：各明細の未入荷分を在庫に足す（調整履歴・監査ログも同じTx）
func (u *SupplierUsecase) Receive(ctx context.Context, actorUserID int64, id int64) (model.PurchaseOrder, error) {
	if actorUserID <= 0 {
		return model.PurchaseOrder{}, errUnauthorized()
	}
	if id <= 0 {
		return model.PurchaseOrder{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out model.PurchaseOrder
	var units int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		po, err := r.PurchaseOrders().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if !po.Status.CanTransitionTo(model.POStatusReceived) {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot receive %s purchase order", po.Status))
		}

		for i, it := range po.Items {
			remaining := it.Quantity - it.ReceivedQuantity
			if remaining <= 0 {
				continue
			}
			if err := r.Inventory().IncreaseStock(ctx, it.VariantID, remaining); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusConflict, fmt.Sprintf("variant %d no longer exists", it.VariantID))
				}
				return errDB()
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				VariantID:   it.VariantID,
				ActorUserID: actorUserID,
				Delta:       remaining,
				Reason:      fmt.Sprintf("purchase order %d received", id),
			}); err != nil {
				return errDB()
			}
			if err := r.PurchaseOrders().SetReceivedQuantity(ctx, it.ID, it.Quantity); err != nil {
				return errDB()
			}
			po.Items[i].ReceivedQuantity = it.Quantity
			units += remaining
		}

		before := po.Status
		now := time.Now()
		po.Status = model.POStatusReceived
		po.ReceivedAt = &now
		if err := r.PurchaseOrders().Save(ctx, po, before); err != nil {
			return statusWriteError(err)
		}

		if err := writeAudit(ctx, r, actorUserID,
			model.AuditActionReceivePO, model.AuditResourcePurchaseOrder, id,
			map[string]string{"status": string(before)},
			map[string]interface{}{"status": po.Status, "units": units},
		); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return model.PurchaseOrder{}, err
	}

	u.log.Infof("purchase order received: id=%d units=%d by=%d", id, units, actorUserID)
	return out, nil
}
