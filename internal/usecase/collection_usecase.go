package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/datatypes"
)

// プレビューで返す件数
const previewLimit = 20

type CollectionUsecase struct {
	tx             repo.TransactionManager
	collectionRepo repo.CollectionRepository
	productRepo    repo.ProductRepository
}

func NewCollectionUsecase(
	tx repo.TransactionManager,
	collectionRepo repo.CollectionRepository,
	productRepo repo.ProductRepository,
) *CollectionUsecase {
	return &CollectionUsecase{tx: tx, collectionRepo: collectionRepo, productRepo: productRepo}
}

type CollectionInput struct {
	Name        string
	Handle      string
	Description string
	Rules       model.CollectionRules
	Sort        string
	IsActive    bool
}

// ルールの正規化と検証。不正なら400
func normalizeRules(rules model.CollectionRules) (model.CollectionRules, error) {
	r := rules.Normalize()
	if err := r.Validate(); err != nil {
		return model.CollectionRules{}, NewHTTPError(http.StatusBadRequest, "invalid rules: "+err.Error())
	}
	return r, nil
}

func (in CollectionInput) toModel() (model.Collection, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Collection{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if err := validatePaging(1, 1, in.Sort); err != nil {
		return model.Collection{}, err
	}
	handle, err := resolveHandle(in.Handle, in.Name)
	if err != nil {
		return model.Collection{}, err
	}
	rules, err := normalizeRules(in.Rules)
	if err != nil {
		return model.Collection{}, err
	}
	sort := in.Sort
	if sort == "" {
		sort = "new"
	}
	return model.Collection{
		Name:        strings.TrimSpace(in.Name),
		Handle:      handle,
		Description: in.Description,
		Rules:       datatypes.NewJSONType(rules),
		Sort:        sort,
		IsActive:    in.IsActive,
	}, nil
}

func (u *CollectionUsecase) ListPublic(ctx context.Context) ([]model.Collection, error) {
	list, err := u.collectionRepo.List(ctx, true)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *CollectionUsecase) GetPublicByHandle(ctx context.Context, handle string) (model.Collection, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return model.Collection{}, NewHTTPError(http.StatusBadRequest, "invalid handle")
	}

	c, err := u.collectionRepo.FindByHandle(ctx, handle)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Collection{}, errNotFound()
	}
	if err != nil {
		return model.Collection{}, errDB()
	}
	if !c.IsActive {
		return model.Collection{}, errNotFound()
	}
	return c, nil
}

type CollectionProductsOutput struct {
	Collection model.Collection `json:"collection"`
	Items      []model.Product  `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// sortが空ならコレクションの既定の並び
func (u *CollectionUsecase) ListProducts(ctx context.Context, handle string, page, limit int, sort string) (CollectionProductsOutput, error) {
	if err := validatePaging(page, limit, sort); err != nil {
		return CollectionProductsOutput{}, err
	}

	c, err := u.GetPublicByHandle(ctx, handle)
	if err != nil {
		return CollectionProductsOutput{}, err
	}
	if sort == "" {
		sort = c.Sort
	}

	items, total, err := u.productRepo.ListByRules(ctx, repo.RuleQuery{
		Rules: c.Rules.Data(),
		Page:  page,
		Limit: limit,
		Sort:  sort,
	})
	if err != nil {
		return CollectionProductsOutput{}, errDB()
	}

	return CollectionProductsOutput{
		Collection: c,
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (u *CollectionUsecase) AdminList(ctx context.Context) ([]model.Collection, error) {
	list, err := u.collectionRepo.List(ctx, false)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *CollectionUsecase) AdminGet(ctx context.Context, id int64) (model.Collection, error) {
	if id <= 0 {
		return model.Collection{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.collectionRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Collection{}, errNotFound()
	}
	if err != nil {
		return model.Collection{}, errDB()
	}
	return c, nil
}

func (u *CollectionUsecase) AdminCreate(ctx context.Context, actorUserID int64, in CollectionInput) (model.Collection, error) {
	if actorUserID <= 0 {
		return model.Collection{}, errUnauthorized()
	}
	c, err := in.toModel()
	if err != nil {
		return model.Collection{}, err
	}

	var created model.Collection
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err = r.Collections().Create(ctx, c)
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "handle already exists")
		}
		if err != nil {
			return errDB()
		}
		return writeAudit(ctx, r, actorUserID,
			model.AuditActionUpdateCollection, model.AuditResourceCollection, created.ID,
			nil, created)
	})
	if err != nil {
		return model.Collection{}, err
	}
	return created, nil
}

func (u *CollectionUsecase) AdminUpdate(ctx context.Context, actorUserID int64, id int64, in CollectionInput) (model.Collection, error) {
	if actorUserID <= 0 {
		return model.Collection{}, errUnauthorized()
	}
	if id <= 0 {
		return model.Collection{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next, err := in.toModel()
	if err != nil {
		return model.Collection{}, err
	}
	next.ID = id

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Collections().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		next.CreatedAt = before.CreatedAt

		err = r.Collections().Update(ctx, next)
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "handle already exists")
		}
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		return writeAudit(ctx, r, actorUserID,
			model.AuditActionUpdateCollection, model.AuditResourceCollection, id,
			before, next)
	})
	if err != nil {
		return model.Collection{}, err
	}
	return next, nil
}

func (u *CollectionUsecase) AdminDelete(ctx context.Context, actorUserID int64, id int64) error {
	if actorUserID <= 0 {
		return errUnauthorized()
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Collections().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if err := r.Collections().Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return errDB()
		}
		return writeAudit(ctx, r, actorUserID,
			model.AuditActionUpdateCollection, model.AuditResourceCollection, id,
			before, nil)
	})
}

type PreviewOutput struct {
	Rules model.CollectionRules `json:"rules"`
	Count int64                 `json:"count"`
	Items []model.Product       `json:"items"`
}

// 保存前のルールを評価する
func (u *CollectionUsecase) Preview(ctx context.Context, rules model.CollectionRules, sort string) (PreviewOutput, error) {
	if err := validatePaging(1, previewLimit, sort); err != nil {
		return PreviewOutput{}, err
	}
	r, err := normalizeRules(rules)
	if err != nil {
		return PreviewOutput{}, err
	}

	items, total, err := u.productRepo.ListByRules(ctx, repo.RuleQuery{
		Rules: r,
		Page:  1,
		Limit: previewLimit,
		Sort:  sort,
	})
	if err != nil {
		return PreviewOutput{}, errDB()
	}
	return PreviewOutput{Rules: r, Count: total, Items: items}, nil
}
