package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	"menswear/internal/pairing"
	repo "menswear/internal/repository"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// 組み合わせ提案の件数（種類ごと）
const defaultPairingLimit = 6

type ProductUsecase struct {
	productRepo repo.ProductRepository
	variantRepo repo.VariantRepository
	pairings    *pairing.Table
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
	pairings *pairing.Table,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		variantRepo: variantRepo,
		pairings:    pairings,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Category string
	Color    string
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := validatePaging(in.Page, in.Limit, in.Sort); err != nil {
		return ProductListOutput{}, err
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}

	category := ""
	if strings.TrimSpace(in.Category) != "" {
		c, ok := model.ParseCategory(in.Category)
		if !ok {
			return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid category")
		}
		category = string(c)
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Category: category,
		Color:    pairing.NormalizeColor(in.Color),
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, errDB()
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 公開中の商品だけ返す（非公開・削除済みは404）
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	if !p.IsActive {
		return model.Product{}, errNotFound()
	}
	return p, nil
}

func (u *ProductUsecase) GetProductByHandle(ctx context.Context, handle string) (model.Product, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid handle")
	}

	p, err := u.productRepo.FindByHandle(ctx, handle)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	if !p.IsActive {
		return model.Product{}, errNotFound()
	}
	return p, nil
}

type PairingOutput struct {
	ProductID       int64                   `json:"product_id"`
	ColorFamily     string                  `json:"color_family"`
	Label           string                  `json:"label"`
	SmartAttributes pairing.SmartAttributes `json:"smart_attributes"`
	Recommendation  *pairing.Recommendation `json:"recommendation,omitempty"`
	Ties            []model.Product         `json:"ties"`
	Shirts          []model.Product         `json:"shirts"`
	Suits           []model.Product         `json:"suits"`
}

// 組み合わせ提案。
// スーツ・アウター → タイとシャツ、シャツ → タイ、タイ → そのタイ色を推すスーツ。
func (u *ProductUsecase) GetPairings(ctx context.Context, productID int64, limit int) (PairingOutput, error) {
	if limit <= 0 {
		limit = defaultPairingLimit
	}
	if limit > 24 {
		return PairingOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	p, err := u.GetProductDetail(ctx, productID)
	if err != nil {
		return PairingOutput{}, err
	}

	family := pairing.NormalizeColor(p.ColorFamily)
	out := PairingOutput{
		ProductID:   p.ID,
		ColorFamily: family,
		Label:       pairing.Label(family),
		Ties:        []model.Product{},
		Shirts:      []model.Product{},
		Suits:       []model.Product{},
	}

	// 保存済みの属性が読めなければ表から作る
	if len(p.SmartAttributes) == 0 || json.Unmarshal(p.SmartAttributes, &out.SmartAttributes) != nil {
		out.SmartAttributes = u.pairings.SmartAttributesFor(string(p.Category), family)
	}

	rec, ok := u.pairings.Lookup(family)
	if ok {
		out.Recommendation = &rec
	}

	find := func(category model.Category, colors []string) ([]model.Product, error) {
		if len(colors) == 0 {
			return []model.Product{}, nil
		}
		items, _, err := u.productRepo.ListByRules(ctx, repo.RuleQuery{
			Rules: model.CollectionRules{
				Match:         model.RuleMatchAll,
				Categories:    []string{string(category)},
				ColorFamilies: colors,
				InStockOnly:   true,
			},
			Page:      1,
			Limit:     limit,
			Sort:      "new",
			ExcludeID: p.ID,
		})
		return items, err
	}

	switch p.Category {
	case model.CategorySuits, model.CategoryOuterwear:
		if ok {
			if out.Ties, err = find(model.CategoryTies, rec.Ties); err != nil {
				return PairingOutput{}, errDB()
			}
			if out.Shirts, err = find(model.CategoryShirts, rec.Shirts); err != nil {
				return PairingOutput{}, errDB()
			}
		}
	case model.CategoryShirts:
		if ok {
			if out.Ties, err = find(model.CategoryTies, rec.Ties); err != nil {
				return PairingOutput{}, errDB()
			}
		}
	case model.CategoryTies:
		if out.Suits, err = find(model.CategorySuits, u.pairings.GarmentsForTie(family)); err != nil {
			return PairingOutput{}, errDB()
		}
	}

	return out, nil
}

type VariantInput struct {
	SKU           string `json:"sku"`
	Size          string `json:"size"`
	Color         string `json:"color"`
	Material      string `json:"material"`
	PriceOverride *int64 `json:"price_override"`
	Stock         int64  `json:"stock"`
}

type AdminProductInput struct {
	Name            string
	Handle          string
	Description     string
	Category        string
	Brand           string
	ColorFamily     string
	Price           int64
	CompareAtPrice  *int64
	Tags            []string
	SmartAttributes json.RawMessage
	IsActive        bool
	Variants        []VariantInput
}

func (in AdminProductInput) validate() (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", NewHTTPError(http.StatusBadRequest, "name required")
	}
	c, ok := model.ParseCategory(in.Category)
	if !ok {
		return "", NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	if in.Price < 0 {
		return "", NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.CompareAtPrice != nil && *in.CompareAtPrice < 0 {
		return "", NewHTTPError(http.StatusBadRequest, "compare_at_price must be >= 0")
	}
	if len(in.SmartAttributes) > 0 && !json.Valid(in.SmartAttributes) {
		return "", NewHTTPError(http.StatusBadRequest, "invalid smart_attributes")
	}
	return c, nil
}

func (in VariantInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return NewHTTPError(http.StatusBadRequest, "sku required")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.PriceOverride != nil && *in.PriceOverride < 0 {
		return NewHTTPError(http.StatusBadRequest, "price_override must be >= 0")
	}
	return nil
}

func (in VariantInput) toModel(productID int64) model.ProductVariant {
	return model.ProductVariant{
		ProductID:     productID,
		SKU:           strings.ToUpper(strings.TrimSpace(in.SKU)),
		Size:          strings.TrimSpace(in.Size),
		Color:         strings.TrimSpace(in.Color),
		Material:      strings.TrimSpace(in.Material),
		PriceOverride: in.PriceOverride,
		Stock:         in.Stock,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized()
	}
	category, err := in.validate()
	if err != nil {
		return model.Product{}, err
	}

	handle, err := resolveHandle(in.Handle, in.Name)
	if err != nil {
		return model.Product{}, err
	}

	seen := make(map[string]struct{}, len(in.Variants))
	variants := make([]model.ProductVariant, 0, len(in.Variants))
	for _, v := range in.Variants {
		if err := v.validate(); err != nil {
			return model.Product{}, err
		}
		mv := v.toModel(0)
		if _, dup := seen[mv.SKU]; dup {
			return model.Product{}, NewHTTPError(http.StatusConflict, "duplicate sku: "+mv.SKU)
		}
		seen[mv.SKU] = struct{}{}
		variants = append(variants, mv)
	}

	family := pairing.NormalizeColor(in.ColorFamily)

	// 属性の指定が無ければ組み合わせ表から作る
	attrs := datatypes.JSON(in.SmartAttributes)
	if len(attrs) == 0 {
		b, err := json.Marshal(u.pairings.SmartAttributesFor(string(category), family))
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		attrs = datatypes.JSON(b)
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:            strings.TrimSpace(in.Name),
		Handle:          handle,
		Description:     in.Description,
		Category:        category,
		Brand:           strings.TrimSpace(in.Brand),
		ColorFamily:     family,
		Price:           in.Price,
		CompareAtPrice:  in.CompareAtPrice,
		Tags:            pq.StringArray(cleanTags(in.Tags)),
		SmartAttributes: attrs,
		IsActive:        in.IsActive,
		Variants:        variants,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Product{}, NewHTTPError(http.StatusConflict, "handle or sku already exists")
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	return p, nil
}

// 在庫・バリアントはここでは変えない。属性は指定時のみ置き換える
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized()
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	category, err := in.validate()
	if err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}

	handle := p.Handle
	if strings.TrimSpace(in.Handle) != "" {
		if handle, err = resolveHandle(in.Handle, in.Name); err != nil {
			return model.Product{}, err
		}
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Handle = handle
	p.Description = in.Description
	p.Category = category
	p.Brand = strings.TrimSpace(in.Brand)
	p.ColorFamily = pairing.NormalizeColor(in.ColorFamily)
	p.Price = in.Price
	p.CompareAtPrice = in.CompareAtPrice
	p.Tags = pq.StringArray(cleanTags(in.Tags))
	p.IsActive = in.IsActive
	if len(in.SmartAttributes) > 0 {
		p.SmartAttributes = datatypes.JSON(in.SmartAttributes)
	}

	err = u.productRepo.Update(ctx, p)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if errors.Is(err, repo.ErrConflict) {
		return model.Product{}, NewHTTPError(http.StatusConflict, "handle already exists")
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	return nil
}

func (u *ProductUsecase) AdminCreateVariant(ctx context.Context, adminUserID int64, productID int64, in VariantInput) (model.ProductVariant, error) {
	if adminUserID <= 0 {
		return model.ProductVariant{}, errUnauthorized()
	}
	if productID <= 0 {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.ProductVariant{}, err
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.ProductVariant{}, errNotFound()
		}
		return model.ProductVariant{}, errDB()
	}

	v, err := u.variantRepo.Create(ctx, in.toModel(productID))
	if errors.Is(err, repo.ErrConflict) {
		return model.ProductVariant{}, NewHTTPError(http.StatusConflict, "sku already exists")
	}
	if err != nil {
		return model.ProductVariant{}, errDB()
	}
	return v, nil
}

// 在庫は/admin/inventoryからのみ変更する
func (u *ProductUsecase) AdminUpdateVariant(ctx context.Context, adminUserID int64, variantID int64, in VariantInput) (model.ProductVariant, error) {
	if adminUserID <= 0 {
		return model.ProductVariant{}, errUnauthorized()
	}
	if variantID <= 0 {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if err := in.validate(); err != nil {
		return model.ProductVariant{}, err
	}

	v, err := u.variantRepo.FindByID(ctx, variantID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductVariant{}, errNotFound()
	}
	if err != nil {
		return model.ProductVariant{}, errDB()
	}

	next := in.toModel(v.ProductID)
	next.ID = v.ID
	next.Stock = v.Stock

	err = u.variantRepo.Update(ctx, next)
	if errors.Is(err, repo.ErrConflict) {
		return model.ProductVariant{}, NewHTTPError(http.StatusConflict, "sku already exists")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductVariant{}, errNotFound()
	}
	if err != nil {
		return model.ProductVariant{}, errDB()
	}
	return next, nil
}

func (u *ProductUsecase) AdminDeleteVariant(ctx context.Context, adminUserID int64, variantID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if variantID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}

	err := u.variantRepo.SoftDelete(ctx, variantID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	return nil
}

// handle指定があれば検証、無ければ名前から作る
func resolveHandle(handle, name string) (string, error) {
	if strings.TrimSpace(handle) == "" {
		handle = name
	}
	h := Slugify(handle)
	if h == "" {
		return "", NewHTTPError(http.StatusBadRequest, "invalid handle")
	}
	if len(h) > 255 {
		return "", NewHTTPError(http.StatusBadRequest, "handle too long")
	}
	return h, nil
}

// 小文字にして英数字以外を"-"にする
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
