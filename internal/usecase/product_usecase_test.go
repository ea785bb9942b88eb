package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"menswear/internal/domain/model"
	"menswear/internal/pairing"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProductUsecase() (*usecase.ProductUsecase, *ProductRepoMock, *VariantRepoMock) {
	products := new(ProductRepoMock)
	variants := new(VariantRepoMock)
	return usecase.NewProductUsecase(products, variants, pairing.Default()), products, variants
}

func TestProductUsecase_ListPublicProducts_Validation(t *testing.T) {
	uc, _, _ := newProductUsecase()
	ctx := context.Background()

	tests := []struct {
		name string
		in   usecase.ListProductsInput
		msg  string
	}{
		{"page", usecase.ListProductsInput{Page: 0, Limit: 20}, "invalid page"},
		{"limit", usecase.ListProductsInput{Page: 1, Limit: 101}, "invalid limit"},
		{"sort", usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "random"}, "invalid sort"},
		{"min", usecase.ListProductsInput{Page: 1, Limit: 20, MinPrice: int64Ptr(-1)}, "min_price must be >= 0"},
		{"range", usecase.ListProductsInput{Page: 1, Limit: 20, MinPrice: int64Ptr(10), MaxPrice: int64Ptr(5)}, "min_price must be <= max_price"},
		{"category", usecase.ListProductsInput{Page: 1, Limit: 20, Category: "hats"}, "invalid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ListPublicProducts(ctx, tt.in)
			assertHTTPError(t, err, http.StatusBadRequest, tt.msg)
		})
	}
}

func TestProductUsecase_ListPublicProducts_NormalizesFilters(t *testing.T) {
	uc, products, _ := newProductUsecase()

	products.On("ListPublic", mock.Anything, repo.ProductListQuery{
		Page:     1,
		Limit:    20,
		Q:        "oxford",
		Category: "shirts",
		Color:    "navy",
		Sort:     "price_asc",
	}).Return([]model.Product{{ID: 1}}, int64(1), nil)

	out, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20, Q: "  oxford ", Category: "Shirts", Color: " Navy", Sort: "price_asc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	products.AssertExpectations(t)
}

func TestProductUsecase_GetProductDetail_InactiveIsNotFound(t *testing.T) {
	uc, products, _ := newProductUsecase()
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, IsActive: false}, nil)

	_, err := uc.GetProductDetail(context.Background(), 1)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestProductUsecase_GetPairings_SuitFindsTiesAndShirts(t *testing.T) {
	uc, products, _ := newProductUsecase()

	suit := model.Product{ID: 1, Category: model.CategorySuits, ColorFamily: "navy", IsActive: true}
	products.On("FindByID", mock.Anything, int64(1)).Return(suit, nil)

	products.On("ListByRules", mock.Anything, mock.MatchedBy(func(q repo.RuleQuery) bool {
		return len(q.Rules.Categories) == 1 && q.Rules.Categories[0] == "ties" &&
			q.Rules.InStockOnly && q.ExcludeID == 1 && q.Limit == 6
	})).Return([]model.Product{{ID: 20, Category: model.CategoryTies}}, int64(1), nil)
	products.On("ListByRules", mock.Anything, mock.MatchedBy(func(q repo.RuleQuery) bool {
		return len(q.Rules.Categories) == 1 && q.Rules.Categories[0] == "shirts"
	})).Return([]model.Product{{ID: 30, Category: model.CategoryShirts}}, int64(1), nil)

	out, err := uc.GetPairings(context.Background(), 1, 0)
	require.NoError(t, err)
	require.NotNil(t, out.Recommendation)
	assert.Contains(t, out.Recommendation.Ties, "burgundy")
	assert.Len(t, out.Ties, 1)
	assert.Len(t, out.Shirts, 1)
	assert.Empty(t, out.Suits)
	assert.Equal(t, "formal", out.SmartAttributes.Formality)
}

func TestProductUsecase_GetPairings_TieFindsSuits(t *testing.T) {
	uc, products, _ := newProductUsecase()

	tie := model.Product{ID: 2, Category: model.CategoryTies, ColorFamily: "burgundy", IsActive: true}
	products.On("FindByID", mock.Anything, int64(2)).Return(tie, nil)
	products.On("ListByRules", mock.Anything, mock.MatchedBy(func(q repo.RuleQuery) bool {
		return q.Rules.Categories[0] == "suits" && len(q.Rules.ColorFamilies) > 0
	})).Return([]model.Product{{ID: 1}}, int64(1), nil)

	out, err := uc.GetPairings(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Len(t, out.Suits, 1)
	assert.Empty(t, out.Ties)
}

func TestProductUsecase_GetPairings_LimitTooLarge(t *testing.T) {
	uc, _, _ := newProductUsecase()
	_, err := uc.GetPairings(context.Background(), 1, 25)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid limit")
}

func TestProductUsecase_AdminCreateProduct_DuplicateSKU(t *testing.T) {
	uc, products, _ := newProductUsecase()

	_, err := uc.AdminCreateProduct(context.Background(), 9, usecase.AdminProductInput{
		Name:     "Navy Suit",
		Category: "suits",
		Price:    59900,
		Variants: []usecase.VariantInput{{SKU: "ns-40r"}, {SKU: "NS-40R "}},
	})
	assertHTTPError(t, err, http.StatusConflict, "duplicate sku: NS-40R")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_AdminCreateProduct_DerivesHandleAndAttributes(t *testing.T) {
	uc, products, _ := newProductUsecase()

	products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Handle == "navy-wool-suit" &&
			p.ColorFamily == "navy" &&
			len(p.SmartAttributes) > 0 &&
			len(p.Variants) == 1 && p.Variants[0].SKU == "NWS-40R" &&
			len(p.Tags) == 1
	})).Return(model.Product{ID: 1, Handle: "navy-wool-suit"}, nil)

	p, err := uc.AdminCreateProduct(context.Background(), 9, usecase.AdminProductInput{
		Name:        "Navy Wool Suit",
		Category:    "Suits",
		ColorFamily: "Navy",
		Price:       59900,
		Tags:        []string{"wool", "wool", " "},
		Variants:    []usecase.VariantInput{{SKU: "nws-40r", Size: "40R", Stock: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	products.AssertExpectations(t)
}

func TestProductUsecase_AdminUpdateVariant_KeepsStock(t *testing.T) {
	uc, _, variants := newProductUsecase()

	variants.On("FindByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, ProductID: 1, SKU: "A", Stock: 7}, nil)
	variants.On("Update", mock.Anything, mock.MatchedBy(func(v model.ProductVariant) bool {
		return v.ID == 100 && v.Stock == 7 && v.SKU == "B"
	})).Return(nil)

	v, err := uc.AdminUpdateVariant(context.Background(), 9, 100, usecase.VariantInput{SKU: "b", Stock: 99})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Stock)
}

func TestProductUsecase_AdminDeleteProduct_NotFound(t *testing.T) {
	uc, products, _ := newProductUsecase()
	products.On("SoftDelete", mock.Anything, int64(5)).Return(repo.ErrNotFound)

	err := uc.AdminDeleteProduct(context.Background(), 9, 5)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "navy-wool-suit", usecase.Slugify("  Navy Wool  Suit! "))
	assert.Equal(t, "40r-slim", usecase.Slugify("40R / Slim"))
	assert.Equal(t, "", usecase.Slugify("!!!"))
}
