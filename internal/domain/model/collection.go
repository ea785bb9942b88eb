package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"menswear/internal/pairing"

	"gorm.io/datatypes"
)

type RuleMatch string

const (
	RuleMatchAll RuleMatch = "all"
	RuleMatchAny RuleMatch = "any"
)

// 1つの条件に並べられる値の上限
const MaxRuleValues = 50

// コレクションの絞り込み条件。
// 条件ごとに1つの述語になり、matchがallならAND、anyならORで結ぶ。
type CollectionRules struct {
	Match         RuleMatch         `json:"match,omitempty"`
	ColorFamilies []string          `json:"color_families,omitempty"`
	Categories    []string          `json:"categories,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	PriceMin      *int64            `json:"price_min,omitempty"`
	PriceMax      *int64            `json:"price_max,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	InStockOnly   bool              `json:"in_stock_only,omitempty"`
}

var (
	ErrRuleMatch      = errors.New("match must be all or any")
	ErrRulePriceRange = errors.New("price_min must be <= price_max")
	ErrRulePrice      = errors.New("price must be >= 0")
	ErrRuleAttrKey    = errors.New("attribute key required")
)

// 空白除去・表記揃え・重複排除をした写しを返す。
// 色系統は商品に保存するときと同じ形（"Light Blue" → "light-blue"）にする
func (r CollectionRules) Normalize() CollectionRules {
	out := r
	out.Match = RuleMatch(strings.ToLower(strings.TrimSpace(string(r.Match))))
	if out.Match == "" {
		out.Match = RuleMatchAll
	}
	out.ColorFamilies = normalizeValues(r.ColorFamilies, pairing.NormalizeColor)
	out.Categories = normalizeValues(r.Categories, strings.ToLower)
	// タグは大文字小文字を区別する
	out.Tags = normalizeValues(r.Tags, strings.TrimSpace)
	if len(r.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

func (r CollectionRules) Validate() error {
	switch r.Match {
	case RuleMatchAll, RuleMatchAny:
	default:
		return ErrRuleMatch
	}
	for _, list := range [][]string{r.ColorFamilies, r.Categories, r.Tags} {
		if len(list) > MaxRuleValues {
			return fmt.Errorf("too many values (max %d)", MaxRuleValues)
		}
	}
	for _, c := range r.Categories {
		if _, ok := ParseCategory(c); !ok {
			return fmt.Errorf("unknown category: %s", c)
		}
	}
	if (r.PriceMin != nil && *r.PriceMin < 0) || (r.PriceMax != nil && *r.PriceMax < 0) {
		return ErrRulePrice
	}
	if r.PriceMin != nil && r.PriceMax != nil && *r.PriceMin > *r.PriceMax {
		return ErrRulePriceRange
	}
	if len(r.Attributes) > MaxRuleValues {
		return fmt.Errorf("too many values (max %d)", MaxRuleValues)
	}
	for k := range r.Attributes {
		if k == "" {
			return ErrRuleAttrKey
		}
	}
	return nil
}

// 条件が1つも無い（＝公開商品すべて）
func (r CollectionRules) IsEmpty() bool {
	return len(r.ColorFamilies) == 0 && len(r.Categories) == 0 && len(r.Tags) == 0 &&
		r.PriceMin == nil && r.PriceMax == nil && len(r.Attributes) == 0 && !r.InStockOnly
}

// 属性キーを安定した順で返す（SQLの並びを固定するため）
func (r CollectionRules) AttributeKeys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeValues(in []string, norm func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = norm(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type Collection struct {
	ID          int64                               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string                              `gorm:"type:varchar(255);not null" json:"name"`
	Handle      string                              `gorm:"type:varchar(255);not null;uniqueIndex" json:"handle"`
	Description string                              `gorm:"type:text" json:"description"`
	Rules       datatypes.JSONType[CollectionRules] `gorm:"type:jsonb;not null" json:"rules"`
	Sort        string                              `gorm:"type:varchar(20);not null;default:'new'" json:"sort"`
	IsActive    bool                                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time                           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                           `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
