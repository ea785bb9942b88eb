package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category string

const (
	CategorySuits       Category = "suits"
	CategoryShirts      Category = "shirts"
	CategoryTies        Category = "ties"
	CategoryAccessories Category = "accessories"
	CategoryShoes       Category = "shoes"
	CategoryOuterwear   Category = "outerwear"
)

var categories = map[Category]struct{}{
	CategorySuits:       {},
	CategoryShirts:      {},
	CategoryTies:        {},
	CategoryAccessories: {},
	CategoryShoes:       {},
	CategoryOuterwear:   {},
}

// 小文字化してから判定する
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	_, ok := categories[c]
	return c, ok
}

// 価格はすべて最小通貨単位（セント）
type Product struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Handle          string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"handle"`
	Description     string         `gorm:"type:text" json:"description"`
	Category        Category       `gorm:"type:varchar(50);not null;index" json:"category"`
	Brand           string         `gorm:"type:varchar(100)" json:"brand"`
	ColorFamily     string         `gorm:"type:varchar(50);index" json:"color_family"`
	Price           int64          `gorm:"not null" json:"price"`
	CompareAtPrice  *int64         `json:"compare_at_price,omitempty"`
	TotalStock      int64          `gorm:"not null;default:0" json:"total_stock"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags"`
	SmartAttributes datatypes.JSON `gorm:"type:jsonb" json:"smart_attributes"`
	IsActive        bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// サイズ・色・素材ごとの在庫単位
type ProductVariant struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64          `gorm:"not null;index" json:"product_id"`
	SKU           string         `gorm:"column:sku;type:varchar(100);not null;uniqueIndex" json:"sku"`
	Size          string         `gorm:"type:varchar(30)" json:"size"`
	Color         string         `gorm:"type:varchar(50)" json:"color"`
	Material      string         `gorm:"type:varchar(100)" json:"material"`
	PriceOverride *int64         `json:"price_override,omitempty"`
	Stock         int64          `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// 実際の販売価格（上書きがあればそちら）
func (v ProductVariant) EffectivePrice(p Product) int64 {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return p.Price
}
