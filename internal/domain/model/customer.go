package model

import (
	"time"

	"gorm.io/datatypes"
)

type CustomerTier string

const (
	TierBronze   CustomerTier = "BRONZE"
	TierSilver   CustomerTier = "SILVER"
	TierGold     CustomerTier = "GOLD"
	TierPlatinum CustomerTier = "PLATINUM"
)

// 累計購入額（セント）のしきい値
const (
	silverThreshold   int64 = 50_000
	goldThreshold     int64 = 200_000
	platinumThreshold int64 = 500_000
)

func TierForSpend(lifetimeSpend int64) CustomerTier {
	switch {
	case lifetimeSpend >= platinumThreshold:
		return TierPlatinum
	case lifetimeSpend >= goldThreshold:
		return TierGold
	case lifetimeSpend >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

func ParseTier(s string) (CustomerTier, bool) {
	t := CustomerTier(s)
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return t, true
	}
	return "", false
}

// 注文1件ごとに10点、$10ごとに1点
func EngagementPoints(orderTotal int64) int64 {
	if orderTotal < 0 {
		orderTotal = 0
	}
	return 10 + orderTotal/1000
}

// 採寸（インチ）
type SizeProfile struct {
	Chest  float64 `json:"chest,omitempty"`
	Waist  float64 `json:"waist,omitempty"`
	Inseam float64 `json:"inseam,omitempty"`
	Neck   float64 `json:"neck,omitempty"`
	Sleeve float64 `json:"sleeve,omitempty"`
	Shoe   float64 `json:"shoe,omitempty"`
	Fit    string  `json:"fit,omitempty"` // slim/classic/relaxed
}

type CustomerProfile struct {
	ID              int64                           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64                           `gorm:"not null;uniqueIndex" json:"user_id"`
	FirstName       string                          `gorm:"type:varchar(100)" json:"first_name"`
	LastName        string                          `gorm:"type:varchar(100)" json:"last_name"`
	Phone           string                          `gorm:"type:varchar(30)" json:"phone"`
	SizeProfile     datatypes.JSONType[SizeProfile] `gorm:"type:jsonb" json:"size_profile"`
	EngagementScore int64                           `gorm:"not null;default:0" json:"engagement_score"`
	Tier            CustomerTier                    `gorm:"type:varchar(20);not null;default:'BRONZE';index" json:"tier"`
	LifetimeSpend   int64                           `gorm:"not null;default:0" json:"lifetime_spend"`
	OrderCount      int64                           `gorm:"not null;default:0" json:"order_count"`
	LastOrderAt     *time.Time                      `json:"last_order_at,omitempty"`
	CreatedAt       time.Time                       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 支払い済み注文を反映する
func (p *CustomerProfile) RecordOrder(total int64, at time.Time) {
	p.OrderCount++
	p.LifetimeSpend += total
	p.EngagementScore += EngagementPoints(total)
	p.Tier = TierForSpend(p.LifetimeSpend)
	p.LastOrderAt = &at
}
