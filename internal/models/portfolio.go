package models

import (
	"time"

	"growvest/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio is an investment plan template. Financial terms are immutable
// once subscriptions exist against it; only the administrative fields
// (visibility, display order) change afterwards.
type Portfolio struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Tier             string          `gorm:"size:30;not null;index" json:"tier"`
	MinInvestment    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"min_investment"`
	MaxInvestment    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"max_investment"`
	DailyROI         decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"daily_roi"`           // percent per day
	TotalReturnLimit decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"total_return_limit"`  // percent of principal
	DurationValue    int             `gorm:"not null" json:"duration_value"`
	DurationUnit     string          `gorm:"size:10;not null;default:'days'" json:"duration_unit"` // days | months | years
	SubscriptionFee  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"subscription_fee"`
	SlotLimit        int             `gorm:"not null;default:0" json:"slot_limit"` // 0 = unlimited
	IsVisible        bool            `gorm:"not null;default:true" json:"is_visible"`
	DisplayOrder     int             `gorm:"not null;default:0" json:"display_order"`
	CreatedByID      uint            `gorm:"not null" json:"created_by_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Portfolio) TableName() string { return "portfolios" }

// DurationDays normalizes the plan duration to days.
func (p *Portfolio) DurationDays() int {
	switch p.DurationUnit {
	case domain.DurationUnitMonths:
		return p.DurationValue * 30
	case domain.DurationUnitYears:
		return p.DurationValue * 365
	default:
		return p.DurationValue
	}
}
