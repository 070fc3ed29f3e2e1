package models

import (
	"time"

	"growvest/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	Email        string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string  `gorm:"size:255" json:"-"`
	Role         string  `gorm:"size:20;not null;index;default:'USER'" json:"role"` // USER | ADMIN
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
	GoogleID     *string `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups

	// Wallet balance and lifetime aggregates. Mutated only by the ledger
	// service, inside the per-user lock.
	Balance          decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`
	TotalDeposited   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_deposited"`
	TotalWithdrawn   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_withdrawn"`
	TotalEarnings    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_earnings"`
	TotalCommissions decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_commissions"`

	ReferralCode    string `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredByID    *uint  `gorm:"index" json:"referred_by_id"`
	DirectReferrals int    `gorm:"not null;default:0" json:"direct_referrals"`
	TeamSize        int    `gorm:"not null;default:0" json:"team_size"`

	BotActive            bool   `gorm:"not null;default:false" json:"bot_active"`
	ActiveSubscriptionID *uint  `json:"active_subscription_id"`
	Rank                 string `gorm:"size:20;not null;default:'BRONZE'" json:"rank"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferredBy         *User         `gorm:"foreignKey:ReferredByID" json:"-"`
	ActiveSubscription *Subscription `gorm:"foreignKey:ActiveSubscriptionID" json:"active_subscription,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }
