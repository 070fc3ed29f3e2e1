package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription is a user's active stake in a portfolio, created when an
// admin approves a portfolio-tagged deposit. Principal never changes; the
// accrual engine reads it daily until the return cap or duration closes
// the subscription.
type Subscription struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	PortfolioID          uint            `gorm:"not null;index" json:"portfolio_id"`
	Principal            decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"principal"`
	DepositTransactionID uint            `gorm:"not null" json:"deposit_transaction_id"`
	ActivatedAt          time.Time       `gorm:"not null" json:"activated_at"`
	IsActive             bool            `gorm:"not null;default:true;index" json:"is_active"`
	ClosedAt             *time.Time      `json:"closed_at"`
	CloseReason          string          `gorm:"size:30" json:"close_reason"` // cap_reached | duration_elapsed
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`

	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Portfolio Portfolio `gorm:"foreignKey:PortfolioID" json:"portfolio,omitempty"`
}

func (Subscription) TableName() string { return "subscriptions" }

// ReturnCap is the lifetime payout ceiling: principal * totalReturnLimit / 100.
func (s *Subscription) ReturnCap(totalReturnLimit decimal.Decimal) decimal.Decimal {
	return s.Principal.Mul(totalReturnLimit).Div(decimal.NewFromInt(100))
}
