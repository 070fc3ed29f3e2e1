package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is the immutable ledger entry. A completed row and its
// balance mutation are written in one database transaction; once
// completed, amount and balances never change: only administrative
// annotations may be added.
type Transaction struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	TxRef  string `gorm:"uniqueIndex;size:64;not null" json:"tx_ref"`
	UserID uint   `gorm:"not null;index" json:"user_id"`

	Type     string          `gorm:"size:20;not null;index" json:"type"`
	Category string          `gorm:"size:30" json:"category"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency string          `gorm:"size:10;not null;default:'USDT'" json:"currency"`
	Status   string          `gorm:"size:20;not null;index" json:"status"`

	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance_after"`

	// Earning context: set on ROI accrual rows. EarningDate (YYYY-MM-DD)
	// is the idempotence tag: one earning per subscription per date. The
	// composite index is unique so a concurrent writer that slips past
	// the in-transaction guard still cannot insert a second row (rows
	// with a NULL subscription id never collide).
	PortfolioID    *uint  `gorm:"index" json:"portfolio_id,omitempty"`
	SubscriptionID *uint  `gorm:"uniqueIndex:idx_tx_sub_earning_date" json:"subscription_id,omitempty"`
	EarningDate    string `gorm:"size:10;uniqueIndex:idx_tx_sub_earning_date" json:"earning_date,omitempty"`

	// Referral context: set on commission rows so every distribution is
	// replayable and auditable.
	SourceUserID        *uint            `json:"source_user_id,omitempty"`
	SourceTransactionID *uint            `gorm:"index" json:"source_transaction_id,omitempty"`
	ReferralLevel       int              `json:"referral_level,omitempty"`
	ReferralRate        *decimal.Decimal `gorm:"type:decimal(10,4)" json:"referral_rate,omitempty"`

	// Manual flow context.
	PaymentMethod   string `gorm:"size:30" json:"payment_method,omitempty"`
	PaymentProofURL string `gorm:"size:512" json:"payment_proof_url,omitempty"`
	Destination     string `gorm:"size:255" json:"destination,omitempty"`

	ProcessedByID *uint  `json:"processed_by_id,omitempty"`
	ApprovedByID  *uint  `json:"approved_by_id,omitempty"`
	RejectedByID  *uint  `json:"rejected_by_id,omitempty"`
	AdminNotes    string `gorm:"size:500" json:"admin_notes,omitempty"`
	RejectReason  string `gorm:"size:500" json:"reject_reason,omitempty"`

	InitiatedAt time.Time  `gorm:"not null" json:"initiated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	RetryCount int    `gorm:"not null;default:0" json:"retry_count"`
	LastError  string `gorm:"size:500" json:"last_error,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Transaction) TableName() string { return "transactions" }
