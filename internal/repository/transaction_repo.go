package repository

import (
	"growvest/internal/domain"
	"growvest/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByRef(txRef string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("tx_ref = ?", txRef).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Update(t *models.Transaction) error {
	return r.db.Save(t).Error
}

// LedgerFilter narrows ledger queries. Zero values mean "no filter".
type LedgerFilter struct {
	Type   string
	Status string
}

// ListByUser returns a user's ledger, newest first, paginated.
func (r *TransactionRepository) ListByUser(userID uint, f LedgerFilter, page, limit int) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Transaction
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListPending returns the admin review queue: pending/processing deposits
// and withdrawals, oldest first.
func (r *TransactionRepository) ListPending(page, limit int) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{}).
		Where("status IN ?", []string{domain.TxStatusPending, domain.TxStatusProcessing}).
		Where("type IN ?", []string{domain.TxTypeDeposit, domain.TxTypeWithdrawal})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Transaction
	err := q.Order("created_at ASC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// SumCompletedEarnings returns the cumulative completed earnings for a subscription.
func (r *TransactionRepository) SumCompletedEarnings(subscriptionID uint) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("subscription_id = ? AND type = ? AND status = ?",
			subscriptionID, domain.TxTypeEarning, domain.TxStatusCompleted).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// HasEarningForDate reports whether an earning row already exists for the
// (subscription, date) pair: the accrual idempotence check.
func (r *TransactionRepository) HasEarningForDate(subscriptionID uint, date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("subscription_id = ? AND earning_date = ? AND type = ?",
			subscriptionID, date, domain.TxTypeEarning).
		Count(&count).Error
	return count > 0, err
}

// CountCommissionsForSource reports how many commission rows reference a
// source transaction: the distribution dedup check.
func (r *TransactionRepository) CountCommissionsForSource(sourceTransactionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("source_transaction_id = ? AND type = ?", sourceTransactionID, domain.TxTypeCommission).
		Count(&count).Error
	return count, err
}
