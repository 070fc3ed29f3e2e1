package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"growvest/internal/domain"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxWriteAttempts = 3
	retryBaseDelay   = 50 * time.Millisecond
)

// TxPublisher receives transaction lifecycle events (admin live feed).
type TxPublisher interface {
	PublishTx(t *models.Transaction)
}

// userLocks serializes balance mutations per user id. Entries are never
// removed; the map is bounded by the user count.
type userLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{m: make(map[uint]*sync.Mutex)}
}

func (l *userLocks) forUser(userID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m[userID] == nil {
		l.m[userID] = &sync.Mutex{}
	}
	return l.m[userID]
}

// ApplyContext carries the type-specific fields of a balance mutation.
type ApplyContext struct {
	Category       string
	Currency       string
	PortfolioID    *uint
	SubscriptionID *uint
	EarningDate    string // YYYY-MM-DD, earnings only

	SourceUserID        *uint
	SourceTransactionID *uint
	ReferralLevel       int
	ReferralRate        *decimal.Decimal

	ProcessedByID *uint
	Notes         string
}

// LedgerService is the only component that changes wallet balances. Every
// mutation writes exactly one transaction row together with the balance
// and aggregate update, inside the owning user's lock.
type LedgerService struct {
	db            *gorm.DB
	locks         *userLocks
	portfolioRepo *repository.PortfolioRepository
	settingRepo   *repository.SettingRepository
	publisher     TxPublisher
}

func NewLedgerService(
	db *gorm.DB,
	portfolioRepo *repository.PortfolioRepository,
	settingRepo *repository.SettingRepository,
) *LedgerService {
	return &LedgerService{
		db:            db,
		locks:         newUserLocks(),
		portfolioRepo: portfolioRepo,
		settingRepo:   settingRepo,
	}
}

// SetPublisher attaches the live event feed. Optional.
func (s *LedgerService) SetPublisher(p TxPublisher) { s.publisher = p }

func (s *LedgerService) publish(t *models.Transaction) {
	if s.publisher != nil && t != nil {
		s.publisher.PublishTx(t)
	}
}

// Apply credits or debits a user in one atomic step: it creates a
// completed transaction row with balance-before/after populated and
// updates the user's balance and aggregate counters. Used for the
// automatic types (earning, commission, bonus, penalty, refund) that have
// no approval gate.
func (s *LedgerService) Apply(userID uint, txType string, amount decimal.Decimal, ctx ApplyContext) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	lock := s.locks.forUser(userID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	row := &models.Transaction{
		TxRef:               uuid.New().String(),
		UserID:              userID,
		Type:                txType,
		Category:            ctx.Category,
		Amount:              amount,
		Currency:            currencyOrDefault(ctx.Currency),
		Status:              domain.TxStatusCompleted,
		PortfolioID:         ctx.PortfolioID,
		SubscriptionID:      ctx.SubscriptionID,
		EarningDate:         ctx.EarningDate,
		SourceUserID:        ctx.SourceUserID,
		SourceTransactionID: ctx.SourceTransactionID,
		ReferralLevel:       ctx.ReferralLevel,
		ReferralRate:        ctx.ReferralRate,
		ProcessedByID:       ctx.ProcessedByID,
		AdminNotes:          ctx.Notes,
		InitiatedAt:         now,
	}

	err := s.writeWithRetry(row, func(tx *gorm.DB) error {
		user, err := lockedUser(tx, userID)
		if err != nil {
			return err
		}
		// Earning idempotence is enforced here, after the row lock is
		// taken, so two processes racing the same cycle cannot both
		// pass a pre-check and double-credit. The unique index on
		// (subscription_id, earning_date) backs this up at the store.
		if txType == domain.TxTypeEarning && ctx.SubscriptionID != nil && ctx.EarningDate != "" {
			var dup int64
			if err := tx.Model(&models.Transaction{}).
				Where("subscription_id = ? AND earning_date = ? AND type = ?",
					*ctx.SubscriptionID, ctx.EarningDate, domain.TxTypeEarning).
				Count(&dup).Error; err != nil {
				return err
			}
			if dup > 0 {
				return domain.ErrDuplicateAccrual
			}
		}
		delta := domain.SignedAmount(txType, amount)
		after := user.Balance.Add(delta)
		if after.IsNegative() {
			return domain.ErrInsufficientBalance
		}
		completedAt := time.Now()
		row.BalanceBefore = user.Balance
		row.BalanceAfter = after
		row.CompletedAt = &completedAt
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return applyUserAggregates(tx, user, txType, amount, after)
	})
	if err != nil {
		return nil, err
	}
	s.publish(row)
	return row, nil
}

// SubmitDeposit records a deposit request as a pending transaction. No
// balance change happens until an admin approves it.
func (s *LedgerService) SubmitDeposit(userID, portfolioID uint, amount decimal.Decimal, paymentMethod, proofURL string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	user, err := s.activeUser(userID)
	if err != nil {
		return nil, err
	}
	p, err := s.portfolioRepo.GetByID(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}
	if amount.LessThan(p.MinInvestment) || amount.GreaterThan(p.MaxInvestment) {
		return nil, fmt.Errorf("%w: amount must be between %s and %s for %s",
			domain.ErrValidation, p.MinInvestment, p.MaxInvestment, p.Name)
	}
	if p.SlotLimit > 0 {
		active, err := s.portfolioRepo.CountActiveSubscriptions(p.ID)
		if err != nil {
			return nil, err
		}
		if active >= int64(p.SlotLimit) {
			return nil, fmt.Errorf("%w: %s has no open slots", domain.ErrValidation, p.Name)
		}
	}
	row := &models.Transaction{
		TxRef:           uuid.New().String(),
		UserID:          user.ID,
		Type:            domain.TxTypeDeposit,
		Amount:          amount,
		Currency:        "USDT",
		Status:          domain.TxStatusPending,
		PortfolioID:     &p.ID,
		PaymentMethod:   paymentMethod,
		PaymentProofURL: proofURL,
		InitiatedAt:     time.Now(),
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, err
	}
	s.publish(row)
	return row, nil
}

// SubmitWithdrawal records a withdrawal request as a pending transaction.
// Requests that exceed the current balance or fall below the configured
// minimum are rejected immediately, without creating a ledger row.
func (s *LedgerService) SubmitWithdrawal(userID uint, amount decimal.Decimal, destination string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	user, err := s.activeUser(userID)
	if err != nil {
		return nil, err
	}
	if min := s.minWithdrawal(); amount.LessThan(min) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", domain.ErrValidation, min)
	}
	if user.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientBalance
	}
	row := &models.Transaction{
		TxRef:       uuid.New().String(),
		UserID:      user.ID,
		Type:        domain.TxTypeWithdrawal,
		Amount:      amount,
		Currency:    "USDT",
		Status:      domain.TxStatusPending,
		Destination: destination,
		InitiatedAt: time.Now(),
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, err
	}
	s.publish(row)
	return row, nil
}

// Settle drives an existing pending/processing transaction to completed,
// applying its balance mutation. The terminal re-entrancy check runs on a
// fresh read inside the database transaction, so a retried approval of an
// already-settled row is a safe error, never a double mutation.
func (s *LedgerService) Settle(transactionID uint, adminID uint, notes string) (*models.Transaction, error) {
	var head models.Transaction
	if err := s.db.First(&head, transactionID).Error; err != nil {
		return nil, err
	}

	lock := s.locks.forUser(head.UserID)
	lock.Lock()
	defer lock.Unlock()

	row := &models.Transaction{}
	err := s.writeWithRetry(row, func(tx *gorm.DB) error {
		if err := tx.First(row, transactionID).Error; err != nil {
			return err
		}
		if domain.IsTerminal(row.Status) || !domain.CanTransition(row.Status, domain.TxStatusCompleted) {
			return domain.ErrInvalidStateTransition
		}
		user, err := lockedUser(tx, row.UserID)
		if err != nil {
			return err
		}
		delta := domain.SignedAmount(row.Type, row.Amount)
		after := user.Balance.Add(delta)
		if after.IsNegative() {
			return domain.ErrInsufficientBalance
		}
		now := time.Now()
		row.Status = domain.TxStatusCompleted
		row.BalanceBefore = user.Balance
		row.BalanceAfter = after
		row.ApprovedByID = &adminID
		row.CompletedAt = &now
		if notes != "" {
			row.AdminNotes = notes
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return applyUserAggregates(tx, user, row.Type, row.Amount, after)
	})
	if err != nil {
		return nil, err
	}
	s.publish(row)
	return row, nil
}

// writeWithRetry runs fn in a database transaction, retrying transient
// storage failures with doubling backoff. Validation and invariant errors
// abort immediately. After the attempts are exhausted the transaction is
// marked failed with last_error populated.
func (s *LedgerService) writeWithRetry(row *models.Transaction, fn func(tx *gorm.DB) error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = s.db.Transaction(fn)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": row.UserID,
			"type":    row.Type,
			"attempt": attempt,
		}).Warnf("ledger write failed: %v", err)
		row.RetryCount = attempt
		if attempt < maxWriteAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	s.markFailed(row, err)
	return err
}

// markFailed records the failure on the ledger for admin remediation.
// Best effort: a store that cannot even record the failure only logs.
func (s *LedgerService) markFailed(row *models.Transaction, cause error) {
	row.Status = domain.TxStatusFailed
	row.LastError = cause.Error()
	var err error
	if row.ID != 0 {
		err = s.db.Model(&models.Transaction{}).Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"status":      domain.TxStatusFailed,
				"last_error":  row.LastError,
				"retry_count": row.RetryCount,
			}).Error
	} else {
		err = s.db.Create(row).Error
	}
	if err != nil {
		logrus.WithField("user_id", row.UserID).
			Errorf("could not record failed transaction: %v (cause: %v)", err, cause)
		return
	}
	s.publish(row)
}

func (s *LedgerService) activeUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return &user, nil
}

func (s *LedgerService) minWithdrawal() decimal.Decimal {
	v, err := s.settingRepo.Get(domain.SettingMinWithdrawal)
	if err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// lockedUser loads the user row inside the mutation transaction with a
// row lock (SELECT ... FOR UPDATE), so the balance read stays current
// even when the API server and the accrual worker write concurrently.
// The in-process per-user lock only serializes within one process; the
// row lock is what serializes across processes.
func lockedUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return &user, nil
}

// applyUserAggregates writes the new balance, bumps the lifetime counter
// for the transaction type and recomputes the rank tier.
func applyUserAggregates(tx *gorm.DB, user *models.User, txType string, amount, newBalance decimal.Decimal) error {
	updates := map[string]interface{}{"balance": newBalance}
	switch txType {
	case domain.TxTypeDeposit:
		total := user.TotalDeposited.Add(amount)
		updates["total_deposited"] = total
		updates["rank"] = domain.RankFor(total)
	case domain.TxTypeWithdrawal:
		updates["total_withdrawn"] = user.TotalWithdrawn.Add(amount)
	case domain.TxTypeEarning:
		updates["total_earnings"] = user.TotalEarnings.Add(amount)
	case domain.TxTypeCommission:
		updates["total_commissions"] = user.TotalCommissions.Add(amount)
	}
	return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error
}

// isTransient classifies storage errors. Domain errors and missing rows
// are final; everything else is worth a bounded retry.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrDuplicateAccrual),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return false
	}
	return true
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USDT"
	}
	return c
}
