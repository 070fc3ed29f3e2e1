package service

import (
	"errors"
	"fmt"
	"time"

	"growvest/internal/domain"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApprovalService gates the manually-reviewed transaction types. It is a
// thin orchestration layer: the ledger service does the mutation, the
// commission service does the fan-out.
type ApprovalService struct {
	db         *gorm.DB
	txRepo     *repository.TransactionRepository
	subRepo    *repository.SubscriptionRepository
	ledger     *LedgerService
	commission *CommissionService
}

func NewApprovalService(
	db *gorm.DB,
	txRepo *repository.TransactionRepository,
	subRepo *repository.SubscriptionRepository,
	ledger *LedgerService,
	commission *CommissionService,
) *ApprovalService {
	return &ApprovalService{
		db:         db,
		txRepo:     txRepo,
		subRepo:    subRepo,
		ledger:     ledger,
		commission: commission,
	}
}

// Approve settles a pending deposit or withdrawal. Deposits credit the
// user, activate the portfolio subscription and fan out referral
// commissions. Withdrawals debit the user; a withdrawal that no longer
// fits the balance is auto-rejected instead of failing opaquely.
func (s *ApprovalService) Approve(transactionID, adminID uint, notes string) (*models.Transaction, error) {
	row, err := s.txRepo.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	if row.Type != domain.TxTypeDeposit && row.Type != domain.TxTypeWithdrawal {
		return nil, fmt.Errorf("%s transactions are not admin-gated", row.Type)
	}
	if !domain.CanTransition(row.Status, domain.TxStatusProcessing) &&
		row.Status != domain.TxStatusProcessing {
		return nil, domain.ErrInvalidStateTransition
	}

	if row.Status == domain.TxStatusPending {
		now := time.Now()
		row.Status = domain.TxStatusProcessing
		row.ProcessedByID = &adminID
		row.ProcessedAt = &now
		if err := s.txRepo.Update(row); err != nil {
			return nil, err
		}
	}

	settled, err := s.ledger.Settle(row.ID, adminID, notes)
	if err != nil {
		if row.Type == domain.TxTypeWithdrawal && errors.Is(err, domain.ErrInsufficientBalance) {
			return s.Reject(row.ID, adminID, "insufficient balance at approval time")
		}
		return nil, err
	}

	if settled.Type == domain.TxTypeDeposit {
		s.activateSubscription(settled)
		if _, err := s.commission.Distribute(settled.UserID, settled.Amount, settled.ID); err != nil &&
			!errors.Is(err, domain.ErrDuplicateCommission) {
			logrus.WithField("tx_id", settled.ID).
				Errorf("commission distribution failed: %v", err)
		}
	}
	return settled, nil
}

// Reject moves a reviewable transaction to rejected. Never touches the
// balance.
func (s *ApprovalService) Reject(transactionID, adminID uint, reason string) (*models.Transaction, error) {
	row, err := s.txRepo.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(row.Status, domain.TxStatusRejected) {
		return nil, domain.ErrInvalidStateTransition
	}
	now := time.Now()
	row.Status = domain.TxStatusRejected
	row.RejectedByID = &adminID
	row.RejectReason = reason
	row.ProcessedAt = &now
	if err := s.txRepo.Update(row); err != nil {
		return nil, err
	}
	s.ledger.publish(row)
	return row, nil
}

// activateSubscription opens the portfolio stake an approved deposit pays
// for. A user holds at most one active subscription; a deposit approved
// while one is open credits the balance but does not stack a second
// subscription.
func (s *ApprovalService) activateSubscription(deposit *models.Transaction) {
	if deposit.PortfolioID == nil {
		return
	}
	if existing, err := s.subRepo.GetActiveByUser(deposit.UserID); err == nil && existing != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": deposit.UserID,
			"tx_id":   deposit.ID,
		}).Warn("deposit approved while a subscription is active; balance credited, no new subscription")
		return
	}
	sub := &models.Subscription{
		UserID:               deposit.UserID,
		PortfolioID:          *deposit.PortfolioID,
		Principal:            deposit.Amount,
		DepositTransactionID: deposit.ID,
		ActivatedAt:          time.Now(),
		IsActive:             true,
	}
	if err := s.subRepo.Create(sub); err != nil {
		logrus.WithField("tx_id", deposit.ID).Errorf("subscription activation failed: %v", err)
		return
	}
	err := s.db.Model(&models.User{}).Where("id = ?", deposit.UserID).
		Updates(map[string]interface{}{
			"bot_active":             true,
			"active_subscription_id": sub.ID,
		}).Error
	if err != nil {
		logrus.WithField("user_id", deposit.UserID).Errorf("could not flag bot active: %v", err)
	}
}
