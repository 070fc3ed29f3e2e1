package service

import (
	"time"

	"growvest/internal/domain"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccrualReport summarizes one accrual cycle.
type AccrualReport struct {
	AsOfDate            string          `json:"as_of_date"`
	UsersProcessed      int             `json:"users_processed"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
	SubscriptionsClosed int             `json:"subscriptions_closed"`
	Skipped             int             `json:"skipped"`
	Errors              int             `json:"errors"`
}

// AccrualService credits one day's ROI to every active subscription,
// respecting the lifetime return cap and plan duration. Designed to run
// once per calendar day; re-runs for the same date are no-ops.
type AccrualService struct {
	subRepo    *repository.SubscriptionRepository
	txRepo     *repository.TransactionRepository
	ledger     *LedgerService
	commission *CommissionService
}

func NewAccrualService(
	subRepo *repository.SubscriptionRepository,
	txRepo *repository.TransactionRepository,
	ledger *LedgerService,
	commission *CommissionService,
) *AccrualService {
	return &AccrualService{
		subRepo:    subRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		commission: commission,
	}
}

// RunCycle processes every active subscription for asOf. A failure on one
// subscription is counted and logged; the cycle continues.
func (s *AccrualService) RunCycle(asOf time.Time) (*AccrualReport, error) {
	date := asOf.Format("2006-01-02")
	report := &AccrualReport{AsOfDate: date, TotalPaid: decimal.Zero}

	subs, err := s.subRepo.ListActive()
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"date": date, "subscriptions": len(subs)}).
		Info("accrual cycle started")

	payEarningCommission := s.commission != nil && s.commission.CommissionOnEarnings()

	for i := range subs {
		sub := &subs[i]
		paid, closed, err := s.accrueOne(sub, asOf, date, payEarningCommission)
		switch {
		case err == domain.ErrDuplicateAccrual:
			report.Skipped++
		case err != nil:
			report.Errors++
			logrus.WithFields(logrus.Fields{
				"subscription_id": sub.ID,
				"user_id":         sub.UserID,
			}).Errorf("accrual failed: %v", err)
		default:
			report.UsersProcessed++
			report.TotalPaid = report.TotalPaid.Add(paid)
		}
		if closed {
			report.SubscriptionsClosed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"date":       date,
		"processed":  report.UsersProcessed,
		"total_paid": report.TotalPaid,
		"closed":     report.SubscriptionsClosed,
		"skipped":    report.Skipped,
		"errors":     report.Errors,
	}).Info("accrual cycle finished")
	return report, nil
}

// accrueOne pays a single subscription for the date, closing it when the
// return cap fills or the plan duration elapses. Returns the amount paid
// and whether the subscription was closed.
func (s *AccrualService) accrueOne(sub *models.Subscription, asOf time.Time, date string, payCommission bool) (decimal.Decimal, bool, error) {
	// Cheap skip for re-runs after a crash. The authoritative check runs
	// again inside the ledger's write transaction, where a racing worker
	// on another process also surfaces as ErrDuplicateAccrual.
	exists, err := s.txRepo.HasEarningForDate(sub.ID, date)
	if err != nil {
		return decimal.Zero, false, err
	}
	if exists {
		return decimal.Zero, false, domain.ErrDuplicateAccrual
	}

	plan := &sub.Portfolio
	if asOf.Sub(sub.ActivatedAt) >= time.Duration(plan.DurationDays())*24*time.Hour {
		if err := s.subRepo.Close(sub, "duration_elapsed", asOf); err != nil {
			return decimal.Zero, false, err
		}
		return decimal.Zero, true, nil
	}

	cap := sub.ReturnCap(plan.TotalReturnLimit)
	alreadyPaid, err := s.txRepo.SumCompletedEarnings(sub.ID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if alreadyPaid.GreaterThanOrEqual(cap) {
		if err := s.subRepo.Close(sub, "cap_reached", asOf); err != nil {
			return decimal.Zero, false, err
		}
		return decimal.Zero, true, nil
	}

	payout := sub.Principal.Mul(plan.DailyROI).Div(decimal.NewFromInt(100))
	if remaining := cap.Sub(alreadyPaid); payout.GreaterThan(remaining) {
		payout = remaining
	}

	row, err := s.ledger.Apply(sub.UserID, domain.TxTypeEarning, payout, ApplyContext{
		Category:       "roi",
		PortfolioID:    &sub.PortfolioID,
		SubscriptionID: &sub.ID,
		EarningDate:    date,
	})
	if err != nil {
		return decimal.Zero, false, err
	}

	closed := false
	if alreadyPaid.Add(payout).GreaterThanOrEqual(cap) {
		if err := s.subRepo.Close(sub, "cap_reached", asOf); err != nil {
			logrus.WithField("subscription_id", sub.ID).
				Errorf("could not close capped subscription: %v", err)
		} else {
			closed = true
		}
	}

	if payCommission {
		if _, err := s.commission.Distribute(sub.UserID, payout, row.ID); err != nil &&
			err != domain.ErrDuplicateCommission {
			logrus.WithField("subscription_id", sub.ID).
				Errorf("earning commission distribution failed: %v", err)
		}
	}
	return payout, closed, nil
}
