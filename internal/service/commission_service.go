package service

import (
	"strconv"
	"strings"

	"growvest/internal/domain"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CommissionService walks the referrer chain of a qualifying transaction
// and pays each ancestor a level-based percentage of the base amount.
// Each payout is a completed commission transaction on the ancestor's
// ledger, tagged with the source transaction for auditability.
type CommissionService struct {
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	settingRepo *repository.SettingRepository
	ledger      *LedgerService

	defaultRates    []decimal.Decimal
	defaultMaxDepth int
}

func NewCommissionService(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	settingRepo *repository.SettingRepository,
	ledger *LedgerService,
	defaultRates []string,
	defaultMaxDepth int,
) *CommissionService {
	rates, ok := parseRates(defaultRates)
	if !ok {
		logrus.Warnf("invalid default referral rates %v, falling back to single 10%% level", defaultRates)
		rates = []decimal.Decimal{decimal.NewFromInt(10)}
	}
	return &CommissionService{
		userRepo:        userRepo,
		txRepo:          txRepo,
		settingRepo:     settingRepo,
		ledger:          ledger,
		defaultRates:    rates,
		defaultMaxDepth: defaultMaxDepth,
	}
}

// Distribute fans a commission out over the source user's ancestors. A
// second invocation for the same source transaction is refused: existing
// commission rows referencing it are the dedup record. A failed payout at
// one level is logged and skipped; it never blocks the other levels.
func (s *CommissionService) Distribute(sourceUserID uint, baseAmount decimal.Decimal, sourceTransactionID uint) ([]models.Transaction, error) {
	if !baseAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	existing, err := s.txRepo.CountCommissionsForSource(sourceTransactionID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, domain.ErrDuplicateCommission
	}

	source, err := s.userRepo.GetByID(sourceUserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	rates, maxDepth := s.rateTable()
	var paid []models.Transaction
	next := source.ReferredByID
	for level := 1; level <= maxDepth && next != nil; level++ {
		ancestor, err := s.userRepo.GetByID(*next)
		if err != nil {
			// chain broken; nothing further up to pay
			logrus.WithFields(logrus.Fields{
				"source_user": sourceUserID,
				"level":       level,
			}).Warnf("referral ancestor %d not found: %v", *next, err)
			break
		}
		next = ancestor.ReferredByID

		if !ancestor.IsActive {
			continue
		}
		rate := rates[level-1]
		commission := baseAmount.Mul(rate).Div(decimal.NewFromInt(100))
		if !commission.IsPositive() {
			continue
		}

		r := rate
		row, err := s.ledger.Apply(ancestor.ID, domain.TxTypeCommission, commission, ApplyContext{
			Category:            "referral",
			SourceUserID:        &source.ID,
			SourceTransactionID: &sourceTransactionID,
			ReferralLevel:       level,
			ReferralRate:        &r,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"ancestor_id": ancestor.ID,
				"level":       level,
				"source_tx":   sourceTransactionID,
			}).Errorf("commission payout failed: %v", err)
			continue
		}
		paid = append(paid, *row)
	}
	return paid, nil
}

// CommissionOnEarnings reports whether daily earnings also fan out
// commissions (runtime setting, default off).
func (s *CommissionService) CommissionOnEarnings() bool {
	v, err := s.settingRepo.Get(domain.SettingCommissionOnEarnings)
	if err != nil {
		return false
	}
	return v == "true"
}

// rateTable returns the effective rate table and depth: the settings rows
// when present and valid, the config defaults otherwise.
func (s *CommissionService) rateTable() ([]decimal.Decimal, int) {
	rates := s.defaultRates
	maxDepth := s.defaultMaxDepth
	if v, err := s.settingRepo.Get(domain.SettingReferralRates); err == nil && v != "" {
		if parsed, ok := parseRates(strings.Split(v, ",")); ok {
			rates = parsed
		} else {
			logrus.Warnf("ignoring invalid %s setting %q", domain.SettingReferralRates, v)
		}
	}
	if v, err := s.settingRepo.Get(domain.SettingReferralMaxDepth); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxDepth = n
		}
	}
	if maxDepth > len(rates) {
		maxDepth = len(rates)
	}
	return rates, maxDepth
}

// parseRates parses percentage strings and enforces that the table is
// monotonically non-increasing by level.
func parseRates(raw []string) ([]decimal.Decimal, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	rates := make([]decimal.Decimal, 0, len(raw))
	for i, r := range raw {
		d, err := decimal.NewFromString(strings.TrimSpace(r))
		if err != nil || d.IsNegative() {
			return nil, false
		}
		if i > 0 && d.GreaterThan(rates[i-1]) {
			return nil, false
		}
		rates = append(rates, d)
	}
	return rates, true
}
