package service

import (
	"fmt"
	"testing"
	"time"

	"growvest/internal/database"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the service stack over an in-memory database.
type testEnv struct {
	db            *gorm.DB
	userRepo      *repository.UserRepository
	txRepo        *repository.TransactionRepository
	portfolioRepo *repository.PortfolioRepository
	subRepo       *repository.SubscriptionRepository
	settingRepo   *repository.SettingRepository

	ledger     *LedgerService
	commission *CommissionService
	accrual    *AccrualService
	approval   *ApprovalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// single connection so every session sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	env := &testEnv{
		db:            db,
		userRepo:      repository.NewUserRepository(db),
		txRepo:        repository.NewTransactionRepository(db),
		portfolioRepo: repository.NewPortfolioRepository(db),
		subRepo:       repository.NewSubscriptionRepository(db),
		settingRepo:   repository.NewSettingRepository(db),
	}
	env.ledger = NewLedgerService(db, env.portfolioRepo, env.settingRepo)
	env.commission = NewCommissionService(env.userRepo, env.txRepo, env.settingRepo, env.ledger,
		[]string{"10", "5", "3", "2", "1"}, 5)
	env.accrual = NewAccrualService(env.subRepo, env.txRepo, env.ledger, env.commission)
	env.approval = NewApprovalService(db, env.txRepo, env.subRepo, env.ledger, env.commission)
	return env
}

// secondStack builds an independent service stack over the same
// database, with its own in-process lock map. It stands in for a second
// process (the API server running next to the accrual worker) sharing
// one store.
func (e *testEnv) secondStack() (*LedgerService, *AccrualService) {
	ledger := NewLedgerService(e.db, e.portfolioRepo, e.settingRepo)
	accrual := NewAccrualService(e.subRepo, e.txRepo, ledger, nil)
	return ledger, accrual
}

var userSeq int

func (e *testEnv) createUser(t *testing.T, referredBy *uint) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		Name:         fmt.Sprintf("User %d", userSeq),
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		Role:         "USER",
		IsActive:     true,
		ReferralCode: fmt.Sprintf("CODE%04d", userSeq),
		ReferredByID: referredBy,
		Rank:         "BRONZE",
	}
	require.NoError(t, e.userRepo.Create(u))
	return u
}

func (e *testEnv) createPortfolio(t *testing.T, roi, limit string, durationDays int) *models.Portfolio {
	t.Helper()
	userSeq++
	p := &models.Portfolio{
		Name:             fmt.Sprintf("Plan %d", userSeq),
		Tier:             "basic",
		MinInvestment:    dec("50"),
		MaxInvestment:    dec("100000"),
		DailyROI:         dec(roi),
		TotalReturnLimit: dec(limit),
		DurationValue:    durationDays,
		DurationUnit:     "days",
		IsVisible:        true,
		CreatedByID:      1,
	}
	require.NoError(t, e.portfolioRepo.Create(p))
	return p
}

func (e *testEnv) createSubscription(t *testing.T, user *models.User, p *models.Portfolio, principal string, activatedAt time.Time) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		UserID:      user.ID,
		PortfolioID: p.ID,
		Principal:   dec(principal),
		ActivatedAt: activatedAt,
		IsActive:    true,
	}
	require.NoError(t, e.subRepo.Create(sub))
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"bot_active": true, "active_subscription_id": sub.ID}).Error)
	return sub
}

func (e *testEnv) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	u, err := e.userRepo.GetByID(userID)
	require.NoError(t, err)
	return u.Balance
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
