package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"growvest/config"
	"growvest/internal/database"
	"growvest/internal/repository"
	"growvest/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// The accrual worker runs the daily earnings cycle on a cron schedule.
// It shares the database with the API server but runs as its own process
// so a long cycle never blocks request handling.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Server.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	ledger := service.NewLedgerService(db, portfolioRepo, settingRepo)
	commission := service.NewCommissionService(userRepo, txRepo, settingRepo, ledger,
		cfg.Referral.Rates, cfg.Referral.MaxDepth)
	accrual := service.NewAccrualService(subRepo, txRepo, ledger, commission)

	runCycle := func() {
		report, err := accrual.RunCycle(time.Now())
		if err != nil {
			logrus.Errorf("accrual cycle failed: %v", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"date":       report.AsOfDate,
			"processed":  report.UsersProcessed,
			"total_paid": report.TotalPaid,
			"closed":     report.SubscriptionsClosed,
			"skipped":    report.Skipped,
			"errors":     report.Errors,
		}).Info("accrual cycle finished")
	}

	if cfg.Accrual.RunOnStart {
		runCycle()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Accrual.Schedule, runCycle); err != nil {
		logrus.Fatalf("invalid accrual schedule %q: %v", cfg.Accrual.Schedule, err)
	}
	c.Start()
	logrus.Infof("accrual worker started, schedule %q", cfg.Accrual.Schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx := c.Stop()
	<-ctx.Done()
	logrus.Info("accrual worker stopped")
}
