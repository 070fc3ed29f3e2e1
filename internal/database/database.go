package database

import (
	"strconv"
	"strings"

	"growvest/config"
	"growvest/internal/domain"
	"growvest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Portfolio{},
		&models.Subscription{},
		&models.Transaction{},
		&models.AdminWallet{},
		&models.SystemSetting{},
	)
}

// SeedAdmin creates the initial admin account if no admin exists.
func SeedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		logrus.Errorf("seed admin: hash password: %v", err)
		return
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        "admin@growvest.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		IsActive:     true,
		ReferralCode: "ADMIN001",
		Rank:         domain.RankBronze,
	}
	if err := db.Create(admin).Error; err != nil {
		logrus.Errorf("seed admin: %v", err)
		return
	}
	logrus.Warn("seeded default admin account admin@growvest.local: change the password")
}

// SeedPortfolios inserts the starter plans when the table is empty.
func SeedPortfolios(db *gorm.DB) {
	var count int64
	db.Model(&models.Portfolio{}).Count(&count)
	if count > 0 {
		return
	}
	var admin models.User
	if err := db.Where("role = ?", domain.RoleAdmin).First(&admin).Error; err != nil {
		logrus.Errorf("seed portfolios: no admin user: %v", err)
		return
	}
	plans := []models.Portfolio{
		{
			Name: "Starter", Tier: "basic",
			MinInvestment: dec("50"), MaxInvestment: dec("999"),
			DailyROI: dec("1"), TotalReturnLimit: dec("200"),
			DurationValue: 200, DurationUnit: domain.DurationUnitDays,
			DisplayOrder: 1, CreatedByID: admin.ID, IsVisible: true,
		},
		{
			Name: "Growth", Tier: "standard",
			MinInvestment: dec("1000"), MaxInvestment: dec("9999"),
			DailyROI: dec("1.5"), TotalReturnLimit: dec("300"),
			DurationValue: 200, DurationUnit: domain.DurationUnitDays,
			DisplayOrder: 2, CreatedByID: admin.ID, IsVisible: true,
		},
		{
			Name: "Premium", Tier: "premium",
			MinInvestment: dec("10000"), MaxInvestment: dec("100000"),
			DailyROI: dec("2"), TotalReturnLimit: dec("400"),
			DurationValue: 12, DurationUnit: domain.DurationUnitMonths,
			DisplayOrder: 3, CreatedByID: admin.ID, IsVisible: true,
		},
	}
	if err := db.Create(&plans).Error; err != nil {
		logrus.Errorf("seed portfolios: %v", err)
	}
}

// SeedSettings inserts defaults for admin-tunable keys that are missing.
func SeedSettings(db *gorm.DB, cfg *config.ReferralConfig) {
	defaults := map[string]string{
		domain.SettingReferralRates:        strings.Join(cfg.Rates, ","),
		domain.SettingReferralMaxDepth:     strconv.Itoa(cfg.MaxDepth),
		domain.SettingCommissionOnEarnings: "false",
		domain.SettingMinWithdrawal:        "10",
	}
	for key, value := range defaults {
		var existing models.SystemSetting
		if err := db.Where("`key` = ?", key).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&models.SystemSetting{Key: key, Value: value}).Error; err != nil {
			logrus.Errorf("seed setting %s: %v", key, err)
		}
	}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
