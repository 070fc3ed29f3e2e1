package models

import (
	"time"

	"gorm.io/gorm"
)

// AdminWallet is a deposit destination address per currency/network.
// Read-only reference data for the deposit flow.
type AdminWallet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Currency  string         `gorm:"size:10;not null;index" json:"currency"`
	Network   string         `gorm:"size:30;not null" json:"network"`
	Address   string         `gorm:"size:255;not null" json:"address"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (AdminWallet) TableName() string { return "admin_wallets" }
