package repository

import (
	"growvest/internal/models"

	"gorm.io/gorm"
)

type AdminWalletRepository struct {
	db *gorm.DB
}

func NewAdminWalletRepository(db *gorm.DB) *AdminWalletRepository {
	return &AdminWalletRepository{db: db}
}

func (r *AdminWalletRepository) Create(w *models.AdminWallet) error {
	return r.db.Create(w).Error
}

func (r *AdminWalletRepository) ListActive() ([]models.AdminWallet, error) {
	var list []models.AdminWallet
	err := r.db.Where("is_active = ?", true).Order("currency ASC").Find(&list).Error
	return list, err
}

func (r *AdminWalletRepository) ListAll() ([]models.AdminWallet, error) {
	var list []models.AdminWallet
	err := r.db.Order("currency ASC").Find(&list).Error
	return list, err
}

func (r *AdminWalletRepository) Update(w *models.AdminWallet) error {
	return r.db.Save(w).Error
}

func (r *AdminWalletRepository) GetByID(id uint) (*models.AdminWallet, error) {
	var w models.AdminWallet
	err := r.db.First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}
