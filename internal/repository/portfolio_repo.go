package repository

import (
	"growvest/internal/models"

	"gorm.io/gorm"
)

type PortfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) Create(p *models.Portfolio) error {
	return r.db.Create(p).Error
}

func (r *PortfolioRepository) GetByID(id uint) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListVisible returns the plans shown to users, in display order.
func (r *PortfolioRepository) ListVisible() ([]models.Portfolio, error) {
	var list []models.Portfolio
	err := r.db.Where("is_visible = ?", true).Order("display_order ASC, id ASC").Find(&list).Error
	return list, err
}

// ListAll returns every plan for the admin surface.
func (r *PortfolioRepository) ListAll() ([]models.Portfolio, error) {
	var list []models.Portfolio
	err := r.db.Order("display_order ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *PortfolioRepository) Update(p *models.Portfolio) error {
	return r.db.Save(p).Error
}

// HasSubscriptions reports whether any subscription was ever created
// against the plan. Financial terms are frozen once this is true.
func (r *PortfolioRepository) HasSubscriptions(portfolioID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("portfolio_id = ?", portfolioID).Count(&count).Error
	return count > 0, err
}

// CountActiveSubscriptions is used to enforce slot limits.
func (r *PortfolioRepository) CountActiveSubscriptions(portfolioID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("portfolio_id = ? AND is_active = ?", portfolioID, true).Count(&count).Error
	return count, err
}
