package repository

import (
	"time"

	"growvest/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(s *models.Subscription) error {
	return r.db.Create(s).Error
}

func (r *SubscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Preload("Portfolio").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) GetActiveByUser(userID uint) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Preload("Portfolio").
		Where("user_id = ? AND is_active = ?", userID, true).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActive returns every active subscription whose owner still has the
// bot enabled, with portfolio preloaded: the accrual engine's work list.
func (r *SubscriptionRepository) ListActive() ([]models.Subscription, error) {
	var list []models.Subscription
	err := r.db.Preload("Portfolio").
		Joins("JOIN users ON users.id = subscriptions.user_id AND users.bot_active = ?", true).
		Where("subscriptions.is_active = ?", true).
		Order("subscriptions.id ASC").
		Find(&list).Error
	return list, err
}

// Close marks a subscription inactive and clears the owner's bot flag and
// active-subscription reference.
func (r *SubscriptionRepository) Close(s *models.Subscription, reason string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		s.IsActive = false
		s.ClosedAt = &at
		s.CloseReason = reason
		if err := tx.Save(s).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", s.UserID).
			Updates(map[string]interface{}{
				"bot_active":             false,
				"active_subscription_id": nil,
			}).Error
	})
}
