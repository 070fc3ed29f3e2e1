package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"growvest/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByReferralCode matches case-insensitively on the stored uppercase code.
func (r *UserRepository) GetByReferralCode(code string) (*models.User, error) {
	var u models.User
	err := r.db.Where("referral_code = ?", strings.ToUpper(code)).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) SetActive(id uint, active bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active).Error
}

// IncrementReferralCounters bumps the direct-referral count for the direct
// referrer and the team size for every ancestor in ids.
func (r *UserRepository) IncrementReferralCounters(directReferrerID uint, ancestorIDs []uint) error {
	if err := r.db.Model(&models.User{}).Where("id = ?", directReferrerID).
		UpdateColumn("direct_referrals", gorm.Expr("direct_referrals + 1")).Error; err != nil {
		return err
	}
	if len(ancestorIDs) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id IN ?", ancestorIDs).
		UpdateColumn("team_size", gorm.Expr("team_size + 1")).Error
}

// List returns users matching an optional search term, paginated.
func (r *UserRepository) List(search string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("email LIKE ? OR name LIKE ? OR referral_code LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// GenerateReferralCode returns an 8-character uppercase hex code.
func GenerateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// CreateWithUniqueCode creates a user, retrying code generation on collision.
func (r *UserRepository) CreateWithUniqueCode(u *models.User) error {
	for i := 0; i < 10; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			return err
		}
		u.ReferralCode = code
		if err := r.db.Create(u).Error; err == nil {
			return nil
		} else if !isDuplicateErr(err) {
			return err
		}
		// collision: retry with a new code
	}
	return fmt.Errorf("failed to generate a unique referral code after retries")
}

func isDuplicateErr(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
		strings.Contains(strings.ToLower(err.Error()), "unique")
}
