package service

import (
	"errors"
	"strings"

	"growvest/config"
	"growvest/internal/auth"
	"growvest/internal/domain"
	"growvest/internal/models"
	"growvest/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists      = errors.New("email already registered")
	ErrInvalidCreds     = errors.New("invalid email or password")
	ErrBadReferralCode  = errors.New("referral code not recognized")
	ErrAccountSuspended = errors.New("account is suspended")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// Register creates a user, generates a unique referral code and links the
// referrer when a code is supplied. Linking happens only at registration,
// so a user can never become its own ancestor.
func (s *AuthService) Register(name, email, password, referralCode string) (*models.User, string, string, error) {
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}

	var referrer *models.User
	if referralCode != "" {
		referrer, err = s.userRepo.GetByReferralCode(referralCode)
		if err != nil {
			return nil, "", "", ErrBadReferralCode
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		IsActive:     true,
		Rank:         domain.RankBronze,
	}
	if referrer != nil {
		u.ReferredByID = &referrer.ID
	}
	if err := s.userRepo.CreateWithUniqueCode(u); err != nil {
		return nil, "", "", err
	}
	if referrer != nil {
		s.recordReferral(referrer)
	}

	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, "", "", ErrAccountSuspended
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, nil
}

// LoginWithGoogle finds or creates a user by Google ID and returns user,
// tokens and an isNew flag. referralCode applies only to brand new users.
func (s *AuthService) LoginWithGoogle(googleID, email, name, referralCode string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		if !u.IsActive {
			return nil, "", "", false, ErrAccountSuspended
		}
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
		return u, access, refresh, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}

	// Link Google to an existing email account rather than duplicating it.
	if existing, err := s.userRepo.GetByEmail(email); err == nil {
		gid := googleID
		existing.GoogleID = &gid
		if err := s.userRepo.Update(existing); err != nil {
			return nil, "", "", false, err
		}
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, existing.ID, existing.Email, existing.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, existing.ID)
		return existing, access, refresh, false, nil
	}

	var referrer *models.User
	if referralCode != "" {
		if r, err := s.userRepo.GetByReferralCode(referralCode); err == nil {
			referrer = r
		}
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	gid := googleID
	u = &models.User{
		Name:     name,
		Email:    email,
		GoogleID: &gid,
		Role:     domain.RoleUser,
		IsActive: true,
		Rank:     domain.RankBronze,
	}
	if referrer != nil {
		u.ReferredByID = &referrer.ID
	}
	if err := s.userRepo.CreateWithUniqueCode(u); err != nil {
		return nil, "", "", false, err
	}
	if referrer != nil {
		s.recordReferral(referrer)
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, true, nil
}

func (s *AuthService) RefreshToken(refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", "", err
	}
	if !u.IsActive {
		return "", "", ErrAccountSuspended
	}
	access, _ = auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ = auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return access, refresh, nil
}

// recordReferral bumps the referrer's direct count and every ancestor's
// team size, bounded by the configured commission depth.
func (s *AuthService) recordReferral(referrer *models.User) {
	ancestors := []uint{referrer.ID}
	next := referrer.ReferredByID
	for depth := 1; depth < s.cfg.Referral.MaxDepth && next != nil; depth++ {
		a, err := s.userRepo.GetByID(*next)
		if err != nil {
			break
		}
		ancestors = append(ancestors, a.ID)
		next = a.ReferredByID
	}
	if err := s.userRepo.IncrementReferralCounters(referrer.ID, ancestors); err != nil {
		logrus.Errorf("referral counters for user %d: %v", referrer.ID, err)
	}
}
