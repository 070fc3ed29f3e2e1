package handler

import (
	"net/http"

	"growvest/internal/domain"
	"growvest/internal/middleware"
	"growvest/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	userRepo *repository.UserRepository
	txRepo   *repository.TransactionRepository
}

func NewReferralHandler(userRepo *repository.UserRepository, txRepo *repository.TransactionRepository) *ReferralHandler {
	return &ReferralHandler{userRepo: userRepo, txRepo: txRepo}
}

// Summary handles GET /referrals: the caller's code, counters and
// recent commission rows.
func (h *ReferralHandler) Summary(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	page, limit := parsePagination(c)
	commissions, total, err := h.txRepo.ListByUser(userID, repository.LedgerFilter{
		Type:   domain.TxTypeCommission,
		Status: domain.TxStatusCompleted,
	}, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referral_code":     u.ReferralCode,
		"direct_referrals":  u.DirectReferrals,
		"team_size":         u.TeamSize,
		"total_commissions": u.TotalCommissions,
		"commissions":       commissions,
		"total":             total,
		"page":              page,
		"limit":             limit,
	})
}
