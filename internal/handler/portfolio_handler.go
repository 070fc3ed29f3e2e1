package handler

import (
	"errors"
	"net/http"

	"growvest/internal/middleware"
	"growvest/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PortfolioHandler struct {
	portfolioRepo *repository.PortfolioRepository
	subRepo       *repository.SubscriptionRepository
	txRepo        *repository.TransactionRepository
}

func NewPortfolioHandler(
	portfolioRepo *repository.PortfolioRepository,
	subRepo *repository.SubscriptionRepository,
	txRepo *repository.TransactionRepository,
) *PortfolioHandler {
	return &PortfolioHandler{portfolioRepo: portfolioRepo, subRepo: subRepo, txRepo: txRepo}
}

// List handles GET /portfolios: the visible plans, in display order.
func (h *PortfolioHandler) List(c *gin.Context) {
	list, err := h.portfolioRepo.ListVisible()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load portfolios"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// MySubscription handles GET /portfolios/subscription: the caller's
// active stake with payout progress.
func (h *PortfolioHandler) MySubscription(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sub, err := h.subRepo.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"active": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}
	earned, err := h.txRepo.SumCompletedEarnings(sub.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load earnings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":       true,
		"subscription": sub,
		"total_earned": earned,
		"return_cap":   sub.ReturnCap(sub.Portfolio.TotalReturnLimit),
	})
}
