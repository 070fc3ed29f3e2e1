package handler

import (
	"errors"
	"fmt"
	"net/http"

	"growvest/internal/domain"
	"growvest/internal/middleware"
	"growvest/internal/repository"
	"growvest/internal/service"
	"growvest/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionHandler struct {
	ledger          *service.LedgerService
	txRepo          *repository.TransactionRepository
	adminWalletRepo *repository.AdminWalletRepository
	cloud           cloudinary.Client
}

func NewTransactionHandler(
	ledger *service.LedgerService,
	txRepo *repository.TransactionRepository,
	adminWalletRepo *repository.AdminWalletRepository,
	cloud cloudinary.Client,
) *TransactionHandler {
	return &TransactionHandler{
		ledger:          ledger,
		txRepo:          txRepo,
		adminWalletRepo: adminWalletRepo,
		cloud:           cloud,
	}
}

// SubmitDeposit handles POST /transactions/deposit. Multipart form with an
// optional payment proof image.
func (h *TransactionHandler) SubmitDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		PortfolioID   uint   `form:"portfolio_id" binding:"required"`
		Amount        string `form:"amount" binding:"required"`
		PaymentMethod string `form:"payment_method" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	proofURL := ""
	if file, err := c.FormFile("proof"); err == nil && h.cloud != nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read proof file"})
			return
		}
		defer f.Close()
		publicID := fmt.Sprintf("proof-%d-%s", userID, uuid.New().String()[:8])
		url, _, err := h.cloud.UploadImage(c.Request.Context(), f, "deposit-proofs", publicID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "proof upload failed"})
			return
		}
		proofURL = url
	}

	tx, err := h.ledger.SubmitDeposit(userID, req.PortfolioID, amount, req.PaymentMethod, proofURL)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// SubmitWithdrawal handles POST /transactions/withdraw.
func (h *TransactionHandler) SubmitWithdrawal(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount      string `json:"amount" binding:"required"`
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	tx, err := h.ledger.SubmitWithdrawal(userID, amount, req.Destination)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// Ledger handles GET /transactions: the caller's own ledger, newest first.
func (h *TransactionHandler) Ledger(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	filter := repository.LedgerFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	list, total, err := h.txRepo.ListByUser(userID, filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// DepositWallets handles GET /transactions/deposit-wallets: destination
// addresses shown on the deposit screen.
func (h *TransactionHandler) DepositWallets(c *gin.Context) {
	wallets, err := h.adminWalletRepo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallets"})
		return
	}
	c.JSON(http.StatusOK, wallets)
}

// writeLedgerError maps domain errors to HTTP statuses; everything else is a 500.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, try again later"})
	}
}
