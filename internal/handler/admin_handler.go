package handler

import (
	"net/http"
	"strconv"
	"time"

	"growvest/internal/middleware"
	"growvest/internal/models"
	"growvest/internal/repository"
	"growvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	userRepo        *repository.UserRepository
	txRepo          *repository.TransactionRepository
	portfolioRepo   *repository.PortfolioRepository
	adminWalletRepo *repository.AdminWalletRepository
	settingRepo     *repository.SettingRepository
	approval        *service.ApprovalService
	ledger          *service.LedgerService
	accrual         *service.AccrualService
}

func NewAdminHandler(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
	adminWalletRepo *repository.AdminWalletRepository,
	settingRepo *repository.SettingRepository,
	approval *service.ApprovalService,
	ledger *service.LedgerService,
	accrual *service.AccrualService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:        userRepo,
		txRepo:          txRepo,
		portfolioRepo:   portfolioRepo,
		adminWalletRepo: adminWalletRepo,
		settingRepo:     settingRepo,
		approval:        approval,
		ledger:          ledger,
		accrual:         accrual,
	}
}

// ReviewQueue handles GET /admin/transactions/pending.
func (h *AdminHandler) ReviewQueue(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.txRepo.ListPending(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// Approve handles POST /admin/transactions/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	txID, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req) // notes are optional
	tx, err := h.approval.Approve(txID, middleware.GetUserID(c), req.Notes)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Reject handles POST /admin/transactions/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	txID, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.approval.Reject(txID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Adjust handles POST /admin/users/:id/adjust: a manual bonus or penalty
// applied straight through the ledger.
func (h *AdminHandler) Adjust(c *gin.Context) {
	userID, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Type   string `json:"type" binding:"required,oneof=bonus penalty refund"`
		Amount string `json:"amount" binding:"required"`
		Notes  string `json:"notes" binding:"required"`
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
	adminID := middleware.GetUserID(c)
	tx, err := h.ledger.Apply(userID, req.Type, amount, service.ApplyContext{
		Category:      "manual",
		ProcessedByID: &adminID,
		Notes:         req.Notes,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.userRepo.List(c.Query("search"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// SetUserActive handles PATCH /admin/users/:id/active.
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.SetActive(userID, *req.Active); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": userID, "active": *req.Active})
}

// UserLedger handles GET /admin/users/:id/ledger.
func (h *AdminHandler) UserLedger(c *gin.Context) {
	userID, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	page, limit := parsePagination(c)
	filter := repository.LedgerFilter{Type: c.Query("type"), Status: c.Query("status")}
	list, total, err := h.txRepo.ListByUser(userID, filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

type portfolioRequest struct {
	Name             string `json:"name" binding:"required"`
	Tier             string `json:"tier" binding:"required"`
	MinInvestment    string `json:"min_investment" binding:"required"`
	MaxInvestment    string `json:"max_investment" binding:"required"`
	DailyROI         string `json:"daily_roi" binding:"required"`
	TotalReturnLimit string `json:"total_return_limit" binding:"required"`
	DurationValue    int    `json:"duration_value" binding:"required,min=1"`
	DurationUnit     string `json:"duration_unit" binding:"required,oneof=days months years"`
	SubscriptionFee  string `json:"subscription_fee"`
	SlotLimit        int    `json:"slot_limit"`
	IsVisible        *bool  `json:"is_visible"`
	DisplayOrder     int    `json:"display_order"`
}

// CreatePortfolio handles POST /admin/portfolios.
func (h *AdminHandler) CreatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := portfolioFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.CreatedByID = middleware.GetUserID(c)
	if err := h.portfolioRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portfolio"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePortfolio handles PUT /admin/portfolios/:id. Financial terms are
// frozen once any subscription exists against the plan; only visibility
// and display order stay editable after that.
func (h *AdminHandler) UpdatePortfolio(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	existing, err := h.portfolioRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
		return
	}
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	frozen, err := h.portfolioRepo.HasSubscriptions(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check subscriptions"})
		return
	}
	if frozen {
		if req.IsVisible != nil {
			existing.IsVisible = *req.IsVisible
		}
		existing.DisplayOrder = req.DisplayOrder
	} else {
		updated, err := portfolioFromRequest(&req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated.ID = existing.ID
		updated.CreatedByID = existing.CreatedByID
		updated.CreatedAt = existing.CreatedAt
		existing = updated
	}
	if err := h.portfolioRepo.Update(existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update portfolio"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// ListPortfolios handles GET /admin/portfolios: all plans, hidden included.
func (h *AdminHandler) ListPortfolios(c *gin.Context) {
	list, err := h.portfolioRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list portfolios"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateAdminWallet handles POST /admin/wallets.
func (h *AdminHandler) CreateAdminWallet(c *gin.Context) {
	var req struct {
		Currency string `json:"currency" binding:"required"`
		Network  string `json:"network" binding:"required"`
		Address  string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w := &models.AdminWallet{
		Currency: req.Currency,
		Network:  req.Network,
		Address:  req.Address,
		IsActive: true,
	}
	if err := h.adminWalletRepo.Create(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create wallet"})
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListAdminWallets handles GET /admin/wallets.
func (h *AdminHandler) ListAdminWallets(c *gin.Context) {
	list, err := h.adminWalletRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list wallets"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetAdminWalletActive handles PATCH /admin/wallets/:id/active.
func (h *AdminHandler) SetAdminWalletActive(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.adminWalletRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	w.IsActive = *req.Active
	if err := h.adminWalletRepo.Update(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update wallet"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	list, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// PutSetting handles PUT /admin/settings/:key.
func (h *AdminHandler) PutSetting(c *gin.Context) {
	key := c.Param("key")
	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// RunAccrual handles POST /admin/accrual/run: a manual cycle trigger.
// The optional date body field defaults to today.
func (h *AdminHandler) RunAccrual(c *gin.Context) {
	var req struct {
		Date string `json:"date"` // YYYY-MM-DD
	}
	_ = c.ShouldBindJSON(&req)
	asOf := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}
	report, err := h.accrual.RunCycle(asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accrual cycle failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}

func portfolioFromRequest(req *portfolioRequest) (*models.Portfolio, error) {
	min, err := decimal.NewFromString(req.MinInvestment)
	if err != nil {
		return nil, err
	}
	max, err := decimal.NewFromString(req.MaxInvestment)
	if err != nil {
		return nil, err
	}
	roi, err := decimal.NewFromString(req.DailyROI)
	if err != nil {
		return nil, err
	}
	limit, err := decimal.NewFromString(req.TotalReturnLimit)
	if err != nil {
		return nil, err
	}
	fee := decimal.Zero
	if req.SubscriptionFee != "" {
		if fee, err = decimal.NewFromString(req.SubscriptionFee); err != nil {
			return nil, err
		}
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	return &models.Portfolio{
		Name:             req.Name,
		Tier:             req.Tier,
		MinInvestment:    min,
		MaxInvestment:    max,
		DailyROI:         roi,
		TotalReturnLimit: limit,
		DurationValue:    req.DurationValue,
		DurationUnit:     req.DurationUnit,
		SubscriptionFee:  fee,
		SlotLimit:        req.SlotLimit,
		IsVisible:        visible,
		DisplayOrder:     req.DisplayOrder,
	}, nil
}
