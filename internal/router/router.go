package router

import (
	"time"

	"growvest/config"
	"growvest/internal/handler"
	"growvest/internal/middleware"
	"growvest/internal/repository"
	"growvest/internal/service"
	"growvest/internal/ws"
	"growvest/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(100, 60*time.Second))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	adminWalletRepo := repository.NewAdminWalletRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	txFeed := ws.NewTxFeed()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	ledgerSvc := service.NewLedgerService(db, portfolioRepo, settingRepo)
	ledgerSvc.SetPublisher(txFeed)
	commissionSvc := service.NewCommissionService(userRepo, txRepo, settingRepo, ledgerSvc,
		cfg.Referral.Rates, cfg.Referral.MaxDepth)
	accrualSvc := service.NewAccrualService(subRepo, txRepo, ledgerSvc, commissionSvc)
	approvalSvc := service.NewApprovalService(db, txRepo, subRepo, ledgerSvc, commissionSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(userRepo)
	txHandler := handler.NewTransactionHandler(ledgerSvc, txRepo, adminWalletRepo, cloud)
	portfolioHandler := handler.NewPortfolioHandler(portfolioRepo, subRepo, txRepo)
	referralHandler := handler.NewReferralHandler(userRepo, txRepo)
	adminHandler := handler.NewAdminHandler(userRepo, txRepo, portfolioRepo, adminWalletRepo,
		settingRepo, approvalSvc, ledgerSvc, accrualSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		api.GET("/portfolios", portfolioHandler.List)

		me := api.Group("")
		me.Use(authMw)
		{
			me.GET("/me", meHandler.Profile)
			me.GET("/portfolios/subscription", portfolioHandler.MySubscription)
			me.GET("/referrals", referralHandler.Summary)
			me.GET("/transactions", txHandler.Ledger)
			me.GET("/transactions/deposit-wallets", txHandler.DepositWallets)
			me.POST("/transactions/deposit", txHandler.SubmitDeposit)
			me.POST("/transactions/withdraw", txHandler.SubmitWithdrawal)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/transactions/pending", adminHandler.ReviewQueue)
			admin.POST("/transactions/:id/approve", adminHandler.Approve)
			admin.POST("/transactions/:id/reject", adminHandler.Reject)

			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/active", adminHandler.SetUserActive)
			admin.GET("/users/:id/ledger", adminHandler.UserLedger)
			admin.POST("/users/:id/adjust", adminHandler.Adjust)

			admin.GET("/portfolios", adminHandler.ListPortfolios)
			admin.POST("/portfolios", adminHandler.CreatePortfolio)
			admin.PUT("/portfolios/:id", adminHandler.UpdatePortfolio)

			admin.GET("/wallets", adminHandler.ListAdminWallets)
			admin.POST("/wallets", adminHandler.CreateAdminWallet)
			admin.PATCH("/wallets/:id/active", adminHandler.SetAdminWalletActive)

			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings/:key", adminHandler.PutSetting)

			admin.POST("/accrual/run", adminHandler.RunAccrual)
		}

		api.GET("/ws/transactions", ws.UpgradeTxFeed(&cfg.JWT, txFeed))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
