package router

import (
	"github.com/gin-gonic/gin"

	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/http/handlers"
	"github.com/freelancedao/settlement/internal/http/middleware"
	"github.com/freelancedao/settlement/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	jobHandler *handlers.JobHandler,
	disputeHandler *handlers.DisputeHandler,
	daoHandler *handlers.DaoHandler,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты
	if wsHandler != nil {
		api.GET("/ws", wsHandler.Handle)
	}
	api.GET("/jobs/:id", middleware.IDValidator("id"), jobHandler.GetJob)
	api.GET("/jobs/:id/milestones/:index", middleware.IDValidator("id"), jobHandler.GetMilestone)
	api.GET("/jobs/:id/withdrawal", middleware.IDValidator("id"), jobHandler.GetAvailableWithdrawal)
	api.GET("/jobs/:id/events", middleware.IDValidator("id"), jobHandler.ListJobEvents)
	api.GET("/jobs/:id/disputes", middleware.IDValidator("id"), disputeHandler.ListJobDisputes)
	api.GET("/freelancers/:id/jobs", middleware.UUIDValidator("id"), jobHandler.ListFreelancerJobs)
	api.GET("/clients/:id/jobs", middleware.UUIDValidator("id"), jobHandler.ListClientJobs)
	api.GET("/disputes/:id", middleware.IDValidator("id"), disputeHandler.GetDispute)
	api.GET("/dao/members", daoHandler.ListMembers)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.POST("/jobs/fixed", jobHandler.CreateFixedJob)
		protected.POST("/jobs/milestone", jobHandler.CreateMilestoneJob)

		jobs := protected.Group("/jobs/:id")
		jobs.Use(middleware.IDValidator("id"))
		{
			jobs.POST("/fund", jobHandler.FundJob)
			jobs.POST("/request", jobHandler.RequestJob)
			jobs.POST("/approve", jobHandler.ApproveProvider)
			jobs.POST("/delivery", jobHandler.MarkDelivery)
			jobs.POST("/confirm", jobHandler.ConfirmFixedJob)
			jobs.POST("/milestones/:index/confirm", jobHandler.ConfirmMilestone)
			jobs.POST("/cancel", jobHandler.CancelJob)
			jobs.POST("/refund", jobHandler.RequestRefund)
			jobs.POST("/withdraw", jobHandler.Withdraw)
		}
		protected.POST("/withdrawals/batch", jobHandler.BatchWithdraw)

		protected.POST("/disputes", disputeHandler.CreateDispute)
		protected.POST("/disputes/:id/votes", middleware.IDValidator("id"), disputeHandler.Vote)
		protected.POST("/disputes/:id/auto-resolve", middleware.IDValidator("id"), disputeHandler.AutoResolve)

		protected.GET("/accounts/me/balance", accountHandler.Balance)
		protected.GET("/accounts/me/entries", accountHandler.Entries)
		// Пополнение заменяет поступление средств из кошелька; вне production.
		if !cfg.IsProduction() {
			protected.POST("/accounts/topup", accountHandler.TopUp)
		}

		admin := protected.Group("/")
		admin.Use(middleware.RequireRole(service.RoleAdmin))
		{
			admin.POST("/dao/members", daoHandler.AddMember)
			admin.DELETE("/dao/members/:id", middleware.UUIDValidator("id"), daoHandler.RemoveMember)
			admin.POST("/admin/dispute-contract", adminHandler.SetDisputeContract)
			admin.GET("/admin/audit", adminHandler.Audit)
		}
	}

	return r
}
