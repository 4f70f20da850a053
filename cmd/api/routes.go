package main

import (
	"database/sql"
	"net/http"
	"time"

	"transfers-exchange/internal/httpapi"
	"transfers-exchange/internal/rbac"
	"transfers-exchange/pkg/metrics"
	"transfers-exchange/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Registration and token issuance are the only unauthenticated writes.
	r.POST("/users", h.CreateUser)
	r.POST("/auth/token", h.IssueToken)
	r.POST("/auth/refresh", h.RefreshToken)

	api := r.Group("/")
	api.Use(authMW)
	{
		api.GET("/users", h.ListUsers)

		wallet := api.Group("/wallet")
		{
			wallet.POST("/topup", h.TopUp)
			wallet.GET("/balance/:user_id", h.WalletBalance)
			wallet.GET("/history/:user_id", h.WalletHistory)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("", h.ListCampaigns)
			campaigns.GET("/:campaign_id", h.GetCampaign)
			campaigns.POST("/:campaign_id/accept", h.AcceptCampaign)
			campaigns.POST("/:campaign_id/transfer-number", h.SetTransferNumber)

			// Routing and archiving are admin actions.
			campaigns.POST("/:campaign_id/assign-routing", rbac.RequireAnyRole(rbac.RoleAdmin), h.AssignRouting)
			campaigns.POST("/:campaign_id/archive", rbac.RequireAnyRole(rbac.RoleAdmin), h.ArchiveCampaign)
		}

		calls := api.Group("/calls")
		{
			calls.POST("/log", h.LogCall)
			calls.GET("", h.ListCalls)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("/:user_id", h.ListNotifications)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/campaigns/:campaign_id/calls", h.CampaignCallsReport)
			reports.GET("/users/:user_id/spend", h.UserSpendReport)
		}
	}
}
