package alert

import (
	"guardpost/internal/middleware"
	"guardpost/internal/rbac"
	"guardpost/internal/session"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Service, rbacService rbac.Service) {
	alerts := r.Group("/alerts")
	alerts.Use(middleware.AuthMiddleware(sessions))
	{
		alerts.POST("/:id/resolve", middleware.RBACAuthorize(rbacService, "alert", "resolve"), h.Resolve)
		alerts.POST("/:id/acknowledge", middleware.RBACAuthorize(rbacService, "alert", "acknowledge"), h.Acknowledge)
	}

	sites := r.Group("/sites")
	sites.Use(middleware.AuthMiddleware(sessions))
	{
		sites.GET("/:siteId/alerts", middleware.RBACAuthorize(rbacService, "alert", "read"), h.GetUnresolvedBySite)
	}
}
