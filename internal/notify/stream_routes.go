package notify

import (
	"guardpost/internal/middleware"
	"guardpost/internal/rbac"
	"guardpost/internal/session"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *StreamHandler, sessions session.Service, rbacService rbac.Service) {
	streams := r.Group("/streams")
	streams.Use(middleware.AuthMiddleware(sessions))
	{
		streams.GET("/sites/:id/alerts", middleware.RBACAuthorize(rbacService, "alert", "read"), h.SiteAlerts)
		streams.GET("/guards/:id/session", h.GuardSession)
	}
}
