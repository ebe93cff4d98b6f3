package shift

import (
	"guardpost/internal/middleware"
	"guardpost/internal/rbac"
	"guardpost/internal/session"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Service, rbacService rbac.Service) {
	shifts := r.Group("/shifts")
	shifts.Use(middleware.AuthMiddleware(sessions))
	{
		shifts.POST("", middleware.RBACAuthorize(rbacService, "shift", "create"), h.Create)
		shifts.GET("/:id", middleware.RBACAuthorize(rbacService, "shift", "read"), h.GetByID)
	}

	sites := r.Group("/sites")
	sites.Use(middleware.AuthMiddleware(sessions))
	{
		sites.GET("/:siteId/shifts", middleware.RBACAuthorize(rbacService, "shift", "read"), h.GetAllBySite)
	}
}
