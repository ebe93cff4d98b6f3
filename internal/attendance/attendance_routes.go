package attendance

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
		shifts.POST("/:id/attendance", middleware.RBACAuthorize(rbacService, "attendance", "create"), h.Record)
		shifts.GET("/:id/attendance", middleware.RBACAuthorize(rbacService, "attendance", "read"), h.GetByShift)
	}
}
