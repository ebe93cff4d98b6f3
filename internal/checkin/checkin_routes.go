package checkin

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
		// Guard devices post here on a timer; rate limit per principal so a
		// misbehaving device cannot flood the log.
		shifts.POST("/:id/checkins",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "checkin", "create"),
			h.Record,
		)
		shifts.GET("/:id/checkins", middleware.RBACAuthorize(rbacService, "checkin", "read"), h.GetAllByShift)
	}
}
