package auth

import (
	"guardpost/internal/middleware"
	"guardpost/internal/session"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, sessions session.Service) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimitByIP(0.5, 5), h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", middleware.AuthMiddleware(sessions), h.Logout)
		auth.GET("/me", middleware.AuthMiddleware(sessions), middleware.RateLimitByUser(2, 5), h.Me)
	}
}
