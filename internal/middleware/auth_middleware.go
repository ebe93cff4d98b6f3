package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	autherrors "guardpost/internal/auth/errors"
	"guardpost/internal/session"
	"guardpost/internal/shared/apperror"
	"guardpost/internal/shared/contextutil"
	"guardpost/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware authenticates the request from a bearer token or the
// access_token cookie, then checks the embedded token version against the
// live one. A token whose version fell behind was revoked (logout, forced
// sign-out) and is rejected with SESSION_REVOKED so clients know to re-login
// rather than retry.
func AuthMiddleware(sessions session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			errObj := autherrors.ErrInvalidToken
			if err != nil && strings.Contains(err.Error(), "expired") {
				errObj = autherrors.ErrTokenExpired
			}
			response.Error(c, errObj.HTTPStatus, errObj.Code, errObj.Message, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "invalid token claims", nil)
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "user id not found in token", nil)
			c.Abort()
			return
		}

		// Numeric claims round-trip through JSON as float64.
		rawVersion, ok := claims["token_version"].(float64)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "token version not found in token", nil)
			c.Abort()
			return
		}
		tokenVersion := int64(rawVersion)

		current, err := sessions.IsCurrent(c.Request.Context(), userID, tokenVersion)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, "session check failed", nil)
			c.Abort()
			return
		}
		if !current {
			errObj := autherrors.ErrSessionRevoked
			response.Error(c, errObj.HTTPStatus, errObj.Code, errObj.Message, nil)
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)
		siteID, _ := claims["site_id"].(string)

		c.Set("user_id", userID)
		c.Set("site_id", siteID)
		c.Set("role", role)
		c.Set("token_version", tokenVersion)

		ctx := contextutil.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
