package auth

import (
	"errors"
	"os"

	autherrors "guardpost/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	UserID       string
	SiteID       string
	Role         string
	TokenVersion int64
}

// ParseToken verifies the signature and expiry and extracts the claims the
// rest of the system cares about.
func ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherrors.ErrTokenExpired
		}
		return nil, autherrors.ErrInvalidToken
	}
	if !token.Valid {
		return nil, autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, autherrors.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, autherrors.ErrInvalidToken
	}

	// Numeric claims round-trip through JSON as float64.
	rawVersion, ok := claims["token_version"].(float64)
	if !ok {
		return nil, autherrors.ErrInvalidToken
	}

	tc := &TokenClaims{
		UserID:       userID,
		TokenVersion: int64(rawVersion),
	}
	if siteID, ok := claims["site_id"].(string); ok {
		tc.SiteID = siteID
	}
	if role, ok := claims["role"].(string); ok {
		tc.Role = role
	}
	return tc, nil
}
