package auth

import (
	"context"
	"errors"
	"os"
	"time"

	autherrors "guardpost/internal/auth/errors"
	"guardpost/internal/session"
	"guardpost/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	// Login verifies credentials, bumps the token version (revoking every
	// earlier session) and issues a fresh token pair.
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, resp AuthResponse, err error)

	// Refresh trades a valid refresh token for a new pair. A refresh token
	// carrying a stale version is rejected the same as an access token.
	Refresh(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)

	// Logout bumps the token version, stranding both tokens of the pair.
	Logout(ctx context.Context, userID string) error

	GetMe(ctx context.Context, userID string) (*AuthResponse, error)
}

type service struct {
	userRepo user.Repository
	sessions session.Service
	logger   *zap.Logger
}

func NewService(userRepo user.Repository, sessions session.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{userRepo: userRepo, sessions: sessions, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (string, string, AuthResponse, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
		}
		s.logger.Error("login user lookup failed", zap.Error(err))
		return "", "", AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", "", AuthResponse{}, autherrors.ErrUserInactive
	}

	// A fresh login owns the session: the bump strands every token issued
	// before it, then the new pair embeds the new version.
	version, err := s.sessions.BumpVersion(ctx, u.ID.String())
	if err != nil {
		return "", "", AuthResponse{}, err
	}

	accessToken, err := s.generateToken(u, version, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refreshToken, err := s.generateToken(u, version, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success",
		zap.String("user_id", u.ID.String()),
		zap.String("role", u.Role),
		zap.Int64("token_version", version),
	)
	return accessToken, refreshToken, mapToAuthResponse(u, version), nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	claims, err := ParseToken(refreshToken)
	if err != nil {
		return "", "", AuthResponse{}, err
	}

	current, err := s.sessions.IsCurrent(ctx, claims.UserID, claims.TokenVersion)
	if err != nil {
		return "", "", AuthResponse{}, err
	}
	if !current {
		return "", "", AuthResponse{}, autherrors.ErrSessionRevoked
	}

	u, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", AuthResponse{}, autherrors.ErrUserNotFound
		}
		return "", "", AuthResponse{}, err
	}
	if !u.IsActive {
		return "", "", AuthResponse{}, autherrors.ErrUserInactive
	}

	newAccess, err := s.generateToken(u, claims.TokenVersion, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	newRefresh, err := s.generateToken(u, claims.TokenVersion, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return newAccess, newRefresh, mapToAuthResponse(u, claims.TokenVersion), nil
}

func (s *service) Logout(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return autherrors.ErrInvalidUserID
	}
	_, err := s.sessions.BumpVersion(ctx, userID)
	return err
}

func (s *service) GetMe(ctx context.Context, userID string) (*AuthResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, autherrors.ErrInvalidUserID
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, err
	}

	resp := mapToAuthResponse(u, u.TokenVersion)
	return &resp, nil
}

func (s *service) generateToken(u *user.User, version int64, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":       u.ID.String(),
		"role":          u.Role,
		"token_version": version,
		"exp":           time.Now().Add(expiry).Unix(),
	}
	if u.SiteID != nil {
		claims["site_id"] = u.SiteID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func mapToAuthResponse(u *user.User, version int64) AuthResponse {
	resp := AuthResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		TokenVersion: version,
	}
	if u.SiteID != nil {
		siteID := u.SiteID.String()
		resp.SiteID = &siteID
	}
	return resp
}
