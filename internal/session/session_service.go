package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"guardpost/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	versionKeyPrefix = "session:ver:"
	versionCacheTTL  = 30 * time.Second
)

func versionKey(userID string) string {
	return versionKeyPrefix + userID
}

// RevocationNotifier is told whenever a user's token version moves, so live
// devices learn about the revocation without polling.
type RevocationNotifier interface {
	NotifySessionRevoked(userID string, newVersion int64)
}

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	// BumpVersion invalidates every outstanding token of the user and
	// returns the new version.
	BumpVersion(ctx context.Context, userID string) (int64, error)
	// IsCurrent reports whether tokenVersion is still the user's live
	// version. Stale versions mean the token was revoked.
	IsCurrent(ctx context.Context, userID string, tokenVersion int64) (bool, error)
}

type service struct {
	repo     user.Repository
	rdb      *redis.Client
	notifier RevocationNotifier
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(repo user.Repository, rdb *redis.Client, notifier RevocationNotifier, logger ...*zap.Logger) Service {
	l := zap.L().Named("session.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("session.service")
	}
	return &service{
		repo:     repo,
		rdb:      rdb,
		notifier: notifier,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) BumpVersion(ctx context.Context, userID string) (int64, error) {
	version, err := s.repo.BumpTokenVersion(ctx, userID)
	if err != nil {
		s.logger.Error("bump token version failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}

	// Drop the cached version so the very next auth check sees the bump.
	// A failed delete only delays revocation by the cache TTL.
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, versionKey(userID)).Err(); err != nil {
			s.logger.Warn("session version cache invalidation failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifySessionRevoked(userID, version)
	}

	s.logger.Info("session version bumped",
		zap.String("user_id", userID),
		zap.Int64("new_version", version),
	)
	return version, nil
}

func (s *service) IsCurrent(ctx context.Context, userID string, tokenVersion int64) (bool, error) {
	current, err := s.currentVersion(ctx, userID)
	if err != nil {
		return false, err
	}
	return tokenVersion == current, nil
}

// currentVersion serves the live version from Redis when possible, collapsing
// concurrent cache misses into one database read. Redis being down degrades
// to a direct read instead of failing auth.
func (s *service) currentVersion(ctx context.Context, userID string) (int64, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, versionKey(userID)).Result()
		if err == nil {
			if version, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return version, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("session version cache read failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return s.repo.CurrentTokenVersion(ctx, userID)
		}
	}

	v, err, _ := s.sf.Do(versionKey(userID), func() (any, error) {
		version, err := s.repo.CurrentTokenVersion(ctx, userID)
		if err != nil {
			return int64(0), err
		}
		if s.rdb != nil {
			if err := s.rdb.Set(ctx, versionKey(userID), strconv.FormatInt(version, 10), versionCacheTTL).Err(); err != nil {
				s.logger.Warn("session version cache write failed",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
		}
		return version, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
