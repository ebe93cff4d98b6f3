package app

import (
	"context"
	"os"
	"strconv"
	"time"

	"guardpost/internal/alert"
	"guardpost/internal/attendance"
	"guardpost/internal/auth"
	"guardpost/internal/checkin"
	"guardpost/internal/messaging/kafka"
	"guardpost/internal/middleware"
	"guardpost/internal/notify"
	"guardpost/internal/rbac"
	"guardpost/internal/session"
	"guardpost/internal/shift"
	"guardpost/internal/site"
	"guardpost/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// sessionNotifier bridges the session service to the hub so the session
// package needs no notify import.
type sessionNotifier struct {
	hub *notify.Hub
}

func (n *sessionNotifier) NotifySessionRevoked(userID string, newVersion int64) {
	n.hub.Publish(notify.GuardTopic(userID), notify.SessionRevoked(newVersion))
}

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	router.Use(middleware.RequestID())

	// --- Repositories ---
	siteRepo := site.NewRepository(gormDB)
	shiftRepo := shift.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	checkinRepo := checkin.NewRepository(gormDB)
	alertRepo := alert.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- RBAC Core ---
	rbacService, err := rbac.NewService()
	if err != nil {
		return err
	}

	// --- Event fabric ---
	hub := notify.NewHub()

	// --- Services ---
	sessionService := session.NewService(userRepo, rdb, &sessionNotifier{hub: hub})
	authService := auth.NewService(userRepo, sessionService)
	shiftService := shift.NewService(gormDB, shiftRepo, siteRepo)
	attendanceService := attendance.NewService(gormDB, attendanceRepo, shiftRepo)
	checkinService := checkin.NewService(gormDB, checkinRepo, shiftRepo)
	alertService := alert.NewService(gormDB, alertRepo, shiftRepo, attendanceRepo, outboxRepo, hub)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	shiftHandler := shift.NewHandler(shiftService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	checkinHandler := checkin.NewHandler(checkinService)
	alertHandler := alert.NewHandler(alertService)
	streamHandler := notify.NewStreamHandler(hub, alertService, siteRepo)

	// The sweeper runs in-process with the API so the alerts it raises reach
	// live stream subscribers through the hub; the outbox row it writes in
	// the same transaction covers external consumers.
	sweeper := alert.NewSweeper(gormDB, alertRepo, shiftRepo, attendanceRepo, checkinRepo, outboxRepo, hub)
	go sweeper.Run(context.Background(), sweepInterval())

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, sessionService)
		shift.RegisterRoutes(api, shiftHandler, sessionService, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, sessionService, rbacService)
		checkin.RegisterRoutes(api, checkinHandler, sessionService, rbacService)
		alert.RegisterRoutes(api, alertHandler, sessionService, rbacService)
		notify.RegisterRoutes(api, streamHandler, sessionService, rbacService)
	}

	return nil
}

func sweepInterval() time.Duration {
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 30 * time.Second
}
