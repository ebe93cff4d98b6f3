package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"guardpost/internal/shared/response"
	"guardpost/internal/site"
	"guardpost/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	subscriberBuffer  = 32
	keepaliveInterval = 25 * time.Second
)

// AlertBackfill supplies the snapshot a new site subscriber receives before
// any live event: every currently-unresolved alert, newest first.
type AlertBackfill interface {
	UnresolvedEvents(ctx context.Context, siteID string) ([]Event, error)
}

type StreamHandler struct {
	hub      *Hub
	backfill AlertBackfill
	siteRepo site.Repository
	logger   *zap.Logger
}

func NewStreamHandler(hub *Hub, backfill AlertBackfill, siteRepo site.Repository, logger ...*zap.Logger) *StreamHandler {
	l := zap.L().Named("notify.stream")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.stream")
	}
	return &StreamHandler{hub: hub, backfill: backfill, siteRepo: siteRepo, logger: l}
}

// SiteAlerts streams alert lifecycle events for one site over SSE. The
// subscription is registered before the backfill query so no event accepted
// after registration can be lost; an event racing the boundary may arrive
// twice, which subscribers tolerate (at-least-once).
func (h *StreamHandler) SiteAlerts(c *gin.Context) {
	siteID := c.Param("id")

	if _, err := h.siteRepo.FindByID(c.Request.Context(), siteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "site not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "site lookup failed", nil)
		return
	}

	sub := h.hub.Subscribe(SiteTopic(siteID), subscriberBuffer)
	defer sub.Close()

	backfill, err := h.backfill.UnresolvedEvents(c.Request.Context(), siteID)
	if err != nil {
		h.logger.Error("backfill query failed", zap.String("site_id", siteID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "backfill failed", nil)
		return
	}

	writeSSEHeaders(c)
	for _, e := range backfill {
		if err := writeSSEEvent(c, e); err != nil {
			return
		}
	}

	h.stream(c, sub)
}

// GuardSession streams session-control events for one guard's devices. A
// guard may only watch its own channel; admins may watch any.
func (h *StreamHandler) GuardSession(c *gin.Context) {
	guardID := c.Param("id")

	if c.GetString("role") != user.RoleAdmin && c.GetString("user_id") != guardID {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "cannot watch another guard's session channel", nil)
		return
	}

	sub := h.hub.Subscribe(GuardTopic(guardID), subscriberBuffer)
	defer sub.Close()

	writeSSEHeaders(c)
	h.stream(c, sub)
}

// stream pumps live events until the client goes away. The keepalive ticker
// is always stopped and the subscription slot freed on every exit path.
func (h *StreamHandler) stream(c *gin.Context, sub *Subscription) {
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSEEvent(c, e); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(c.Writer, ": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
}

func writeSSEEvent(c *gin.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
