package alert

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	alerterrors "guardpost/internal/alert/errors"
	"guardpost/internal/attendance"
	kafka "guardpost/internal/messaging/kafka"
	"guardpost/internal/notify"
	"guardpost/internal/shared/contextutil"
	"guardpost/internal/shift"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=alert_service.go -destination=mock/alert_service_mock.go -package=mock
type Service interface {
	Resolve(ctx context.Context, alertID, adminID string, req ResolveAlertRequest) (AlertResponse, error)
	Acknowledge(ctx context.Context, alertID, adminID string) (AlertResponse, error)
	ListUnresolvedBySite(ctx context.Context, siteID string) ([]AlertResponse, error)
	UnresolvedEvents(ctx context.Context, siteID string) ([]notify.Event, error)
}

type service struct {
	db             *gorm.DB
	repo           Repository
	shiftRepo      shift.Repository
	attendanceRepo attendance.Repository
	outbox         kafka.OutboxRepository
	hub            *notify.Hub
	logger         *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	shiftRepo shift.Repository,
	attendanceRepo attendance.Repository,
	outbox kafka.OutboxRepository,
	hub *notify.Hub,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("alert.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("alert.service")
	}
	return &service{
		db:             db,
		repo:           repo,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		outbox:         outbox,
		hub:            hub,
		logger:         l,
	}
}

// Resolve closes an alert exactly once. The row lock taken by
// FindByIDForUpdate makes the already-resolved check and the resolution stamp
// atomic: of two concurrent admins, one wins and the other gets
// ErrAlreadyResolved with nothing applied twice.
func (s *service) Resolve(ctx context.Context, alertID, adminID string, req ResolveAlertRequest) (AlertResponse, error) {
	if _, err := uuid.Parse(alertID); err != nil {
		return AlertResponse{}, alerterrors.ErrInvalidAlertID
	}
	adminUUID, err := uuid.Parse(adminID)
	if err != nil {
		return AlertResponse{}, alerterrors.ErrInvalidAdminID
	}
	if req.Outcome != OutcomeResolve && req.Outcome != OutcomeForgive {
		return AlertResponse{}, alerterrors.ErrInvalidOutcome
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("resolve alert begin tx failed", zap.Error(tx.Error))
		return AlertResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	a, err := qtx.FindByIDForUpdate(ctx, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AlertResponse{}, alerterrors.ErrAlertNotFound
		}
		s.logger.Error("resolve alert lookup failed", zap.Error(err))
		return AlertResponse{}, err
	}
	if a.IsResolved() {
		return AlertResponse{}, alerterrors.ErrAlreadyResolved
	}

	now := time.Now().UTC()

	if err := s.applyOutcome(ctx, tx, a, req, now); err != nil {
		return AlertResponse{}, err
	}

	resolutionType := ResolutionStandard
	if req.Outcome == OutcomeForgive {
		resolutionType = ResolutionForgiven
	}
	a.ResolvedAt = &now
	a.ResolvedByID = &adminUUID
	a.ResolutionType = &resolutionType
	if req.Note != "" {
		note := req.Note
		a.ResolutionNote = &note
	}
	if err := qtx.Update(ctx, a); err != nil {
		s.logger.Error("resolve alert stamp failed", zap.Error(err))
		return AlertResponse{}, err
	}

	detail, err := qtx.FindDetailByID(ctx, alertID)
	if err != nil {
		s.logger.Error("resolve alert reload failed", zap.Error(err))
		return AlertResponse{}, err
	}
	resp := mapToResponse(*detail)

	event := notify.AlertUpdated(resp)
	if err := s.enqueueOutbox(ctx, tx, *detail, event); err != nil {
		s.logger.Error("resolve alert outbox enqueue failed", zap.Error(err))
		return AlertResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("resolve alert commit failed", zap.Error(err))
		return AlertResponse{}, err
	}

	// Publish only after the transaction is durable; subscribers must never
	// see a state the database can still roll back.
	s.hub.Publish(notify.SiteTopic(detail.SiteID.String()), event)

	s.logger.Info("alert resolved",
		zap.String("alert_id", alertID),
		zap.String("admin_id", adminID),
		zap.String("reason", a.Reason),
		zap.String("resolution_type", resolutionType),
	)
	return resp, nil
}

// applyOutcome runs the reason-specific side effects on the alert's shift.
// The shift row is locked for the rest of the transaction so the sweep and
// the recorders cannot interleave.
func (s *service) applyOutcome(ctx context.Context, tx *gorm.DB, a *Alert, req ResolveAlertRequest, now time.Time) error {
	stx := s.shiftRepo.WithTx(tx)

	sh, err := stx.FindByIDForUpdate(ctx, a.ShiftID.String())
	if err != nil {
		s.logger.Error("resolve alert shift lookup failed", zap.Error(err))
		return err
	}

	switch a.Reason {
	case ReasonMissedCheckin:
		if req.Outcome == OutcomeForgive {
			if sh.MissedCount > 0 {
				sh.MissedCount--
			}
			// Forgiving the last window leaves nothing left to miss, so the
			// shift can close out cleanly.
			if !sh.IsTerminal() && !sh.HasWindowsAfter(a.WindowStart) {
				sh.Transition(shift.StatusCompleted)
			}
			return stx.Update(ctx, sh)
		}
		// Standard resolution acknowledges the miss as real: the counter and
		// shift state already reflect it, only the alert gets stamped.
		return nil

	case ReasonMissedAttendance:
		if req.Outcome == OutcomeForgive {
			if err := s.backfillAttendance(ctx, tx, sh, attendance.StatusLate, "ADMIN_BACKFILL", req.Note, now); err != nil {
				return err
			}
			if sh.Status == shift.StatusScheduled {
				sh.Transition(shift.StatusInProgress)
				return stx.Update(ctx, sh)
			}
			return nil
		}
		if err := s.backfillAttendance(ctx, tx, sh, attendance.StatusAbsent, "SYSTEM_ABSENT", req.Note, now); err != nil {
			return err
		}
		if !sh.IsTerminal() {
			sh.Transition(shift.StatusMissed)
			return stx.Update(ctx, sh)
		}
		return nil

	default:
		s.logger.Error("alert carries unknown reason",
			zap.String("alert_id", a.ID.String()),
			zap.String("reason", a.Reason),
		)
		return alerterrors.ErrUnsupportedReason
	}
}

// backfillAttendance writes the administrative attendance record unless the
// guard already produced one in the meantime. Shifts with no assigned guard
// have nobody to credit, so nothing is written.
func (s *service) backfillAttendance(ctx context.Context, tx *gorm.DB, sh *shift.Shift, status, source, note string, now time.Time) error {
	if sh.GuardID == nil {
		return nil
	}

	atx := s.attendanceRepo.WithTx(tx)
	exists, err := atx.ExistsForShift(ctx, sh.ID.String())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	row := &attendance.Attendance{
		ID:         uuid.New(),
		ShiftID:    sh.ID,
		GuardID:    *sh.GuardID,
		RecordedAt: now,
		Status:     status,
		Source:     source,
	}
	if note != "" {
		row.Note = &note
	}
	return atx.Create(ctx, row)
}

// Acknowledge stamps who saw the alert first. Repeat calls, and calls on
// already-resolved alerts, return the current detail without complaint.
func (s *service) Acknowledge(ctx context.Context, alertID, adminID string) (AlertResponse, error) {
	if _, err := uuid.Parse(alertID); err != nil {
		return AlertResponse{}, alerterrors.ErrInvalidAlertID
	}
	if _, err := uuid.Parse(adminID); err != nil {
		return AlertResponse{}, alerterrors.ErrInvalidAdminID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("acknowledge alert begin tx failed", zap.Error(tx.Error))
		return AlertResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	stamped, err := qtx.StampAcknowledged(ctx, alertID, adminID, time.Now().UTC())
	if err != nil {
		s.logger.Error("acknowledge alert stamp failed", zap.Error(err))
		return AlertResponse{}, err
	}

	detail, err := qtx.FindDetailByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AlertResponse{}, alerterrors.ErrAlertNotFound
		}
		s.logger.Error("acknowledge alert reload failed", zap.Error(err))
		return AlertResponse{}, err
	}
	resp := mapToResponse(*detail)

	var event notify.Event
	if stamped {
		event = notify.AlertUpdated(resp)
		if err := s.enqueueOutbox(ctx, tx, *detail, event); err != nil {
			s.logger.Error("acknowledge alert outbox enqueue failed", zap.Error(err))
			return AlertResponse{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("acknowledge alert commit failed", zap.Error(err))
		return AlertResponse{}, err
	}

	if stamped {
		s.hub.Publish(notify.SiteTopic(detail.SiteID.String()), event)
		s.logger.Info("alert acknowledged",
			zap.String("alert_id", alertID),
			zap.String("admin_id", adminID),
		)
	}
	return resp, nil
}

func (s *service) ListUnresolvedBySite(ctx context.Context, siteID string) ([]AlertResponse, error) {
	if _, err := uuid.Parse(siteID); err != nil {
		return nil, alerterrors.ErrInvalidSiteID
	}

	rows, err := s.repo.ListUnresolvedBySite(ctx, siteID)
	if err != nil {
		s.logger.Error("list unresolved alerts failed", zap.String("site_id", siteID), zap.Error(err))
		return nil, err
	}

	out := make([]AlertResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, mapToResponse(a))
	}
	return out, nil
}

// UnresolvedEvents packages the unresolved alerts of a site as alert_created
// events, newest first. It backs the snapshot a new stream subscriber
// receives before live delivery starts.
func (s *service) UnresolvedEvents(ctx context.Context, siteID string) ([]notify.Event, error) {
	alerts, err := s.ListUnresolvedBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	events := make([]notify.Event, 0, len(alerts))
	for _, a := range alerts {
		events = append(events, notify.AlertCreated(a))
	}
	return events, nil
}

// enqueueOutbox persists the event inside the caller's transaction so the
// Kafka mirror sees exactly the lifecycle changes that committed.
func (s *service) enqueueOutbox(ctx context.Context, tx *gorm.DB, a Alert, event notify.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "alert",
		AggregateID:   a.ID.String(),
		EventType:     event.Type,
		Topic:         kafka.TopicAlerts,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
