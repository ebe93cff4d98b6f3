package alert

import (
	"context"
	"encoding/json"
	"time"

	"guardpost/internal/attendance"
	"guardpost/internal/checkin"
	kafka "guardpost/internal/messaging/kafka"
	"guardpost/internal/notify"
	"guardpost/internal/shift"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper walks every open shift on a schedule and raises alerts for missed
// attendance and expired check-in windows. Each shift is processed in its own
// transaction, so one bad shift cannot poison a whole pass, and the unique
// occasion index makes concurrent or repeated passes converge on the same
// rows.
type Sweeper struct {
	db             *gorm.DB
	repo           Repository
	shiftRepo      shift.Repository
	attendanceRepo attendance.Repository
	checkinRepo    checkin.Repository
	outbox         kafka.OutboxRepository
	hub            *notify.Hub
	logger         *zap.Logger
}

func NewSweeper(
	db *gorm.DB,
	repo Repository,
	shiftRepo shift.Repository,
	attendanceRepo attendance.Repository,
	checkinRepo checkin.Repository,
	outbox kafka.OutboxRepository,
	hub *notify.Hub,
	logger ...*zap.Logger,
) *Sweeper {
	l := zap.L().Named("alert.sweeper")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("alert.sweeper")
	}
	return &Sweeper{
		db:             db,
		repo:           repo,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		checkinRepo:    checkinRepo,
		outbox:         outbox,
		hub:            hub,
		logger:         l,
	}
}

// Run loops SweepOnce until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("alert sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alert sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("sweep pass failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce runs a single detection pass against the given instant.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) error {
	shifts, err := s.shiftRepo.FindOpen(ctx, now)
	if err != nil {
		return err
	}

	for i := range shifts {
		if err := s.sweepShift(ctx, shifts[i].ID.String(), now); err != nil {
			s.logger.Error("sweep shift failed",
				zap.String("shift_id", shifts[i].ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Sweeper) sweepShift(ctx context.Context, shiftID string, now time.Time) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	stx := s.shiftRepo.WithTx(tx)

	// Lock the shift so the recorders and the resolution engine cannot
	// interleave with this pass.
	sh, err := stx.FindByIDForUpdate(ctx, shiftID)
	if err != nil {
		return err
	}
	if sh.IsTerminal() {
		return tx.Commit().Error
	}

	var created []notify.Event

	e, err := s.detectMissedAttendance(ctx, tx, sh, now)
	if err != nil {
		return err
	}
	created = append(created, e...)

	e, err = s.detectMissedCheckins(ctx, tx, sh, now)
	if err != nil {
		return err
	}
	created = append(created, e...)

	if err := tx.Commit().Error; err != nil {
		return err
	}

	for _, event := range created {
		s.hub.Publish(notify.SiteTopic(sh.SiteID.String()), event)
	}
	return nil
}

// detectMissedAttendance raises a single alert when the grace deadline passed
// with no attendance on record. The window_start of the occasion is the shift
// start itself.
func (s *Sweeper) detectMissedAttendance(ctx context.Context, tx *gorm.DB, sh *shift.Shift, now time.Time) ([]notify.Event, error) {
	if !now.After(sh.GraceDeadline()) {
		return nil, nil
	}

	exists, err := s.attendanceRepo.WithTx(tx).ExistsForShift(ctx, sh.ID.String())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	return s.raise(ctx, tx, sh, ReasonMissedAttendance, sh.StartsAt)
}

// detectMissedCheckins raises one alert per expired, unsatisfied check-in
// window on a shift that is actually underway. A window counts as satisfied
// by any check-in landing anywhere in [slotStart, slotDeadline).
func (s *Sweeper) detectMissedCheckins(ctx context.Context, tx *gorm.DB, sh *shift.Shift, now time.Time) ([]notify.Event, error) {
	if sh.Status != shift.StatusInProgress {
		return nil, nil
	}

	qtx := s.checkinRepo.WithTx(tx)
	stx := s.shiftRepo.WithTx(tx)

	var events []notify.Event
	shiftDirty := false

	for _, slotStart := range sh.SlotStarts() {
		deadline := sh.SlotDeadline(slotStart)
		if !now.After(deadline) {
			continue
		}

		satisfied, err := qtx.ExistsInWindow(ctx, sh.ID.String(), slotStart, deadline)
		if err != nil {
			return nil, err
		}
		if satisfied {
			continue
		}

		raised, err := s.raise(ctx, tx, sh, ReasonMissedCheckin, slotStart)
		if err != nil {
			return nil, err
		}
		if len(raised) > 0 {
			sh.MissedCount++
			sh.CheckInStatus = shift.CheckinStatusMissed
			shiftDirty = true
			events = append(events, raised...)
		}
	}

	if shiftDirty {
		if err := stx.Update(ctx, sh); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// raise inserts the occasion row if it does not exist yet. An empty result
// means another pass already owns this occasion.
func (s *Sweeper) raise(ctx context.Context, tx *gorm.DB, sh *shift.Shift, reason string, windowStart time.Time) ([]notify.Event, error) {
	row := &Alert{
		ID:          uuid.New(),
		ShiftID:     sh.ID,
		SiteID:      sh.SiteID,
		Reason:      reason,
		WindowStart: windowStart,
	}

	qtx := s.repo.WithTx(tx)
	inserted, err := qtx.EnsureOccasion(ctx, row)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	detail, err := qtx.FindDetailByID(ctx, row.ID.String())
	if err != nil {
		return nil, err
	}
	event := notify.AlertCreated(mapToResponse(*detail))

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "alert",
		AggregateID:   row.ID.String(),
		EventType:     event.Type,
		Topic:         kafka.TopicAlerts,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("alert raised",
		zap.String("alert_id", row.ID.String()),
		zap.String("shift_id", sh.ID.String()),
		zap.String("reason", reason),
		zap.Time("window_start", windowStart),
	)
	return []notify.Event{event}, nil
}
