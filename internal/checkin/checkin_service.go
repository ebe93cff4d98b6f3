package checkin

import (
	"context"
	"errors"
	"time"

	attendanceerrors "guardpost/internal/attendance/errors"
	"guardpost/internal/shared/meta"
	"guardpost/internal/shift"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=checkin_service.go -destination=mock/checkin_service_mock.go -package=mock
type Service interface {
	Record(ctx context.Context, shiftID, guardID string, req RecordCheckinRequest) (CheckinResponse, error)
	GetAllByShift(ctx context.Context, shiftID string) ([]CheckinResponse, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	shiftRepo shift.Repository
	logger    *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, shiftRepo shift.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("checkin.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("checkin.service")
	}
	return &service{db: db, repo: repo, shiftRepo: shiftRepo, logger: l}
}

// evaluate classifies a check-in instant. A check-in that lands in the grace
// tail of an earlier, still-unsatisfied window settles that window's debt but
// is recorded LATE; anything inside its own window is ON_TIME. The shift's
// missed_count is never touched here: a miss that already produced an alert
// is only cleared through explicit resolution.
func (s *service) evaluate(ctx context.Context, qtx Repository, sh *shift.Shift, now time.Time) (string, error) {
	if now.Before(sh.StartsAt) {
		return shift.CheckinStatusOnTime, nil
	}
	if !now.Before(sh.EndsAt) {
		return shift.CheckinStatusLate, nil
	}

	slot, ok := sh.SlotFor(now)
	if !ok {
		return shift.CheckinStatusOnTime, nil
	}

	prev := slot.Add(-sh.Interval())
	if prev.Before(sh.StartsAt) || !now.Before(sh.SlotDeadline(prev)) {
		return shift.CheckinStatusOnTime, nil
	}

	prevSatisfied, err := qtx.ExistsInWindow(ctx, sh.ID.String(), prev, sh.SlotDeadline(prev))
	if err != nil {
		return "", err
	}
	if prevSatisfied {
		return shift.CheckinStatusOnTime, nil
	}
	return shift.CheckinStatusLate, nil
}

func (s *service) Record(ctx context.Context, shiftID, guardID string, req RecordCheckinRequest) (CheckinResponse, error) {
	s.logger.Debug("record checkin requested",
		zap.String("shift_id", shiftID),
		zap.String("guard_id", guardID),
	)

	shiftUUID, err := uuid.Parse(shiftID)
	if err != nil {
		return CheckinResponse{}, attendanceerrors.ErrInvalidShiftID
	}
	guardUUID, err := uuid.Parse(guardID)
	if err != nil {
		return CheckinResponse{}, attendanceerrors.ErrInvalidGuardID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("record checkin begin tx failed", zap.Error(tx.Error))
		return CheckinResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	stx := s.shiftRepo.WithTx(tx)

	sh, err := stx.FindByIDForUpdate(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckinResponse{}, attendanceerrors.ErrShiftNotFound
		}
		s.logger.Error("record checkin shift lookup failed", zap.Error(err))
		return CheckinResponse{}, err
	}

	if sh.GuardID == nil || *sh.GuardID != guardUUID {
		s.logger.Warn("record checkin by unassigned guard",
			zap.String("shift_id", shiftID),
			zap.String("guard_id", guardID),
		)
		return CheckinResponse{}, attendanceerrors.ErrNotAssignedGuard
	}

	now := time.Now().UTC()

	status, err := s.evaluate(ctx, qtx, sh, now)
	if err != nil {
		s.logger.Error("record checkin slot evaluation failed", zap.Error(err))
		return CheckinResponse{}, err
	}

	source := req.Source
	if source == "" {
		source = "MANUAL"
	}

	var payload meta.Payload
	if req.Latitude != nil && req.Longitude != nil {
		payload.Location = &meta.Location{Lat: *req.Latitude, Lng: *req.Longitude}
	}
	if len(req.Extra) > 0 {
		payload.Other = req.Extra
	}

	// Check-ins are a log: the append is never rejected, even on a shift
	// that already reached a terminal state.
	row := &Checkin{
		ID:       uuid.New(),
		ShiftID:  shiftUUID,
		GuardID:  guardUUID,
		At:       now,
		Status:   status,
		Source:   source,
		Metadata: payload,
	}
	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Error("record checkin persist failed", zap.Error(err))
		return CheckinResponse{}, err
	}

	if !sh.IsTerminal() {
		sh.CheckInStatus = status
		sh.LastHeartbeatAt = &now
		if sh.Status == shift.StatusScheduled {
			sh.Transition(shift.StatusInProgress)
		}
		if err := stx.Update(ctx, sh); err != nil {
			s.logger.Error("record checkin shift update failed", zap.Error(err))
			return CheckinResponse{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("record checkin commit failed", zap.Error(err))
		return CheckinResponse{}, err
	}

	s.logger.Info("record checkin success",
		zap.String("shift_id", shiftID),
		zap.String("guard_id", guardID),
		zap.String("status", status),
	)
	return mapToResponse(*row, sh), nil
}

func (s *service) GetAllByShift(ctx context.Context, shiftID string) ([]CheckinResponse, error) {
	if _, err := uuid.Parse(shiftID); err != nil {
		return nil, attendanceerrors.ErrInvalidShiftID
	}

	rows, err := s.repo.FindAllByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	res := make([]CheckinResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r, nil)
	}
	return res, nil
}

func mapToResponse(c Checkin, sh *shift.Shift) CheckinResponse {
	resp := CheckinResponse{
		ID:       c.ID.String(),
		ShiftID:  c.ShiftID.String(),
		GuardID:  c.GuardID.String(),
		At:       c.At.Format(time.RFC3339),
		Status:   c.Status,
		Source:   c.Source,
		Metadata: c.Metadata,
	}
	if sh != nil {
		resp.CheckInStatus = sh.CheckInStatus
		resp.ShiftStatus = sh.Status
	}
	return resp
}
