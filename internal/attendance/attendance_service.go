package attendance

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

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	Record(ctx context.Context, shiftID, guardID string, req RecordAttendanceRequest) (AttendanceResponse, error)
	GetByShift(ctx context.Context, shiftID string) (AttendanceResponse, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	shiftRepo shift.Repository
	logger    *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, shiftRepo shift.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{db: db, repo: repo, shiftRepo: shiftRepo, logger: l}
}

// statusForRecording applies the grace rule: on time up to and including the
// grace deadline, late afterwards.
func statusForRecording(sh *shift.Shift, now time.Time) string {
	if now.After(sh.GraceDeadline()) {
		return StatusLate
	}
	return StatusOnTime
}

func (s *service) Record(ctx context.Context, shiftID, guardID string, req RecordAttendanceRequest) (AttendanceResponse, error) {
	s.logger.Debug("record attendance requested",
		zap.String("shift_id", shiftID),
		zap.String("guard_id", guardID),
	)

	shiftUUID, err := uuid.Parse(shiftID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidShiftID
	}
	guardUUID, err := uuid.Parse(guardID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidGuardID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("record attendance begin tx failed", zap.Error(tx.Error))
		return AttendanceResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	stx := s.shiftRepo.WithTx(tx)

	sh, err := stx.FindByIDForUpdate(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrShiftNotFound
		}
		s.logger.Error("record attendance shift lookup failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	if sh.GuardID == nil || *sh.GuardID != guardUUID {
		s.logger.Warn("record attendance by unassigned guard",
			zap.String("shift_id", shiftID),
			zap.String("guard_id", guardID),
		)
		return AttendanceResponse{}, attendanceerrors.ErrNotAssignedGuard
	}

	exists, err := qtx.ExistsForShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("record attendance existence check failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if exists {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyRecorded
	}

	now := time.Now().UTC()

	source := req.Source
	if source == "" {
		source = "MANUAL"
	}

	row := &Attendance{
		ID:         uuid.New(),
		ShiftID:    shiftUUID,
		GuardID:    guardUUID,
		RecordedAt: now,
		Status:     statusForRecording(sh, now),
		Source:     source,
		Metadata:   buildMetadata(req),
		Note:       req.Note,
	}

	// The unique index backs this insert up: if another submission slipped
	// past the existence check, the mapper turns 23505 into AlreadyRecorded.
	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Warn("record attendance persist failed", zap.Error(err))
		return AttendanceResponse{}, mapRepositoryError(err)
	}

	if sh.Status == shift.StatusScheduled {
		sh.Transition(shift.StatusInProgress)
		if err := stx.Update(ctx, sh); err != nil {
			s.logger.Error("record attendance shift advance failed", zap.Error(err))
			return AttendanceResponse{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("record attendance commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("record attendance success",
		zap.String("shift_id", shiftID),
		zap.String("guard_id", guardID),
		zap.String("status", row.Status),
	)
	return mapToResponse(*row, sh.Status), nil
}

func (s *service) GetByShift(ctx context.Context, shiftID string) (AttendanceResponse, error) {
	if _, err := uuid.Parse(shiftID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidShiftID
	}

	row, err := s.repo.FindByShift(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrAttendanceNotFound
		}
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row, ""), nil
}

func buildMetadata(req RecordAttendanceRequest) meta.Payload {
	var p meta.Payload
	if req.Latitude != nil && req.Longitude != nil {
		p.Location = &meta.Location{Lat: *req.Latitude, Lng: *req.Longitude}
	}
	if len(req.Extra) > 0 {
		p.Other = req.Extra
	}
	return p
}

func mapToResponse(a Attendance, shiftStatus string) AttendanceResponse {
	return AttendanceResponse{
		ID:          a.ID.String(),
		ShiftID:     a.ShiftID.String(),
		GuardID:     a.GuardID.String(),
		RecordedAt:  a.RecordedAt.Format(time.RFC3339),
		Status:      a.Status,
		Source:      a.Source,
		Metadata:    a.Metadata,
		Note:        a.Note,
		ShiftStatus: shiftStatus,
	}
}
