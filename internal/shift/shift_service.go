package shift

import (
	"context"
	"errors"
	"time"

	"guardpost/internal/site"

	shifterrors "guardpost/internal/shift/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=shift_service.go -destination=mock/shift_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	GetAllBySite(ctx context.Context, siteID string) ([]ShiftResponse, error)
	GetByID(ctx context.Context, id string) (ShiftResponse, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	siteRepo site.Repository
	logger   *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, siteRepo site.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("shift.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shift.service")
	}
	return &service{db: db, repo: repo, siteRepo: siteRepo, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error) {
	s.logger.Debug("create shift requested",
		zap.String("site_id", req.SiteID),
		zap.String("shift_type_id", req.ShiftTypeID),
		zap.String("date", req.Date),
	)

	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidSiteID
	}
	shiftTypeID, err := uuid.Parse(req.ShiftTypeID)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidShiftTypeID
	}

	var guardID *uuid.UUID
	if req.GuardID != nil && *req.GuardID != "" {
		gid, err := uuid.Parse(*req.GuardID)
		if err != nil {
			return ShiftResponse{}, shifterrors.ErrInvalidGuardID
		}
		guardID = &gid
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidTimeRange
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidTimeRange
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidTimeRange
	}
	if !endsAt.After(startsAt) {
		return ShiftResponse{}, shifterrors.ErrInvalidTimeRange
	}
	if req.RequiredCheckinIntervalMins <= 0 {
		return ShiftResponse{}, shifterrors.ErrInvalidInterval
	}

	exists, err := s.siteRepo.Exists(ctx, req.SiteID)
	if err != nil {
		s.logger.Error("create shift site lookup failed", zap.Error(err))
		return ShiftResponse{}, err
	}
	if !exists {
		return ShiftResponse{}, shifterrors.ErrInvalidSiteID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("create shift begin tx failed", zap.Error(tx.Error))
		return ShiftResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// One guard cannot hold two shifts whose [starts_at, ends_at) intervals
	// intersect. Recorders downstream rely on this precondition.
	if guardID != nil {
		overlap, err := qtx.HasOverlappingAssignment(ctx, guardID.String(), startsAt, endsAt)
		if err != nil {
			s.logger.Error("create shift overlap check failed", zap.Error(err))
			return ShiftResponse{}, err
		}
		if overlap {
			s.logger.Warn("create shift overlap detected",
				zap.String("guard_id", guardID.String()),
				zap.Time("starts_at", startsAt),
				zap.Time("ends_at", endsAt),
			)
			return ShiftResponse{}, shifterrors.ErrGuardOverlap
		}
	}

	row := &Shift{
		ID:                          uuid.New(),
		SiteID:                      siteID,
		ShiftTypeID:                 shiftTypeID,
		GuardID:                     guardID,
		Date:                        date,
		StartsAt:                    startsAt,
		EndsAt:                      endsAt,
		RequiredCheckinIntervalMins: req.RequiredCheckinIntervalMins,
		GraceMinutes:                req.GraceMinutes,
		Status:                      StatusScheduled,
		CheckInStatus:               CheckinStatusPending,
	}

	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Error("create shift persist failed", zap.Error(err))
		return ShiftResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("create shift commit failed", zap.Error(err))
		return ShiftResponse{}, err
	}

	s.logger.Info("create shift success",
		zap.String("shift_id", row.ID.String()),
		zap.String("site_id", req.SiteID),
	)
	return MapToResponse(*row), nil
}

func (s *service) GetAllBySite(ctx context.Context, siteID string) ([]ShiftResponse, error) {
	if _, err := uuid.Parse(siteID); err != nil {
		return nil, shifterrors.ErrInvalidSiteID
	}

	rows, err := s.repo.FindAllBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	res := make([]ShiftResponse, len(rows))
	for i, r := range rows {
		res[i] = MapToResponse(r)
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (ShiftResponse, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShiftResponse{}, shifterrors.ErrShiftNotFound
		}
		return ShiftResponse{}, err
	}
	return MapToResponse(*row), nil
}

// MapToResponse is shared with the alert module, which embeds the shift
// snapshot in published events.
func MapToResponse(s Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:                          s.ID.String(),
		SiteID:                      s.SiteID.String(),
		ShiftTypeID:                 s.ShiftTypeID.String(),
		Date:                        s.Date.Format("2006-01-02"),
		StartsAt:                    s.StartsAt.Format(time.RFC3339),
		EndsAt:                      s.EndsAt.Format(time.RFC3339),
		RequiredCheckinIntervalMins: s.RequiredCheckinIntervalMins,
		GraceMinutes:                s.GraceMinutes,
		Status:                      s.Status,
		CheckInStatus:               s.CheckInStatus,
		MissedCount:                 s.MissedCount,
		LastHeartbeatAt:             s.LastHeartbeatAt,
	}
	if s.GuardID != nil {
		v := s.GuardID.String()
		resp.GuardID = &v
	}
	if s.Guard != nil {
		resp.GuardName = s.Guard.FullName
	}
	if s.ShiftType != nil {
		resp.ShiftTypeName = s.ShiftType.Name
	}
	return resp
}
