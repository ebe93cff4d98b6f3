package alert

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=alert_repo.go -destination=mock/alert_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// EnsureOccasion inserts the alert unless one already exists for the same
	// (shift, reason, window_start). Reports whether a row was created.
	EnsureOccasion(ctx context.Context, a *Alert) (bool, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Alert, error)
	FindDetailByID(ctx context.Context, id string) (*Alert, error)
	ListUnresolvedBySite(ctx context.Context, siteID string) ([]Alert, error)
	Update(ctx context.Context, a *Alert) error
	// StampAcknowledged sets the acknowledgement fields only if they are
	// still unset. Reports whether this call did the stamping.
	StampAcknowledged(ctx context.Context, id, adminID string, at time.Time) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) EnsureOccasion(ctx context.Context, a *Alert) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shift_id"}, {Name: "reason"}, {Name: "window_start"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByIDForUpdate locks the alert row so the already-resolved check and
// the resolution stamp behave as one atomic unit.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	return &a, err
}

func (r *repository) FindDetailByID(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.Guard").
		Preload("Shift.ShiftType").
		Preload("Site").
		Preload("AcknowledgedBy").
		Preload("ResolvedBy").
		Where("id = ?", id).
		First(&a).Error
	return &a, err
}

func (r *repository) ListUnresolvedBySite(ctx context.Context, siteID string) ([]Alert, error) {
	var rows []Alert
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.Guard").
		Preload("Shift.ShiftType").
		Preload("Site").
		Preload("AcknowledgedBy").
		Where("site_id = ?", siteID).
		Where("resolved_at IS NULL").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, a *Alert) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) StampAcknowledged(ctx context.Context, id, adminID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Alert{}).
		Where("id = ?", id).
		Where("acknowledged_at IS NULL").
		Updates(map[string]any{
			"acknowledged_at":    at,
			"acknowledged_by_id": adminID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
