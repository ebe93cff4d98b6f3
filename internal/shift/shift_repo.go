package shift

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=shift_repo.go -destination=mock/shift_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, s *Shift) error
	FindByID(ctx context.Context, id string) (*Shift, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Shift, error)
	FindAllBySite(ctx context.Context, siteID string) ([]Shift, error)
	FindOpen(ctx context.Context, startedBefore time.Time) ([]Shift, error)
	Update(ctx context.Context, s *Shift) error
	HasOverlappingAssignment(ctx context.Context, guardID string, startsAt, endsAt time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).
		Preload("Guard").
		Preload("ShiftType").
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

// FindByIDForUpdate locks the shift row for the duration of the caller's
// transaction so concurrent recorders cannot interleave status updates.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

func (r *repository) FindAllBySite(ctx context.Context, siteID string) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Preload("Guard").
		Preload("ShiftType").
		Where("site_id = ?", siteID).
		Order("starts_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindOpen lists shifts the alert sweep still has to police: started but not
// yet in a terminal state.
func (r *repository) FindOpen(ctx context.Context, startedBefore time.Time) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{StatusScheduled, StatusInProgress}).
		Where("starts_at <= ?", startedBefore).
		Order("starts_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) HasOverlappingAssignment(ctx context.Context, guardID string, startsAt, endsAt time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Shift{}).
		Where("guard_id = ?", guardID).
		Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
		Count(&count).Error
	return count > 0, err
}
