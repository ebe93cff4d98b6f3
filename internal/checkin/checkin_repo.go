package checkin

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=checkin_repo.go -destination=mock/checkin_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, c *Checkin) error
	FindAllByShift(ctx context.Context, shiftID string) ([]Checkin, error)
	// ExistsInWindow reports whether any check-in for the shift falls inside
	// [from, to). This is the slot-satisfaction query used by the recorder
	// and the alert sweep.
	ExistsInWindow(ctx context.Context, shiftID string, from, to time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, c *Checkin) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindAllByShift(ctx context.Context, shiftID string) ([]Checkin, error) {
	var rows []Checkin
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ExistsInWindow(ctx context.Context, shiftID string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Checkin{}).
		Where("shift_id = ?", shiftID).
		Where("at >= ? AND at < ?", from, to).
		Count(&count).Error
	return count > 0, err
}
