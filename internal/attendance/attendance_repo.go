package attendance

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, a *Attendance) error
	FindByShift(ctx context.Context, shiftID string) (*Attendance, error)
	ExistsForShift(ctx context.Context, shiftID string) (bool, error)
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

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByShift(ctx context.Context, shiftID string) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).First(&a).Error
	return &a, err
}

func (r *repository) ExistsForShift(ctx context.Context, shiftID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("shift_id = ?", shiftID).
		Count(&count).Error
	return count > 0, err
}
