package attendance

import (
	"time"

	"guardpost/internal/shared/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusOnTime = "ON_TIME"
	StatusLate   = "LATE"
	StatusAbsent = "ABSENT"
)

// One attendance per shift, enforced by uq_attendance_shift. The storage
// constraint is what arbitrates concurrent submissions.
type Attendance struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID    uuid.UUID      `gorm:"column:shift_id;type:uuid;not null;uniqueIndex:uq_attendance_shift"`
	GuardID    uuid.UUID      `gorm:"column:guard_id;type:uuid;not null;index"`
	RecordedAt time.Time      `gorm:"column:recorded_at;type:timestamptz;not null"`
	Status     string         `gorm:"column:status;type:varchar(20);not null"`
	Source     string         `gorm:"column:source;type:varchar(30);not null;default:MANUAL"`
	Metadata   meta.Payload   `gorm:"column:metadata;type:jsonb"`
	Note       *string        `gorm:"column:note;type:text"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Attendance) TableName() string {
	return "attendances"
}
