package checkin

import (
	"time"

	"guardpost/internal/shared/meta"

	"github.com/google/uuid"
)

// Checkins are an append-only log: rows are never mutated or deleted, and
// duplicates are allowed. There is deliberately no DeletedAt here.
type Checkin struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID   uuid.UUID    `gorm:"column:shift_id;type:uuid;not null;index"`
	GuardID   uuid.UUID    `gorm:"column:guard_id;type:uuid;not null;index"`
	At        time.Time    `gorm:"column:at;type:timestamptz;not null;index"`
	Status    string       `gorm:"column:status;type:varchar(20);not null"`
	Source    string       `gorm:"column:source;type:varchar(30);not null;default:MANUAL"`
	Metadata  meta.Payload `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time    `gorm:"column:created_at"`
}

func (Checkin) TableName() string {
	return "checkins"
}
