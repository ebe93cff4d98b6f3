package shift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusScheduled  = "SCHEDULED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusMissed     = "MISSED"
)

const (
	CheckinStatusPending = "PENDING"
	CheckinStatusOnTime  = "ON_TIME"
	CheckinStatusLate    = "LATE"
	CheckinStatusMissed  = "MISSED"
)

type Shift struct {
	ID                          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SiteID                      uuid.UUID      `gorm:"column:site_id;type:uuid;not null;index"`
	ShiftTypeID                 uuid.UUID      `gorm:"column:shift_type_id;type:uuid;not null"`
	GuardID                     *uuid.UUID     `gorm:"column:guard_id;type:uuid;index"`
	Date                        time.Time      `gorm:"column:date;type:date;not null;index"`
	StartsAt                    time.Time      `gorm:"column:starts_at;type:timestamptz;not null"`
	EndsAt                      time.Time      `gorm:"column:ends_at;type:timestamptz;not null"`
	RequiredCheckinIntervalMins int            `gorm:"column:required_checkin_interval_mins;not null;default:60"`
	GraceMinutes                int            `gorm:"column:grace_minutes;not null;default:5"`
	Status                      string         `gorm:"column:status;type:varchar(20);not null;default:SCHEDULED"`
	CheckInStatus               string         `gorm:"column:check_in_status;type:varchar(20);not null;default:PENDING"`
	MissedCount                 int            `gorm:"column:missed_count;not null;default:0"`
	LastHeartbeatAt             *time.Time     `gorm:"column:last_heartbeat_at;type:timestamptz"`
	CreatedAt                   time.Time      `gorm:"column:created_at"`
	UpdatedAt                   time.Time      `gorm:"column:updated_at"`
	DeletedAt                   gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Guard                       *GuardRef      `gorm:"foreignKey:GuardID;references:ID"`
	ShiftType                   *ShiftType     `gorm:"foreignKey:ShiftTypeID;references:ID"`
}

func (Shift) TableName() string {
	return "shifts"
}

type ShiftType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	SiteID uuid.UUID `gorm:"column:site_id;type:uuid;not null;index"`
	Name   string    `gorm:"column:name"`
}

func (ShiftType) TableName() string {
	return "shift_types"
}

type GuardRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
}

func (GuardRef) TableName() string {
	return "users"
}

// IsTerminal reports whether the shift reached a final state. Terminal
// shifts accept no further transitions.
func (s *Shift) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusMissed
}

// CanTransition encodes the shift lifecycle:
// SCHEDULED -> IN_PROGRESS -> COMPLETED | MISSED. A shift whose guard never
// showed up may jump from SCHEDULED straight to a terminal state.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusScheduled:
		return to == StatusInProgress || to == StatusCompleted || to == StatusMissed
	case StatusInProgress:
		return to == StatusCompleted || to == StatusMissed
	default:
		return false
	}
}

// Transition moves the shift to the target status, rejecting anything the
// lifecycle does not allow.
func (s *Shift) Transition(to string) bool {
	if !CanTransition(s.Status, to) {
		return false
	}
	s.Status = to
	return true
}
