package alert

import (
	"time"

	"guardpost/internal/shift"

	"github.com/google/uuid"
)

const (
	ReasonMissedAttendance = "MISSED_ATTENDANCE"
	ReasonMissedCheckin    = "MISSED_CHECKIN"
)

const (
	ResolutionStandard = "STANDARD"
	ResolutionForgiven = "FORGIVEN"
)

const (
	OutcomeResolve = "resolve"
	OutcomeForgive = "forgive"
)

// One alert per missed occasion: the composite unique index on
// (shift_id, reason, window_start) is what keeps the sweep idempotent.
// An alert is active while resolved_at is NULL; resolution is terminal.
type Alert struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID          uuid.UUID    `gorm:"column:shift_id;type:uuid;not null;uniqueIndex:uq_alert_occasion"`
	SiteID           uuid.UUID    `gorm:"column:site_id;type:uuid;not null;index"`
	Reason           string       `gorm:"column:reason;type:varchar(30);not null;uniqueIndex:uq_alert_occasion"`
	WindowStart      time.Time    `gorm:"column:window_start;type:timestamptz;not null;uniqueIndex:uq_alert_occasion"`
	AcknowledgedAt   *time.Time   `gorm:"column:acknowledged_at;type:timestamptz"`
	AcknowledgedByID *uuid.UUID   `gorm:"column:acknowledged_by_id;type:uuid"`
	ResolvedAt       *time.Time   `gorm:"column:resolved_at;type:timestamptz;index"`
	ResolvedByID     *uuid.UUID   `gorm:"column:resolved_by_id;type:uuid"`
	ResolutionType   *string      `gorm:"column:resolution_type;type:varchar(20)"`
	ResolutionNote   *string      `gorm:"column:resolution_note;type:text"`
	CreatedAt        time.Time    `gorm:"column:created_at"`
	UpdatedAt        time.Time    `gorm:"column:updated_at"`
	Shift            *shift.Shift `gorm:"foreignKey:ShiftID;references:ID"`
	Site             *SiteRef     `gorm:"foreignKey:SiteID;references:ID"`
	AcknowledgedBy   *AdminRef    `gorm:"foreignKey:AcknowledgedByID;references:ID"`
	ResolvedBy       *AdminRef    `gorm:"foreignKey:ResolvedByID;references:ID"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) IsResolved() bool {
	return a.ResolvedAt != nil
}

type SiteRef struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name"`
}

func (SiteRef) TableName() string {
	return "sites"
}

type AdminRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
}

func (AdminRef) TableName() string {
	return "users"
}
