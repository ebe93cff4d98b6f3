package shift

import "time"

type CreateShiftRequest struct {
	SiteID                      string  `json:"site_id" binding:"required"`
	ShiftTypeID                 string  `json:"shift_type_id" binding:"required"`
	GuardID                     *string `json:"guard_id"`
	Date                        string  `json:"date" binding:"required"`
	StartsAt                    string  `json:"starts_at" binding:"required"`
	EndsAt                      string  `json:"ends_at" binding:"required"`
	RequiredCheckinIntervalMins int     `json:"required_checkin_interval_mins" binding:"required"`
	GraceMinutes                int     `json:"grace_minutes"`
}

type ShiftResponse struct {
	ID                          string     `json:"id"`
	SiteID                      string     `json:"site_id"`
	ShiftTypeID                 string     `json:"shift_type_id"`
	ShiftTypeName               string     `json:"shift_type_name,omitempty"`
	GuardID                     *string    `json:"guard_id,omitempty"`
	GuardName                   string     `json:"guard_name,omitempty"`
	Date                        string     `json:"date"`
	StartsAt                    string     `json:"starts_at"`
	EndsAt                      string     `json:"ends_at"`
	RequiredCheckinIntervalMins int        `json:"required_checkin_interval_mins"`
	GraceMinutes                int        `json:"grace_minutes"`
	Status                      string     `json:"status"`
	CheckInStatus               string     `json:"check_in_status"`
	MissedCount                 int        `json:"missed_count"`
	LastHeartbeatAt             *time.Time `json:"last_heartbeat_at,omitempty"`
}
