package attendance

import "guardpost/internal/shared/meta"

type RecordAttendanceRequest struct {
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Source    string         `json:"source"`
	Note      *string        `json:"note"`
	Extra     map[string]any `json:"extra"`
}

type AttendanceResponse struct {
	ID          string       `json:"id"`
	ShiftID     string       `json:"shift_id"`
	GuardID     string       `json:"guard_id"`
	RecordedAt  string       `json:"recorded_at"`
	Status      string       `json:"status"`
	Source      string       `json:"source"`
	Metadata    meta.Payload `json:"metadata,omitempty"`
	Note        *string      `json:"note,omitempty"`
	ShiftStatus string       `json:"shift_status"`
}
