package checkin

import "guardpost/internal/shared/meta"

type RecordCheckinRequest struct {
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Source    string         `json:"source"`
	Extra     map[string]any `json:"extra"`
}

type CheckinResponse struct {
	ID            string       `json:"id"`
	ShiftID       string       `json:"shift_id"`
	GuardID       string       `json:"guard_id"`
	At            string       `json:"at"`
	Status        string       `json:"status"`
	Source        string       `json:"source"`
	Metadata      meta.Payload `json:"metadata,omitempty"`
	CheckInStatus string       `json:"check_in_status"`
	ShiftStatus   string       `json:"shift_status"`
}
