package notify

const (
	EventAlertCreated   = "alert_created"
	EventAlertUpdated   = "alert_updated"
	EventSessionRevoked = "session_revoked"
)

// Event is the wire shape pushed to subscribers. Exactly one of Alert or
// NewTokenVersion is set, depending on Type.
type Event struct {
	Type            string `json:"type"`
	Alert           any    `json:"alert,omitempty"`
	NewTokenVersion *int64 `json:"newTokenVersion,omitempty"`
}

func AlertCreated(alert any) Event {
	return Event{Type: EventAlertCreated, Alert: alert}
}

func AlertUpdated(alert any) Event {
	return Event{Type: EventAlertUpdated, Alert: alert}
}

func SessionRevoked(newVersion int64) Event {
	return Event{Type: EventSessionRevoked, NewTokenVersion: &newVersion}
}

// SiteTopic carries alert lifecycle events for one site's dashboards.
func SiteTopic(siteID string) string {
	return "site:" + siteID
}

// GuardTopic carries session-control events for one guard's devices.
func GuardTopic(guardID string) string {
	return "guard:" + guardID
}
