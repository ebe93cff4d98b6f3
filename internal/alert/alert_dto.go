package alert

import (
	"time"

	"guardpost/internal/shift"
)

type ResolveAlertRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=resolve forgive"`
	Note    string `json:"note"`
}

type AdminSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
}

type SiteSummary struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// AlertResponse is both the HTTP response body and the payload embedded in
// published alert_created / alert_updated events.
type AlertResponse struct {
	ID             string               `json:"id"`
	ShiftID        string               `json:"shift_id"`
	SiteID         string               `json:"site_id"`
	Reason         string               `json:"reason"`
	WindowStart    string               `json:"window_start"`
	AcknowledgedAt *string              `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *AdminSummary        `json:"acknowledged_by,omitempty"`
	ResolvedAt     *string              `json:"resolved_at,omitempty"`
	ResolvedBy     *AdminSummary        `json:"resolved_by,omitempty"`
	ResolutionType *string              `json:"resolution_type,omitempty"`
	ResolutionNote *string              `json:"resolution_note,omitempty"`
	CreatedAt      string               `json:"created_at"`
	Site           *SiteSummary         `json:"site,omitempty"`
	Shift          *shift.ShiftResponse `json:"shift,omitempty"`
}

func mapToResponse(a Alert) AlertResponse {
	resp := AlertResponse{
		ID:          a.ID.String(),
		ShiftID:     a.ShiftID.String(),
		SiteID:      a.SiteID.String(),
		Reason:      a.Reason,
		WindowStart: a.WindowStart.Format(time.RFC3339),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.AcknowledgedAt != nil {
		v := a.AcknowledgedAt.Format(time.RFC3339)
		resp.AcknowledgedAt = &v
	}
	if a.AcknowledgedBy != nil {
		resp.AcknowledgedBy = &AdminSummary{ID: a.AcknowledgedBy.ID.String(), FullName: a.AcknowledgedBy.FullName}
	} else if a.AcknowledgedByID != nil {
		resp.AcknowledgedBy = &AdminSummary{ID: a.AcknowledgedByID.String()}
	}
	if a.ResolvedAt != nil {
		v := a.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &v
	}
	if a.ResolvedBy != nil {
		resp.ResolvedBy = &AdminSummary{ID: a.ResolvedBy.ID.String(), FullName: a.ResolvedBy.FullName}
	} else if a.ResolvedByID != nil {
		resp.ResolvedBy = &AdminSummary{ID: a.ResolvedByID.String()}
	}
	resp.ResolutionType = a.ResolutionType
	resp.ResolutionNote = a.ResolutionNote
	if a.Site != nil {
		resp.Site = &SiteSummary{ID: a.Site.ID.String(), Name: a.Site.Name}
	}
	if a.Shift != nil {
		sr := shift.MapToResponse(*a.Shift)
		resp.Shift = &sr
	}
	return resp
}
