package meta

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Payload is the tagged metadata value attached to attendance and check-in
// records: a device location, a free-form bag, or both. Persisted as JSONB.
type Payload struct {
	Location *Location      `json:"location,omitempty"`
	Other    map[string]any `json:"other,omitempty"`
}

func (p Payload) IsZero() bool {
	return p.Location == nil && len(p.Other) == 0
}

// Value implements driver.Valuer. Empty payloads persist as NULL.
func (p Payload) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Payload) Scan(src any) error {
	if src == nil {
		*p = Payload{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("meta: unsupported scan source")
	}
}
