package model

import (
	"encoding/json"
	"fmt"
)

// Metadata is the structured payload attached to a task. Only urgency is
// understood by the core; every other key round-trips unchanged through Extra.
type Metadata struct {
	Urgency string
	Extra   map[string]any
}

// Urgency levels.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// ValidUrgency reports whether u is a known urgency level or empty.
func ValidUrgency(u string) bool {
	switch u {
	case "", UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// MarshalJSON flattens Urgency and Extra into a single object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Urgency != "" {
		out["urgency"] = m.Urgency
	}
	return json.Marshal(out)
}

// UnmarshalJSON lifts the urgency key out of the object and keeps the rest
// opaque. A non-string urgency is rejected; its allowed values are checked by
// Validate so that stored rows with legacy values still scan.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Urgency = ""
	m.Extra = nil

	if v, ok := raw["urgency"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("urgency must be a string")
		}
		m.Urgency = s
		delete(raw, "urgency")
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// Validate checks the fields the core relies on.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	if !ValidUrgency(m.Urgency) {
		return fmt.Errorf("unknown urgency %q", m.Urgency)
	}
	return nil
}
