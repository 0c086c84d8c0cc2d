package availability

import (
	"slices"

	"tutorly/models"
)

// KnownSessionTypes are the duration labels the dashboard offers.
var KnownSessionTypes = []string{"30min", "45min", "60min", "90min"}

// SessionTypesPolicy decides whether a window can host a session of a given duration label.
type SessionTypesPolicy struct {
	// AbsentMatches lists the durations a window with no sessionTypes field supports.
	AbsentMatches []string
}

// DefaultPolicy treats a window without sessionTypes as supporting every known duration.
// An explicit empty list supports nothing.
var DefaultPolicy = SessionTypesPolicy{AbsentMatches: KnownSessionTypes}

// Supports applies the policy to w.
func (p SessionTypesPolicy) Supports(w models.AvailabilityWindow, duration string) bool {
	if duration == "" {
		return false
	}
	if w.SessionTypes == nil {
		return slices.Contains(p.AbsentMatches, duration)
	}
	return slices.Contains(*w.SessionTypes, duration)
}
