package models

import "time"

// AvailabilityWindow is one recurring weekly interval a provider can be booked in.
// EndTime at or before StartTime means the window runs past midnight.
type AvailabilityWindow struct {
	DayOfWeek    int       `bson:"dayOfWeek" json:"dayOfWeek"`
	StartTime    string    `bson:"startTime" json:"startTime"` // "HH:mm"
	EndTime      string    `bson:"endTime" json:"endTime"`     // "HH:mm"
	SessionTypes *[]string `bson:"sessionTypes,omitempty" json:"sessionTypes,omitempty"`
}

// ProviderAvailability maps a stringified weekday ("0" = Sunday .. "6") to that day's windows.
type ProviderAvailability map[string][]AvailabilityWindow

// AvailabilityResponse mirrors the availability fetch envelope.
type AvailabilityResponse struct {
	Availability ProviderAvailability `json:"availability"`
}

// TimeSlot is a bookable start time for a specific date.
type TimeSlot struct {
	Label string `json:"label"` // e.g. "2:30 PM"
	Value string `json:"value"` // e.g. "14:30"
}

// BookableDatesResponse is returned to the booking wizard.
type BookableDatesResponse struct {
	ProviderID string   `json:"providerId"`
	Duration   string   `json:"duration"`
	Dates      []string `json:"dates"`
	Reason     string   `json:"reason,omitempty"`
}

// BookableTimesResponse is returned to the booking wizard.
type BookableTimesResponse struct {
	ProviderID string     `json:"providerId"`
	Date       string     `json:"date"`
	Duration   string     `json:"duration"`
	Times      []TimeSlot `json:"times"`
	Reason     string     `json:"reason,omitempty"`
}

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// FormatDates renders dates with DateLayout.
func FormatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(DateLayout))
	}
	return out
}
