package availability

import (
	"strconv"
	"time"

	"tutorly/models"
)

const (
	// DefaultHorizonDays is how far ahead ListBookableDates looks.
	DefaultHorizonDays = 30
	// DefaultMaxResults caps the number of dates ListBookableDates returns.
	DefaultMaxResults = 14
	// SlotStep is the cadence at which start times are offered inside a window.
	SlotStep = 30

	minutesPerDay = 24 * 60
	clockLayout   = "15:04"
	labelLayout   = "3:04 PM"
)

// ListBookableDates returns, in chronological order, the dates in
// [today, today+horizonDays) whose weekday has at least one window supporting duration.
// It stops after maxResults dates. Non-positive horizonDays or maxResults yield no dates.
func ListBookableDates(
	availability models.ProviderAvailability,
	duration string,
	horizonDays, maxResults int,
	today time.Time,
	policy SessionTypesPolicy,
) []time.Time {
	dates := []time.Time{}
	if len(availability) == 0 || horizonDays <= 0 || maxResults <= 0 {
		return dates
	}

	start := startOfDay(today)
	for i := 0; i < horizonDays && len(dates) < maxResults; i++ {
		d := start.AddDate(0, 0, i)
		if dayHasDuration(availability[weekdayKey(d)], duration, policy) {
			dates = append(dates, d)
		}
	}
	return dates
}

// ListBookableTimes returns the start times offered on date for duration.
// Slots follow the order of the day's window list; they are not sorted across windows.
func ListBookableTimes(
	availability models.ProviderAvailability,
	date time.Time,
	duration string,
	policy SessionTypesPolicy,
) []models.TimeSlot {
	slots := []models.TimeSlot{}
	for _, w := range availability[weekdayKey(date)] {
		if !policy.Supports(w, duration) {
			continue
		}
		start, ok := parseClock(w.StartTime)
		if !ok {
			continue
		}
		end, ok := parseClock(w.EndTime)
		if !ok {
			continue
		}

		if end > start {
			slots = appendSteps(slots, start, end)
			continue
		}
		// Crossing midnight: evening part runs to the end of the day, then the early-morning part.
		slots = appendSteps(slots, start, minutesPerDay)
		slots = appendSteps(slots, 0, end)
	}
	return slots
}

// appendSteps emits every SlotStep-aligned start t in [from, to) with t+SlotStep <= to.
func appendSteps(slots []models.TimeSlot, from, to int) []models.TimeSlot {
	for t := from; t+SlotStep <= to; t += SlotStep {
		slots = append(slots, newTimeSlot(t))
	}
	return slots
}

func dayHasDuration(windows []models.AvailabilityWindow, duration string, policy SessionTypesPolicy) bool {
	for _, w := range windows {
		if policy.Supports(w, duration) {
			return true
		}
	}
	return false
}

func newTimeSlot(minute int) models.TimeSlot {
	t := time.Date(2000, time.January, 1, minute/60, minute%60, 0, 0, time.UTC)
	return models.TimeSlot{
		Label: t.Format(labelLayout),
		Value: t.Format(clockLayout),
	}
}

// parseClock converts "HH:mm" into minutes from midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func weekdayKey(d time.Time) string {
	return strconv.Itoa(int(d.Weekday()))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// HasAnyWindow reports whether any weekday has at least one window configured.
func HasAnyWindow(availability models.ProviderAvailability) bool {
	for _, windows := range availability {
		if len(windows) > 0 {
			return true
		}
	}
	return false
}
