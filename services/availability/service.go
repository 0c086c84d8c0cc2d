package availability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tutorly/models"
	"tutorly/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrMissingDuration = errors.New("duration is required")
	ErrInvalidWindow   = errors.New("invalid availability window")
)

// Reasons attached to an empty result. The lists themselves stay empty either way.
const (
	ReasonNoAvailability     = "no_availability"
	ReasonNoMatchingDuration = "no_matching_duration"
)

// Source fetches a provider's recurring availability.
type Source interface {
	GetAvailability(ctx context.Context, providerID string) (models.ProviderAvailability, error)
}

// Writer persists a provider's availability.
type Writer interface {
	UpdateAvailability(ctx context.Context, providerID string, avail models.ProviderAvailability) error
}

// Invalidator drops any cached copy of a provider's availability.
type Invalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

// AvailabilityService answers the booking wizard's date and time queries.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, providerID string) (models.ProviderAvailability, error)
	BookableDates(ctx context.Context, providerID, duration string, horizonDays, maxResults int) (*models.BookableDatesResponse, error)
	BookableTimes(ctx context.Context, providerID, date, duration string) (*models.BookableTimesResponse, error)
	UpdateAvailability(ctx context.Context, providerID string, avail models.ProviderAvailability) error
}

// DefaultAvailabilityService implements AvailabilityService over a Source.
type DefaultAvailabilityService struct {
	Source      Source
	Writer      Writer
	Invalidator Invalidator
	Policy      SessionTypesPolicy
	Now         func() time.Time
	Location    *time.Location
	HorizonDays int
	MaxResults  int
	Logger      *zap.Logger
}

func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, providerID string) (models.ProviderAvailability, error) {
	avail, err := s.Source.GetAvailability(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("fetch availability for %s: %w", providerID, err)
	}
	if avail == nil {
		avail = models.ProviderAvailability{}
	}
	return avail, nil
}

func (s *DefaultAvailabilityService) BookableDates(ctx context.Context, providerID, duration string, horizonDays, maxResults int) (*models.BookableDatesResponse, error) {
	if duration == "" {
		return nil, ErrMissingDuration
	}
	avail, err := s.GetAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		horizonDays = s.HorizonDays
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if maxResults <= 0 {
		maxResults = s.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	dates := ListBookableDates(avail, duration, horizonDays, maxResults, s.today(), s.Policy)
	resp := &models.BookableDatesResponse{
		ProviderID: providerID,
		Duration:   duration,
		Dates:      models.FormatDates(dates),
	}
	if len(dates) == 0 {
		resp.Reason = emptyReason(avail)
	}
	utils.AvailabilityLookups.WithLabelValues("dates", resultLabel(resp.Reason)).Inc()
	s.logger().Debug("bookable dates resolved",
		zap.String("providerID", providerID),
		zap.String("duration", duration),
		zap.Int("count", len(dates)))
	return resp, nil
}

func (s *DefaultAvailabilityService) BookableTimes(ctx context.Context, providerID, date, duration string) (*models.BookableTimesResponse, error) {
	if duration == "" {
		return nil, ErrMissingDuration
	}
	day, err := time.ParseInLocation(models.DateLayout, date, s.location())
	if err != nil {
		return nil, ErrInvalidDate
	}
	avail, err := s.GetAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}

	times := ListBookableTimes(avail, day, duration, s.Policy)
	resp := &models.BookableTimesResponse{
		ProviderID: providerID,
		Date:       date,
		Duration:   duration,
		Times:      times,
	}
	if len(times) == 0 {
		resp.Reason = emptyReason(avail)
	}
	utils.AvailabilityLookups.WithLabelValues("times", resultLabel(resp.Reason)).Inc()
	return resp, nil
}

// UpdateAvailability validates and stores a provider's weekly windows.
func (s *DefaultAvailabilityService) UpdateAvailability(ctx context.Context, providerID string, avail models.ProviderAvailability) error {
	if err := Validate(avail); err != nil {
		return err
	}
	if err := s.Writer.UpdateAvailability(ctx, providerID, avail); err != nil {
		return fmt.Errorf("store availability for %s: %w", providerID, err)
	}
	if s.Invalidator != nil {
		if err := s.Invalidator.Invalidate(ctx, providerID); err != nil {
			s.logger().Warn("availability cache invalidation failed", zap.String("providerID", providerID), zap.Error(err))
		}
	}
	return nil
}

// Validate rejects windows the resolver would silently skip.
func Validate(avail models.ProviderAvailability) error {
	for key, windows := range avail {
		day, err := strconv.Atoi(key)
		if err != nil || day < 0 || day > 6 {
			return fmt.Errorf("%w: weekday key %q", ErrInvalidWindow, key)
		}
		for i, w := range windows {
			if w.DayOfWeek != day {
				return fmt.Errorf("%w: window %d under %q has dayOfWeek %d", ErrInvalidWindow, i, key, w.DayOfWeek)
			}
			if _, ok := parseClock(w.StartTime); !ok {
				return fmt.Errorf("%w: window %d under %q has startTime %q", ErrInvalidWindow, i, key, w.StartTime)
			}
			if _, ok := parseClock(w.EndTime); !ok {
				return fmt.Errorf("%w: window %d under %q has endTime %q", ErrInvalidWindow, i, key, w.EndTime)
			}
		}
	}
	return nil
}

func (s *DefaultAvailabilityService) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().In(s.location())
}

func (s *DefaultAvailabilityService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *DefaultAvailabilityService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func emptyReason(avail models.ProviderAvailability) string {
	if !HasAnyWindow(avail) {
		return ReasonNoAvailability
	}
	return ReasonNoMatchingDuration
}

func resultLabel(reason string) string {
	if reason == "" {
		return "found"
	}
	return reason
}
