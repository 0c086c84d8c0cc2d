package bookingRepo

import (
	"context"
	"errors"
	"time"

	"tutorly/models"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStateConflict means the booking exists but is not in the state the update requires.
	ErrStateConflict = errors.New("booking is not in the required state")
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// MarkPaymentCaptured records a captured payment on a pending, unpaid booking.
	// The booking status is left unchanged.
	MarkPaymentCaptured(ctx context.Context, id, intentID string, amountCents int64, paidAt time.Time) (*models.Booking, error)
	// Decide moves a pending booking whose payment was captured to status, recording the approval.
	Decide(ctx context.Context, id, status string, approval models.Approval) (*models.Booking, error)
	// Cancel moves a booking that is still pending to cancelled.
	Cancel(ctx context.Context, id, reason string) (*models.Booking, error)
	// ListPendingApprovals returns paid bookings waiting for a decision, oldest first.
	// An empty providerID lists every provider's bookings.
	ListPendingApprovals(ctx context.Context, providerID string, limit int64) ([]models.Booking, error)
	EnsureIndexes(ctx context.Context) error
}
