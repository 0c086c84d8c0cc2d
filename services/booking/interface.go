package booking

import (
	"context"
	"time"

	"tutorly/models"

	"go.uber.org/zap"
)

// BookingService owns what happens to a booking around payment: recording a captured
// payment, cancellation, and the provider/admin approval that actually confirms it.
type BookingService interface {
	MarkPaymentCaptured(ctx context.Context, p models.PaymentCapturedPayload) (*models.Booking, error)
	RequestCancel(ctx context.Context, p models.CancelBookingPayload) (*models.Booking, error)
	Approve(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	Reject(ctx context.Context, bookingID string, actor models.Actor, reason string) (*models.Booking, error)
	ListPendingApprovals(ctx context.Context, actor models.Actor) ([]models.Booking, error)
}

// Store is the persistence the service needs; repository.BookingRepository satisfies it.
type Store interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	MarkPaymentCaptured(ctx context.Context, id, intentID string, amountCents int64, paidAt time.Time) (*models.Booking, error)
	Decide(ctx context.Context, id, status string, approval models.Approval) (*models.Booking, error)
	Cancel(ctx context.Context, id, reason string) (*models.Booking, error)
	ListPendingApprovals(ctx context.Context, providerID string, limit int64) ([]models.Booking, error)
}

// Scheduler queues follow-up work such as push notifications.
type Scheduler interface {
	ApprovalRequested(ctx context.Context, p models.ApprovalRequestedPayload) error
	BookingDecided(ctx context.Context, p models.BookingDecisionPayload) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Store     Store
	Scheduler Scheduler
	Logger    *zap.Logger
	Now       func() time.Time
	// PendingLimit caps ListPendingApprovals.
	PendingLimit int64
}

func NewDefaultBookingService(store Store, scheduler Scheduler, logger *zap.Logger) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Store:        store,
		Scheduler:    scheduler,
		Logger:       logger,
		Now:          func() time.Time { return time.Now().UTC() },
		PendingLimit: 100,
	}
}
