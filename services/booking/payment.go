package booking

import (
	"context"
	"errors"
	"fmt"

	"tutorly/database/repository"
	"tutorly/models"

	"go.uber.org/zap"
)

// MarkPaymentCaptured records the payment on the booking and asks the provider for approval.
// It never confirms the booking. Replays for an already captured booking are no-ops.
func (s *DefaultBookingService) MarkPaymentCaptured(ctx context.Context, p models.PaymentCapturedPayload) (*models.Booking, error) {
	current, err := s.Store.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == models.PaymentStatusCaptured {
		return current, nil
	}
	if current.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, current.ID, current.Status)
	}
	if p.AmountCents != current.AmountCents {
		s.Logger.Error("captured amount differs from booking amount",
			zap.String("bookingID", current.ID),
			zap.String("intentID", p.PaymentIntentID),
			zap.Int64("capturedCents", p.AmountCents),
			zap.Int64("bookingCents", current.AmountCents))
		return nil, fmt.Errorf("%w: captured %d cents for booking %s priced %d", ErrAmountMismatch, p.AmountCents, current.ID, current.AmountCents)
	}

	updated, err := s.Store.MarkPaymentCaptured(ctx, p.BookingID, p.PaymentIntentID, p.AmountCents, s.Now())
	if errors.Is(err, repository.ErrStateConflict) {
		// Lost a race with another delivery or a cancellation.
		if latest, gerr := s.Store.GetByID(ctx, p.BookingID); gerr == nil && latest.PaymentStatus == models.PaymentStatusCaptured {
			return latest, nil
		}
		return nil, fmt.Errorf("%w: booking %s", ErrInvalidTransition, p.BookingID)
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking payment captured, awaiting approval",
		zap.String("bookingID", updated.ID),
		zap.String("providerID", updated.ProviderID),
		zap.String("intentID", p.PaymentIntentID))

	if err := s.Scheduler.ApprovalRequested(ctx, models.ApprovalRequestedPayload{
		BookingID:  updated.ID,
		ProviderID: updated.ProviderID,
	}); err != nil {
		s.Logger.Error("failed to schedule approval notification", zap.String("bookingID", updated.ID), zap.Error(err))
	}
	return updated, nil
}

// RequestCancel cancels a booking that has not been paid or decided yet. Cancelling twice is a no-op.
func (s *DefaultBookingService) RequestCancel(ctx context.Context, p models.CancelBookingPayload) (*models.Booking, error) {
	current, err := s.Store.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case models.BookingStatusCancelled:
		return current, nil
	case models.BookingStatusPending:
		if current.PaymentStatus == models.PaymentStatusCaptured {
			return nil, fmt.Errorf("%w: booking %s is already paid", ErrInvalidTransition, current.ID)
		}
	default:
		return nil, fmt.Errorf("%w: booking %s is already %s", ErrInvalidTransition, current.ID, current.Status)
	}

	updated, err := s.Store.Cancel(ctx, p.BookingID, p.Reason)
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, fmt.Errorf("%w: booking %s changed while cancelling", ErrInvalidTransition, p.BookingID)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("booking cancelled", zap.String("bookingID", updated.ID), zap.String("reason", p.Reason))
	return updated, nil
}
