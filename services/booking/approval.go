package booking

import (
	"context"
	"errors"
	"fmt"

	"tutorly/database/repository"
	"tutorly/models"
	"tutorly/utils"

	"go.uber.org/zap"
)

const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

func (s *DefaultBookingService) Approve(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	return s.decide(ctx, bookingID, actor, DecisionApproved, "")
}

func (s *DefaultBookingService) Reject(ctx context.Context, bookingID string, actor models.Actor, reason string) (*models.Booking, error) {
	return s.decide(ctx, bookingID, actor, DecisionRejected, reason)
}

// ListPendingApprovals returns paid bookings awaiting a decision. Providers see their own; admins see all.
func (s *DefaultBookingService) ListPendingApprovals(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	switch actor.Role {
	case utils.RoleAdmin:
		return s.Store.ListPendingApprovals(ctx, "", s.PendingLimit)
	case utils.RoleProvider:
		if actor.ID == "" {
			return nil, ErrForbidden
		}
		return s.Store.ListPendingApprovals(ctx, actor.ID, s.PendingLimit)
	}
	return nil, ErrForbidden
}

func (s *DefaultBookingService) decide(ctx context.Context, bookingID string, actor models.Actor, decision, reason string) (*models.Booking, error) {
	current, err := s.Store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canDecide(actor, current) {
		return nil, ErrForbidden
	}
	if current.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, current.ID, current.Status)
	}
	if current.PaymentStatus != models.PaymentStatusCaptured {
		return nil, ErrPaymentNotCaptured
	}

	status := models.BookingStatusConfirmed
	if decision == DecisionRejected {
		status = models.BookingStatusRejected
	}
	approval := models.Approval{
		Decision:  decision,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Reason:    reason,
		DecidedAt: s.Now(),
	}

	updated, err := s.Store.Decide(ctx, bookingID, status, approval)
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, fmt.Errorf("%w: booking %s changed while deciding", ErrInvalidTransition, bookingID)
	}
	if err != nil {
		return nil, err
	}

	utils.BookingDecisions.WithLabelValues(decision).Inc()
	s.Logger.Info("booking decided",
		zap.String("bookingID", updated.ID),
		zap.String("decision", decision),
		zap.String("actorID", actor.ID),
		zap.String("actorRole", actor.Role))

	if err := s.Scheduler.BookingDecided(ctx, models.BookingDecisionPayload{BookingID: updated.ID, Decision: decision}); err != nil {
		s.Logger.Error("failed to schedule decision notification", zap.String("bookingID", updated.ID), zap.Error(err))
	}
	return updated, nil
}

func canDecide(actor models.Actor, b *models.Booking) bool {
	switch actor.Role {
	case utils.RoleAdmin:
		return true
	case utils.RoleProvider:
		return actor.ID != "" && actor.ID == b.ProviderID
	}
	return false
}
