package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tutorly/config"
	"tutorly/models"
	"tutorly/services/booking"
	"tutorly/services/notification"
	"tutorly/services/tasks"
	"tutorly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// IntentCanceller voids an unconfirmed payment intent.
type IntentCanceller interface {
	CancelIntent(ctx context.Context, intentID string) error
}

// Handlers processes the booking tasks queued by the API.
type Handlers struct {
	Bookings      booking.BookingService
	Intents       IntentCanceller
	Notifications notification.NotificationService
	Logger        *zap.Logger
}

// RedisOpt builds the asynq connection from REDIS_* settings.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}
}

// NewServer returns the worker server and its mux. Call Start, and Shutdown on exit.
func NewServer(h *Handlers) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
			},
			Logger: h.Logger.Sugar(),
		},
	)
	return srv, h.Mux()
}

func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePaymentCaptured, h.handlePaymentCaptured)
	mux.HandleFunc(tasks.TypeCancelBooking, h.handleCancelBooking)
	mux.HandleFunc(tasks.TypeApprovalRequested, h.handleApprovalRequested)
	mux.HandleFunc(tasks.TypeBookingDecision, h.handleBookingDecision)
	return mux
}

func (h *Handlers) handlePaymentCaptured(ctx context.Context, task *asynq.Task) error {
	var p models.PaymentCapturedPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	_, err := h.Bookings.MarkPaymentCaptured(ctx, p)
	return h.finish(task, p.BookingID, err)
}

func (h *Handlers) handleCancelBooking(ctx context.Context, task *asynq.Task) error {
	var p models.CancelBookingPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	if _, err := h.Bookings.RequestCancel(ctx, p); err != nil {
		return h.finish(task, p.BookingID, err)
	}
	// Best effort: an intent Stripe refuses to cancel is logged, not retried.
	if err := h.Intents.CancelIntent(ctx, p.PaymentIntentID); err != nil {
		h.Logger.Warn("could not cancel payment intent",
			zap.String("bookingID", p.BookingID),
			zap.String("intentID", p.PaymentIntentID),
			zap.Error(err))
	}
	return h.finish(task, p.BookingID, nil)
}

func (h *Handlers) handleApprovalRequested(ctx context.Context, task *asynq.Task) error {
	var p models.ApprovalRequestedPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return h.finish(task, p.BookingID, h.Notifications.NotifyApprovalRequested(ctx, p.BookingID))
}

func (h *Handlers) handleBookingDecision(ctx context.Context, task *asynq.Task) error {
	var p models.BookingDecisionPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return h.finish(task, p.BookingID, h.Notifications.NotifyBookingDecision(ctx, p.BookingID))
}

// finish records the outcome. Errors retrying cannot fix are wrapped with SkipRetry.
func (h *Handlers) finish(task *asynq.Task, bookingID string, err error) error {
	utils.RecordTask(task.Type(), err)
	if err == nil {
		h.Logger.Debug("task done", zap.String("type", task.Type()), zap.String("bookingID", bookingID))
		return nil
	}
	h.Logger.Error("task failed", zap.String("type", task.Type()), zap.String("bookingID", bookingID), zap.Error(err))
	if errors.Is(err, booking.ErrBookingNotFound) || errors.Is(err, booking.ErrInvalidTransition) || errors.Is(err, booking.ErrAmountMismatch) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func decode(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		utils.RecordTask(task.Type(), err)
		return fmt.Errorf("invalid %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}
