package tasks

import (
	"context"
	"errors"
	"fmt"

	"tutorly/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Client is the part of *asynq.Client the enqueuer needs.
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer hands booking side effects to the background worker.
// It satisfies both the payment session's notifier and the booking service's scheduler.
type Enqueuer struct {
	Client Client
	Logger *zap.Logger
}

func NewEnqueuer(client Client, logger *zap.Logger) *Enqueuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enqueuer{Client: client, Logger: logger}
}

func (e *Enqueuer) PaymentCaptured(ctx context.Context, p models.PaymentCapturedPayload) error {
	task, opts, err := NewPaymentCapturedTask(p)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, p.BookingID)
}

func (e *Enqueuer) RequestCancel(ctx context.Context, p models.CancelBookingPayload) error {
	task, opts, err := NewCancelBookingTask(p)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, p.BookingID)
}

func (e *Enqueuer) ApprovalRequested(ctx context.Context, p models.ApprovalRequestedPayload) error {
	task, opts, err := NewApprovalRequestedTask(p)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, p.BookingID)
}

func (e *Enqueuer) BookingDecided(ctx context.Context, p models.BookingDecisionPayload) error {
	task, opts, err := NewBookingDecisionTask(p)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, p.BookingID)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option, bookingID string) error {
	info, err := e.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		e.Logger.Debug("task already queued", zap.String("type", task.Type()), zap.String("bookingID", bookingID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s for booking %s: %w", task.Type(), bookingID, err)
	}
	e.Logger.Info("task enqueued",
		zap.String("type", task.Type()),
		zap.String("taskID", info.ID),
		zap.String("queue", info.Queue),
		zap.String("bookingID", bookingID))
	return nil
}
