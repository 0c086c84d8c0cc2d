package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"tutorly/models"

	"github.com/hibiken/asynq"
)

const (
	TypePaymentCaptured   = "booking:payment_captured"
	TypeCancelBooking     = "booking:cancel"
	TypeApprovalRequested = "booking:approval_requested"
	TypeBookingDecision   = "booking:decision"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Task IDs dedupe repeated enqueues for the same booking while the task is retained.
const taskRetention = 24 * time.Hour

func NewPaymentCapturedTask(p models.PaymentCapturedPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(10),
		asynq.TaskID(fmt.Sprintf("captured:%s:%s", p.BookingID, p.PaymentIntentID)),
		asynq.Retention(taskRetention),
	}
	return asynq.NewTask(TypePaymentCaptured, b), opts, nil
}

func NewCancelBookingTask(p models.CancelBookingPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.TaskID("cancel:" + p.BookingID),
		asynq.Retention(taskRetention),
	}
	return asynq.NewTask(TypeCancelBooking, b), opts, nil
}

func NewApprovalRequestedTask(p models.ApprovalRequestedPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
	}
	return asynq.NewTask(TypeApprovalRequested, b), opts, nil
}

func NewBookingDecisionTask(p models.BookingDecisionPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
	}
	return asynq.NewTask(TypeBookingDecision, b), opts, nil
}
