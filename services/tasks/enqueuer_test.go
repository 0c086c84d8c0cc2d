package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tutorly/models"

	"github.com/hibiken/asynq"
)

type fakeClient struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Queue: QueueCritical, Type: task.Type()}, nil
}

func TestEnqueuer_PaymentCaptured(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client, nil)

	p := models.PaymentCapturedPayload{BookingID: "b1", PaymentIntentID: "pi_1", AmountCents: 4500}
	if err := e.PaymentCaptured(context.Background(), p); err != nil {
		t.Fatalf("PaymentCaptured: %v", err)
	}
	if len(client.tasks) != 1 || client.tasks[0].Type() != TypePaymentCaptured {
		t.Fatalf("tasks = %+v", client.tasks)
	}
	var got models.PaymentCapturedPayload
	if err := json.Unmarshal(client.tasks[0].Payload(), &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got != p {
		t.Fatalf("payload = %+v, want %+v", got, p)
	}
}

func TestEnqueuer_Types(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client, nil)
	ctx := context.Background()

	_ = e.RequestCancel(ctx, models.CancelBookingPayload{BookingID: "b1"})
	_ = e.ApprovalRequested(ctx, models.ApprovalRequestedPayload{BookingID: "b1", ProviderID: "p1"})
	_ = e.BookingDecided(ctx, models.BookingDecisionPayload{BookingID: "b1", Decision: "approved"})

	want := []string{TypeCancelBooking, TypeApprovalRequested, TypeBookingDecision}
	if len(client.tasks) != len(want) {
		t.Fatalf("enqueued %d tasks", len(client.tasks))
	}
	for i, typ := range want {
		if client.tasks[i].Type() != typ {
			t.Errorf("task %d type = %s, want %s", i, client.tasks[i].Type(), typ)
		}
	}
}

func TestEnqueuer_DuplicateIsNotAnError(t *testing.T) {
	e := NewEnqueuer(&fakeClient{err: asynq.ErrTaskIDConflict}, nil)
	if err := e.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "b1"}); err != nil {
		t.Fatalf("duplicate enqueue: %v", err)
	}
}

func TestEnqueuer_Failure(t *testing.T) {
	e := NewEnqueuer(&fakeClient{err: errors.New("redis down")}, nil)
	if err := e.ApprovalRequested(context.Background(), models.ApprovalRequestedPayload{BookingID: "b1"}); err == nil {
		t.Fatalf("expected error")
	}
}
