package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tutorly/database/repository"
	"tutorly/models"
)

type fakeStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeStore(bs ...models.Booking) *fakeStore {
	s := &fakeStore{bookings: map[string]*models.Booking{}}
	for i := range bs {
		b := bs[i]
		s.bookings[b.ID] = &b
	}
	return s
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) MarkPaymentCaptured(ctx context.Context, id, intentID string, amountCents int64, paidAt time.Time) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending || b.PaymentStatus == models.PaymentStatusCaptured {
		return nil, repository.ErrStateConflict
	}
	b.PaymentStatus = models.PaymentStatusCaptured
	b.PaymentIntentID = intentID
	b.PaidCents = amountCents
	b.PaidAt = &paidAt
	cp := *b
	return &cp, nil
}

func (s *fakeStore) Decide(ctx context.Context, id, status string, approval models.Approval) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending || b.PaymentStatus != models.PaymentStatusCaptured {
		return nil, repository.ErrStateConflict
	}
	b.Status = status
	b.Approval = &approval
	cp := *b
	return &cp, nil
}

func (s *fakeStore) Cancel(ctx context.Context, id, reason string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending || b.PaymentStatus == models.PaymentStatusCaptured {
		return nil, repository.ErrStateConflict
	}
	b.Status = models.BookingStatusCancelled
	cp := *b
	return &cp, nil
}

func (s *fakeStore) ListPendingApprovals(ctx context.Context, providerID string, limit int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusPending && b.PaymentStatus == models.PaymentStatusCaptured &&
			(providerID == "" || b.ProviderID == providerID) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeScheduler struct {
	approvals []models.ApprovalRequestedPayload
	decisions []models.BookingDecisionPayload
}

func (f *fakeScheduler) ApprovalRequested(ctx context.Context, p models.ApprovalRequestedPayload) error {
	f.approvals = append(f.approvals, p)
	return nil
}

func (f *fakeScheduler) BookingDecided(ctx context.Context, p models.BookingDecisionPayload) error {
	f.decisions = append(f.decisions, p)
	return nil
}

var (
	provider = models.Actor{ID: "p1", Role: "provider"}
	admin    = models.Actor{ID: "a1", Role: "admin"}
	student  = models.Actor{ID: "s1", Role: "student"}
)

func unpaid(id string) models.Booking {
	return models.Booking{
		ID: id, ProviderID: "p1", StudentID: "s1", AmountCents: 4500, Currency: "USD",
		Status: models.BookingStatusPending, PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func paid(id string) models.Booking {
	b := unpaid(id)
	b.PaymentStatus = models.PaymentStatusCaptured
	return b
}

func newService(store *fakeStore) (*DefaultBookingService, *fakeScheduler) {
	sched := &fakeScheduler{}
	svc := NewDefaultBookingService(store, sched, nil)
	svc.Now = func() time.Time { return time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC) }
	return svc, sched
}

func TestMarkPaymentCaptured_DoesNotConfirm(t *testing.T) {
	svc, sched := newService(newFakeStore(unpaid("b1")))

	b, err := svc.MarkPaymentCaptured(context.Background(), models.PaymentCapturedPayload{BookingID: "b1", PaymentIntentID: "pi_1", AmountCents: 4500})
	if err != nil {
		t.Fatalf("MarkPaymentCaptured: %v", err)
	}
	if b.Status != models.BookingStatusPending || b.PaymentStatus != models.PaymentStatusCaptured {
		t.Fatalf("booking = %s/%s, want pending/captured", b.Status, b.PaymentStatus)
	}
	if len(sched.approvals) != 1 || sched.approvals[0].ProviderID != "p1" {
		t.Fatalf("approval requests = %+v", sched.approvals)
	}

	// A redelivered task is a no-op.
	if _, err := svc.MarkPaymentCaptured(context.Background(), models.PaymentCapturedPayload{BookingID: "b1", PaymentIntentID: "pi_1", AmountCents: 4500}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(sched.approvals) != 1 {
		t.Fatalf("approval requested twice")
	}
}

func TestMarkPaymentCaptured_CancelledBooking(t *testing.T) {
	b := unpaid("b1")
	b.Status = models.BookingStatusCancelled
	svc, _ := newService(newFakeStore(b))

	if _, err := svc.MarkPaymentCaptured(context.Background(), models.PaymentCapturedPayload{BookingID: "b1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
}

func TestMarkPaymentCaptured_AmountMismatch(t *testing.T) {
	store := newFakeStore(unpaid("b1"))
	svc, sched := newService(store)

	_, err := svc.MarkPaymentCaptured(context.Background(), models.PaymentCapturedPayload{BookingID: "b1", PaymentIntentID: "pi_1", AmountCents: 1})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("err = %v", err)
	}
	if b, _ := store.GetByID(context.Background(), "b1"); b.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatalf("payment status = %s", b.PaymentStatus)
	}
	if len(sched.approvals) != 0 {
		t.Fatalf("approval requested for a mismatched payment")
	}
}

func TestApprove(t *testing.T) {
	cases := []struct {
		name    string
		booking models.Booking
		actor   models.Actor
		wantErr error
	}{
		{"provider approves paid booking", paid("b1"), provider, nil},
		{"admin approves", paid("b1"), admin, nil},
		{"unpaid booking", unpaid("b1"), provider, ErrPaymentNotCaptured},
		{"other provider", paid("b1"), models.Actor{ID: "p2", Role: "provider"}, ErrForbidden},
		{"student", paid("b1"), student, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sched := newService(newFakeStore(tc.booking))
			b, err := svc.Approve(context.Background(), "b1", tc.actor)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Approve: %v", err)
			}
			if b.Status != models.BookingStatusConfirmed || b.Approval == nil || b.Approval.ActorID != tc.actor.ID {
				t.Fatalf("booking = %+v", b)
			}
			if len(sched.decisions) != 1 || sched.decisions[0].Decision != DecisionApproved {
				t.Fatalf("decisions = %+v", sched.decisions)
			}
		})
	}
}

func TestReject_ThenApproveRefused(t *testing.T) {
	svc, _ := newService(newFakeStore(paid("b1")))

	b, err := svc.Reject(context.Background(), "b1", provider, "schedule clash")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if b.Status != models.BookingStatusRejected || b.Approval.Reason != "schedule clash" {
		t.Fatalf("booking = %+v", b)
	}
	if _, err := svc.Approve(context.Background(), "b1", admin); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve after reject: %v", err)
	}
}

func TestRequestCancel(t *testing.T) {
	confirmed := paid("b2")
	confirmed.Status = models.BookingStatusConfirmed
	svc, _ := newService(newFakeStore(unpaid("b1"), confirmed, paid("b3")))

	b, err := svc.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "b1", Reason: "student cancelled"})
	if err != nil || b.Status != models.BookingStatusCancelled {
		t.Fatalf("cancel: %v %+v", err, b)
	}
	if _, err := svc.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "b1"}); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if _, err := svc.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "b2"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel confirmed: %v", err)
	}
	if _, err := svc.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "b3"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel paid: %v", err)
	}
	if _, err := svc.RequestCancel(context.Background(), models.CancelBookingPayload{BookingID: "nope"}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("cancel missing: %v", err)
	}
}

func TestListPendingApprovals(t *testing.T) {
	other := paid("b3")
	other.ProviderID = "p2"
	svc, _ := newService(newFakeStore(paid("b1"), unpaid("b2"), other))

	mine, err := svc.ListPendingApprovals(context.Background(), provider)
	if err != nil || len(mine) != 1 || mine[0].ID != "b1" {
		t.Fatalf("provider list: %v %+v", err, mine)
	}
	all, err := svc.ListPendingApprovals(context.Background(), admin)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin list: %v %+v", err, all)
	}
	if _, err := svc.ListPendingApprovals(context.Background(), student); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student list: %v", err)
	}
}
