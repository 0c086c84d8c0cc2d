package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tutorly/models"
	"tutorly/utils"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound   = errors.New("payment session not found")
	ErrTransitionRefused = errors.New("payment session cannot do that in its current state")
	ErrInvalidRequest    = errors.New("invalid payment request")
	ErrNotSessionOwner   = errors.New("payment session belongs to another user")
)

// DefaultSessionCapacity bounds how many sessions are kept in memory.
const DefaultSessionCapacity = 10000

const cancelRequestTimeout = 5 * time.Second

// IntentRequest is the payment-intent creation contract. Amount is in major units.
type IntentRequest struct {
	BookingID string  `json:"bookingId" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Currency  string  `json:"currency" binding:"required"`
}

// IntentResult carries the opaque secret needed to confirm the payment.
type IntentResult struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"paymentIntentId,omitempty"`
}

// ConfirmResult is what the payment provider reports after confirmation.
type ConfirmResult struct {
	Status      string
	AmountCents int64
	IntentID    string
}

type IntentCreator interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error)
}

type Confirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret string, req models.ConfirmPaymentRequest) (*ConfirmResult, error)
}

// BookingNotifier tells the booking workflow about payment outcomes.
// Neither call confirms a booking.
type BookingNotifier interface {
	PaymentCaptured(ctx context.Context, p models.PaymentCapturedPayload) error
	RequestCancel(ctx context.Context, p models.CancelBookingPayload) error
}

// SessionService is what the HTTP layer drives; *Manager implements it.
type SessionService interface {
	Open(ctx context.Context, req models.OpenPaymentRequest) (State, error)
	Get(id string) (State, error)
	Submit(ctx context.Context, id string, req models.ConfirmPaymentRequest) (State, error)
	Cancel(ctx context.Context, id string) (State, error)
	Retry(ctx context.Context, id string) (State, error)
}

type session struct {
	mu    sync.Mutex
	state State
}

func (s *session) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Manager runs payment sessions: it feeds events through Transition and performs the resulting effects.
// Sessions live only in memory and are never persisted.
type Manager struct {
	creator   IntentCreator
	confirmer Confirmer
	notifier  BookingNotifier
	logger    *zap.Logger

	mu        sync.Mutex
	sessions  *lru.Cache[string, *session]
	byBooking *lru.Cache[string, string]
	newID     func() string
}

func NewManager(creator IntentCreator, confirmer Confirmer, notifier BookingNotifier, capacity int, logger *zap.Logger) (*Manager, error) {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	sessions, err := lru.New[string, *session](capacity)
	if err != nil {
		return nil, fmt.Errorf("payment session registry: %w", err)
	}
	byBooking, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("payment booking index: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		creator:   creator,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger,
		sessions:  sessions,
		byBooking: byBooking,
		newID:     uuid.NewString,
	}, nil
}

// Open starts a payment session for a booking and creates its intent.
// While a non-final session exists for the booking it is returned instead of starting another,
// provided the same owner opened it.
func (m *Manager) Open(ctx context.Context, req models.OpenPaymentRequest) (State, error) {
	currency := NormalizeCurrency(req.Currency)
	switch {
	case req.BookingID == "":
		return State{}, fmt.Errorf("%w: bookingId is required", ErrInvalidRequest)
	case req.AmountCents <= 0:
		return State{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case currency == "":
		return State{}, fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidRequest)
	}

	m.mu.Lock()
	if id, ok := m.byBooking.Get(req.BookingID); ok {
		if existing, ok := m.sessions.Get(id); ok {
			if st := existing.snapshot(); !st.Status.IsFinal() {
				m.mu.Unlock()
				if st.OwnerID != req.OwnerID {
					return State{}, ErrNotSessionOwner
				}
				return st, nil
			}
		}
	}
	s := &session{state: State{
		SessionID:   m.newID(),
		BookingID:   req.BookingID,
		AmountCents: req.AmountCents,
		Currency:    currency,
		Status:      StatusPending,
		OwnerID:     req.OwnerID,
	}}
	m.sessions.Add(s.state.SessionID, s)
	m.byBooking.Add(req.BookingID, s.state.SessionID)
	m.mu.Unlock()

	st, _ := m.dispatch(ctx, s, Event{Type: EventStart}, nil)
	return st, nil
}

// Get returns a snapshot of a session.
func (m *Manager) Get(id string) (State, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Submit confirms the payment with the collected card. It is refused until an intent exists.
func (m *Manager) Submit(ctx context.Context, id string, req models.ConfirmPaymentRequest) (State, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return m.dispatch(ctx, s, Event{Type: EventSubmit}, &req)
}

// Cancel moves the session to cancelled immediately; the booking cancellation request runs in the background.
func (m *Manager) Cancel(ctx context.Context, id string) (State, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return m.dispatch(ctx, s, Event{Type: EventCancel}, nil)
}

// Retry restarts a failed session from intent creation with a fresh attempt.
func (m *Manager) Retry(ctx context.Context, id string) (State, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	if _, err := m.dispatch(ctx, s, Event{Type: EventRetry}, nil); err != nil {
		return s.snapshot(), err
	}
	st, _ := m.dispatch(ctx, s, Event{Type: EventStart}, nil)
	return st, nil
}

// dispatch applies ev and then runs effects until none remain. The session lock is
// never held across a network call; results are applied against whatever state the
// session is in by then and dropped by Transition if stale.
func (m *Manager) dispatch(ctx context.Context, s *session, ev Event, req *models.ConfirmPaymentRequest) (State, error) {
	effects, changed := m.apply(s, ev)
	if !changed {
		return s.snapshot(), ErrTransitionRefused
	}
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]
		if result, ok := m.perform(ctx, s, eff, req); ok {
			next, _ := m.apply(s, result)
			effects = append(effects, next...)
		}
	}
	return s.snapshot(), nil
}

func (m *Manager) apply(s *session, ev Event) ([]Effect, bool) {
	s.mu.Lock()
	before := s.state
	after, effects := Transition(before, ev)
	s.state = after
	s.mu.Unlock()

	if before.Status == after.Status && before.Attempt == after.Attempt {
		return nil, false
	}
	utils.PaymentTransitions.WithLabelValues(before.Status.String(), after.Status.String()).Inc()
	fields := []zap.Field{
		zap.String("sessionID", after.SessionID),
		zap.String("bookingID", after.BookingID),
		zap.String("from", before.Status.String()),
		zap.String("to", after.Status.String()),
		zap.Int("attempt", after.Attempt),
	}
	if after.Status == StatusFailed && after.LastError != nil {
		utils.PaymentFailures.WithLabelValues(string(after.LastError.Kind)).Inc()
		fields = append(fields, zap.String("errorKind", string(after.LastError.Kind)), zap.String("raw", after.LastError.Raw))
		m.logger.Warn("payment session failed", fields...)
	} else {
		m.logger.Info("payment session transition", fields...)
	}
	return effects, true
}

// perform executes one effect. Effects that produce a result return it as an event.
func (m *Manager) perform(ctx context.Context, s *session, eff Effect, req *models.ConfirmPaymentRequest) (Event, bool) {
	st := s.snapshot()

	switch eff.Type {
	case EffectCreateIntent:
		res, err := m.creator.CreateIntent(ctx, IntentRequest{
			BookingID: st.BookingID,
			Amount:    MinorToMajor(st.AmountCents),
			Currency:  st.Currency,
		})
		if err != nil {
			return Event{Type: EventIntentFailed, Attempt: eff.Attempt, Err: Classify(err)}, true
		}
		return Event{Type: EventIntentCreated, Attempt: eff.Attempt, ClientSecret: res.ClientSecret}, true

	case EffectConfirm:
		var confirm models.ConfirmPaymentRequest
		if req != nil {
			confirm = *req
		}
		res, err := m.confirmer.ConfirmPayment(ctx, eff.ClientSecret, confirm)
		if err != nil {
			return Event{Type: EventConfirmFailed, Attempt: eff.Attempt, Err: Classify(err)}, true
		}
		if res.Status != "succeeded" {
			return Event{Type: EventConfirmFailed, Attempt: eff.Attempt, Err: incompleteError(res.Status)}, true
		}
		if res.AmountCents != 0 && res.AmountCents != st.AmountCents {
			m.logger.Error("confirmed amount differs from session amount",
				zap.String("sessionID", st.SessionID),
				zap.String("intentID", res.IntentID),
				zap.Int64("chargedCents", res.AmountCents),
				zap.Int64("sessionCents", st.AmountCents))
			return Event{Type: EventConfirmFailed, Attempt: eff.Attempt, Err: amountMismatchError(res.AmountCents, st.AmountCents)}, true
		}
		return Event{Type: EventConfirmSucceeded, Attempt: eff.Attempt}, true

	case EffectNotifyPaid:
		payload := models.PaymentCapturedPayload{
			BookingID:       st.BookingID,
			PaymentIntentID: st.IntentID,
			AmountCents:     st.AmountCents,
		}
		if err := m.notifier.PaymentCaptured(ctx, payload); err != nil {
			m.logger.Error("failed to notify booking of captured payment",
				zap.String("bookingID", st.BookingID), zap.Error(err))
		}

	case EffectRequestCancel:
		payload := models.CancelBookingPayload{
			BookingID:       st.BookingID,
			PaymentIntentID: st.IntentID,
			Reason:          "cancelled by student during payment",
		}
		go func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelRequestTimeout)
			defer cancel()
			if err := m.notifier.RequestCancel(cctx, payload); err != nil {
				m.logger.Error("failed to request booking cancellation",
					zap.String("bookingID", payload.BookingID), zap.Error(err))
			}
		}()
	}
	return Event{}, false
}
