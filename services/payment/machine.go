package payment

import "strings"

// Status is where a payment session sits in its lifecycle.
type Status string

const (
	StatusPending              Status = "pending"
	StatusCreatingIntent       Status = "creating_intent"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusProcessing           Status = "processing"
	StatusSucceeded            Status = "succeeded"
	StatusFailed               Status = "failed"
	StatusCancelled            Status = "cancelled"
)

// IsFinal reports whether no further transition can leave s.
// A failed session is not final: it can still be retried or cancelled.
func (s Status) IsFinal() bool {
	return s == StatusSucceeded || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// State is the full client-side state of one payment attempt chain for a booking.
type State struct {
	SessionID    string        `json:"sessionId"`
	BookingID    string        `json:"bookingId"`
	AmountCents  int64         `json:"amountCents"`
	Currency     string        `json:"currency"`
	Status       Status        `json:"status"`
	ClientSecret string        `json:"clientSecret,omitempty"`
	IntentID     string        `json:"paymentIntentId,omitempty"`
	LastError    *PaymentError `json:"lastError,omitempty"`
	Attempt      int           `json:"attempt"`
	OwnerID      string        `json:"-"`
}

type EventType string

const (
	EventStart            EventType = "start"
	EventIntentCreated    EventType = "intent_created"
	EventIntentFailed     EventType = "intent_failed"
	EventSubmit           EventType = "submit"
	EventConfirmSucceeded EventType = "confirm_succeeded"
	EventConfirmFailed    EventType = "confirm_failed"
	EventCancel           EventType = "cancel"
	EventRetry            EventType = "retry"
)

// Event drives Transition. Result events carry the Attempt they were issued for.
type Event struct {
	Type         EventType
	Attempt      int
	ClientSecret string
	Err          *PaymentError
}

type EffectType string

const (
	EffectCreateIntent  EffectType = "create_intent"
	EffectConfirm       EffectType = "confirm"
	EffectNotifyPaid    EffectType = "notify_paid"
	EffectRequestCancel EffectType = "request_cancel"
)

// Effect is I/O requested by a transition; the session shell performs it.
type Effect struct {
	Type         EffectType
	Attempt      int
	ClientSecret string
}

// Transition is the pure state function. Events that do not apply to the
// current state, or that belong to an earlier attempt, leave s unchanged.
func Transition(s State, ev Event) (State, []Effect) {
	if isResult(ev.Type) && ev.Attempt != s.Attempt {
		return s, nil
	}

	switch ev.Type {
	case EventStart:
		if s.Status != StatusPending || s.BookingID == "" || s.AmountCents <= 0 {
			return s, nil
		}
		s.Status = StatusCreatingIntent
		return s, []Effect{{Type: EffectCreateIntent, Attempt: s.Attempt}}

	case EventIntentCreated:
		if s.Status != StatusCreatingIntent {
			return s, nil
		}
		if ev.ClientSecret == "" {
			s.Status = StatusFailed
			s.LastError = unknownError("payment provider returned no client secret")
			return s, nil
		}
		s.Status = StatusAwaitingConfirmation
		s.ClientSecret = ev.ClientSecret
		s.IntentID = IntentIDFromSecret(ev.ClientSecret)
		return s, nil

	case EventIntentFailed:
		if s.Status != StatusCreatingIntent {
			return s, nil
		}
		s.Status = StatusFailed
		s.LastError = ev.Err
		return s, nil

	case EventSubmit:
		if s.Status != StatusAwaitingConfirmation || s.ClientSecret == "" {
			return s, nil
		}
		s.Status = StatusProcessing
		s.LastError = nil
		return s, []Effect{{Type: EffectConfirm, Attempt: s.Attempt, ClientSecret: s.ClientSecret}}

	case EventConfirmSucceeded:
		if s.Status != StatusProcessing {
			return s, nil
		}
		s.Status = StatusSucceeded
		return s, []Effect{{Type: EffectNotifyPaid, Attempt: s.Attempt}}

	case EventConfirmFailed:
		if s.Status != StatusProcessing {
			return s, nil
		}
		s.Status = StatusFailed
		s.LastError = ev.Err
		return s, nil

	case EventCancel:
		if s.Status.IsFinal() {
			return s, nil
		}
		s.Status = StatusCancelled
		return s, []Effect{{Type: EffectRequestCancel, Attempt: s.Attempt}}

	case EventRetry:
		if s.Status != StatusFailed {
			return s, nil
		}
		s.Status = StatusPending
		s.ClientSecret = ""
		s.IntentID = ""
		s.LastError = nil
		s.Attempt++
		return s, nil
	}
	return s, nil
}

func isResult(t EventType) bool {
	switch t {
	case EventIntentCreated, EventIntentFailed, EventConfirmSucceeded, EventConfirmFailed:
		return true
	}
	return false
}

// IntentIDFromSecret extracts "pi_123" from a client secret of the form "pi_123_secret_abc".
func IntentIDFromSecret(secret string) string {
	id, _, found := strings.Cut(secret, "_secret_")
	if !found {
		return ""
	}
	return id
}
