package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string   { return "dial tcp: connection refused" }
func (e fakeNetErr) Timeout() bool   { return e.timeout }
func (e fakeNetErr) Temporary() bool { return false }

func TestClassify_StripeCodes(t *testing.T) {
	cases := []struct {
		code, decline string
		want          ErrorKind
	}{
		{"card_declined", "", KindCardDeclined},
		{"card_declined", "generic_decline", KindCardDeclined},
		{"card_declined", "insufficient_funds", KindInsufficientFunds},
		{"expired_card", "", KindExpiredCard},
		{"incorrect_cvc", "", KindInvalidCVC},
		{"invalid_expiry_year", "", KindInvalidExpiry},
		{"processing_error", "", KindUnknown},
	}
	for _, tc := range cases {
		serr := &stripe.Error{
			Code:        stripe.ErrorCode(tc.code),
			DeclineCode: stripe.DeclineCode(tc.decline),
			Msg:         "raw stripe message",
		}
		got := Classify(fmt.Errorf("confirm: %w", serr))
		if got.Kind != tc.want {
			t.Errorf("%s/%s: kind = %s, want %s", tc.code, tc.decline, got.Kind, tc.want)
		}
		if got.Raw != "raw stripe message" {
			t.Errorf("%s: raw = %q", tc.code, got.Raw)
		}
	}
}

func TestClassify_CardDeclinedUsesFriendlyMessage(t *testing.T) {
	got := Classify(&stripe.Error{Code: "card_declined", Msg: "Your card was declined (code 402)."})
	if got.Message != userMessages[KindCardDeclined] {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestClassify_OnboardingRewritten(t *testing.T) {
	for _, err := range []error{
		errors.New("provider p1 has not completed Stripe onboarding"),
		&stripe.Error{Msg: "Destination account must complete Stripe onboarding"},
	} {
		got := Classify(err)
		if got.Message != ProviderNotReadyMessage {
			t.Errorf("message = %q, want %q", got.Message, ProviderNotReadyMessage)
		}
		if got.Kind != KindUnknown {
			t.Errorf("kind = %s", got.Kind)
		}
	}
}

func TestClassify_Transport(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); got.Kind != KindTimeout {
		t.Errorf("deadline: kind = %s", got.Kind)
	}
	if got := Classify(fakeNetErr{timeout: true}); got.Kind != KindTimeout {
		t.Errorf("net timeout: kind = %s", got.Kind)
	}
	if got := Classify(fmt.Errorf("post: %w", fakeNetErr{})); got.Kind != KindNetworkError {
		t.Errorf("net error: kind = %s", got.Kind)
	}
}

func TestClassify_UnknownKeepsRawMessage(t *testing.T) {
	got := Classify(errors.New("booking already paid"))
	if got.Kind != KindUnknown || got.Message != "booking already paid" {
		t.Fatalf("got %+v", got)
	}
	if Classify(nil) != nil {
		t.Fatalf("nil error classified")
	}
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	pe := newError(KindExpiredCard, "x", nil)
	if got := Classify(fmt.Errorf("wrapped: %w", pe)); got != pe {
		t.Fatalf("classified error not reused")
	}
}

func TestMoney(t *testing.T) {
	if got := MinorToMajor(1999); got != 19.99 {
		t.Errorf("MinorToMajor = %v", got)
	}
	if got := MajorToMinor(19.99); got != 1999 {
		t.Errorf("MajorToMinor = %v", got)
	}
	if got := NormalizeCurrency(" usd "); got != "USD" {
		t.Errorf("NormalizeCurrency = %q", got)
	}
	if got := NormalizeCurrency("dollars"); got != "" {
		t.Errorf("NormalizeCurrency accepted %q", got)
	}
}
