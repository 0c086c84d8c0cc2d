package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/stripe/stripe-go/v76"
)

// ErrorKind is the provider-independent classification shown to the dashboard.
type ErrorKind string

const (
	KindCardDeclined      ErrorKind = "CardDeclined"
	KindInsufficientFunds ErrorKind = "InsufficientFunds"
	KindExpiredCard       ErrorKind = "ExpiredCard"
	KindInvalidCVC        ErrorKind = "InvalidCVC"
	KindInvalidExpiry     ErrorKind = "InvalidExpiry"
	KindNetworkError      ErrorKind = "NetworkError"
	KindTimeout           ErrorKind = "Timeout"
	KindUnknown           ErrorKind = "Unknown"
)

// ProviderNotReadyMessage replaces any backend message mentioning Stripe onboarding.
const ProviderNotReadyMessage = "This provider is not yet set up to receive payments."

const onboardingMarker = "Stripe onboarding"

var userMessages = map[ErrorKind]string{
	KindCardDeclined:      "Your card was declined. Please try a different card.",
	KindInsufficientFunds: "Your card has insufficient funds.",
	KindExpiredCard:       "Your card has expired.",
	KindInvalidCVC:        "Your card's security code is incorrect.",
	KindInvalidExpiry:     "Your card's expiration date is invalid.",
	KindNetworkError:      "We couldn't reach the payment service. Check your connection and try again.",
	KindTimeout:           "The payment service took too long to respond. Please try again.",
	KindUnknown:           "Something went wrong while processing your payment.",
}

// Stripe card error and decline codes we map onto kinds.
const (
	codeCardDeclined       = "card_declined"
	codeExpiredCard        = "expired_card"
	codeIncorrectCVC       = "incorrect_cvc"
	codeInvalidCVC         = "invalid_cvc"
	codeInvalidExpiryMonth = "invalid_expiry_month"
	codeInvalidExpiryYear  = "invalid_expiry_year"
	codeInsufficientFunds  = "insufficient_funds"
)

// PaymentError is the classified failure stored on a session.
type PaymentError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Raw     string    `json:"-"`
	Err     error     `json:"-"`
}

func (e *PaymentError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Raw)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Classify maps any error from intent creation or confirmation onto the taxonomy.
func Classify(err error) *PaymentError {
	if err == nil {
		return nil
	}
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe
	}

	raw := err.Error()
	if strings.Contains(raw, onboardingMarker) {
		return &PaymentError{Kind: KindUnknown, Message: ProviderNotReadyMessage, Raw: raw, Err: err}
	}

	var serr *stripe.Error
	if errors.As(err, &serr) {
		return classifyStripe(serr, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, raw, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return newError(KindTimeout, raw, err)
		}
		return newError(KindNetworkError, raw, err)
	}

	return &PaymentError{Kind: KindUnknown, Message: unknownMessage(raw), Raw: raw, Err: err}
}

func classifyStripe(serr *stripe.Error, err error) *PaymentError {
	raw := serr.Msg
	if strings.Contains(raw, onboardingMarker) {
		return &PaymentError{Kind: KindUnknown, Message: ProviderNotReadyMessage, Raw: raw, Err: err}
	}

	switch string(serr.Code) {
	case codeCardDeclined:
		switch string(serr.DeclineCode) {
		case codeInsufficientFunds:
			return newError(KindInsufficientFunds, raw, err)
		case codeExpiredCard:
			return newError(KindExpiredCard, raw, err)
		case codeIncorrectCVC, codeInvalidCVC:
			return newError(KindInvalidCVC, raw, err)
		}
		return newError(KindCardDeclined, raw, err)
	case codeInsufficientFunds:
		return newError(KindInsufficientFunds, raw, err)
	case codeExpiredCard:
		return newError(KindExpiredCard, raw, err)
	case codeIncorrectCVC, codeInvalidCVC:
		return newError(KindInvalidCVC, raw, err)
	case codeInvalidExpiryMonth, codeInvalidExpiryYear:
		return newError(KindInvalidExpiry, raw, err)
	}
	return &PaymentError{Kind: KindUnknown, Message: unknownMessage(raw), Raw: raw, Err: err}
}

func newError(kind ErrorKind, raw string, err error) *PaymentError {
	return &PaymentError{Kind: kind, Message: userMessages[kind], Raw: raw, Err: err}
}

func unknownError(raw string) *PaymentError {
	return &PaymentError{Kind: KindUnknown, Message: unknownMessage(raw), Raw: raw}
}

// Confirmation outcomes other than "succeeded" that Stripe reports without an error.
var incompleteStatuses = map[string]struct {
	kind    ErrorKind
	message string
}{
	"requires_action":         {KindUnknown, "Your bank needs you to verify this payment. Please try again and complete the verification."},
	"requires_source_action":  {KindUnknown, "Your bank needs you to verify this payment. Please try again and complete the verification."},
	"processing":              {KindUnknown, "Your payment is still processing. Please wait a few minutes before trying again."},
	"requires_payment_method": {KindCardDeclined, userMessages[KindCardDeclined]},
}

// incompleteError classifies a confirmation that returned a non-final intent status.
func incompleteError(status string) *PaymentError {
	raw := fmt.Sprintf("payment was not completed (status: %s)", status)
	if m, ok := incompleteStatuses[status]; ok {
		return &PaymentError{Kind: m.kind, Message: m.message, Raw: raw}
	}
	return unknownError(raw)
}

func amountMismatchError(charged, expected int64) *PaymentError {
	return &PaymentError{
		Kind:    KindUnknown,
		Message: "The charged amount did not match your booking. Please contact support.",
		Raw:     fmt.Sprintf("charged %d, expected %d", charged, expected),
	}
}

// Unknown errors keep the raw message for display.
func unknownMessage(raw string) string {
	if raw == "" {
		return userMessages[KindUnknown]
	}
	return raw
}
