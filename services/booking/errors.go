package booking

import (
	"errors"

	"tutorly/database/repository"
)

var (
	ErrBookingNotFound    = repository.ErrBookingNotFound
	ErrPaymentNotCaptured = errors.New("booking payment has not been captured")
	ErrInvalidTransition  = errors.New("booking cannot move to that status")
	ErrForbidden          = errors.New("only the booking's provider or an admin may do that")
	ErrAmountMismatch     = errors.New("captured amount does not match the booking amount")
)
