package models

// OpenPaymentRequest starts a payment session for a booking.
type OpenPaymentRequest struct {
	BookingID   string `json:"bookingId" binding:"required"`
	AmountCents int64  `json:"amountCents" binding:"required"`
	Currency    string `json:"currency" binding:"required"`

	// OwnerID comes from the authenticated caller, never from the body.
	OwnerID string `json:"-"`
}

// BillingDetails accompany the card collected by the dashboard.
type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConfirmPaymentRequest carries the card collected client-side.
type ConfirmPaymentRequest struct {
	PaymentMethodID string         `json:"paymentMethodId" binding:"required"`
	BillingDetails  BillingDetails `json:"billingDetails"`
}

// PaymentCapturedPayload is the task payload sent to the booking workflow on payment success.
type PaymentCapturedPayload struct {
	BookingID       string `json:"bookingId"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amountCents"`
}

// CancelBookingPayload is the task payload for a fire-and-forget cancellation.
type CancelBookingPayload struct {
	BookingID       string `json:"bookingId"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Reason          string `json:"reason"`
}

// ApprovalRequestedPayload asks for the provider to be told a paid booking waits on them.
type ApprovalRequestedPayload struct {
	BookingID  string `json:"bookingId"`
	ProviderID string `json:"providerId"`
}

// BookingDecisionPayload tells the student the provider decided on their booking.
type BookingDecisionPayload struct {
	BookingID string `json:"bookingId"`
	Decision  string `json:"decision"`
}
