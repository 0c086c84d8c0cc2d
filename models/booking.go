package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"

	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusCaptured = "captured"
	PaymentStatusVoided   = "voided"
)

// Booking is a student's request for a session with a provider.
// A captured payment does not confirm the booking; the provider or an admin must approve it.
type Booking struct {
	ID              string     `bson:"id" json:"id"`
	ProviderID      string     `bson:"providerId" json:"providerId"`
	StudentID       string     `bson:"studentId" json:"studentId"`
	StudentFCMToken string     `bson:"studentFcmToken,omitempty" json:"-"`
	Date            string     `bson:"date" json:"date"`           // "2006-01-02"
	StartTime       string     `bson:"startTime" json:"startTime"` // "HH:mm"
	Duration        string     `bson:"duration" json:"duration"`   // e.g. "60min"
	AmountCents     int64      `bson:"amountCents" json:"amountCents"`
	Currency        string     `bson:"currency" json:"currency"`
	Status          string     `bson:"status" json:"status"`
	PaymentStatus   string     `bson:"paymentStatus" json:"paymentStatus"`
	PaidCents       int64      `bson:"paidCents,omitempty" json:"paidCents,omitempty"`
	PaymentIntentID string     `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	Approval        *Approval  `bson:"approval,omitempty" json:"approval,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
	PaidAt          *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// Approval records who decided on a pending booking.
type Approval struct {
	Decision  string    `bson:"decision" json:"decision"` // "approved" or "rejected"
	ActorID   string    `bson:"actorId" json:"actorId"`
	ActorRole string    `bson:"actorRole" json:"actorRole"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	DecidedAt time.Time `bson:"decidedAt" json:"decidedAt"`
}

// Actor identifies the authenticated caller acting on a booking.
type Actor struct {
	ID   string
	Role string // "provider", "admin", "student"
}
