package models

import (
	"time"
)

type Profile struct {
	ProviderName string `bson:"providerName" json:"providerName,omitempty"`
	ProviderType string `bson:"providerType" json:"providerType,omitempty"` // "tutor" or "counselor"
	Email        string `bson:"email" json:"email,omitempty"`
	Status       string `bson:"status" json:"status,omitempty"`
	Timezone     string `bson:"timezone,omitempty" json:"timezone,omitempty"`
}

type PaymentDetails struct {
	Currency string `bson:"currency" json:"currency"` // e.g., "USD"

	// Stripe Connect account receiving payouts
	StripeAccountID string `bson:"stripeAccountID,omitempty" json:"stripeAccountID,omitempty"`
	StripeVerified  bool   `bson:"stripeVerified" json:"stripeVerified"`

	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// ReadyForPayments reports whether the provider finished Stripe onboarding.
func (p PaymentDetails) ReadyForPayments() bool {
	return p.StripeAccountID != "" && p.StripeVerified
}

type Provider struct {
	ID             string               `bson:"id" json:"id,omitempty"`
	Profile        Profile              `bson:"profile" json:"profile"`
	Availability   ProviderAvailability `bson:"availability" json:"availability"`
	PaymentDetails PaymentDetails       `bson:"paymentDetails" json:"paymentDetails,omitzero"`
	FCMToken       string               `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt,omitzero"`
}
