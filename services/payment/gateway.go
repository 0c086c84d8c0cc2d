package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tutorly/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

var ErrMissingClientSecret = errors.New("client secret does not identify a payment intent")

const codeUnexpectedState = "payment_intent_unexpected_state"

// BookingLookup resolves the booking an intent is created for.
type BookingLookup interface {
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
}

// ProviderLookup resolves the provider who will receive the payout.
type ProviderLookup interface {
	GetByID(ctx context.Context, providerID string) (*models.Provider, error)
}

// StripeGateway creates, confirms and cancels PaymentIntents on the provider's connected account.
type StripeGateway struct {
	Bookings  BookingLookup
	Providers ProviderLookup
	ReturnURL string
	Logger    *zap.Logger

	newIntent     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	confirmIntent func(string, *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	cancelIntent  func(string, *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// NewStripeGateway uses the package-level stripe.Key configured at startup.
func NewStripeGateway(bookings BookingLookup, providers ProviderLookup, returnURL string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		Bookings:      bookings,
		Providers:     providers,
		ReturnURL:     returnURL,
		Logger:        logger,
		newIntent:     paymentintent.New,
		confirmIntent: paymentintent.Confirm,
		cancelIntent:  paymentintent.Cancel,
	}
}

// CreateIntent implements IntentCreator. It fails with a "Stripe onboarding" message
// when the booking's provider cannot receive payments yet.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	currency := NormalizeCurrency(req.Currency)
	if req.BookingID == "" || req.Amount <= 0 || currency == "" {
		return nil, fmt.Errorf("%w: bookingId, positive amount and currency are required", ErrInvalidRequest)
	}

	booking, err := g.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", req.BookingID, err)
	}
	if err := checkPayable(booking, MajorToMinor(req.Amount), currency); err != nil {
		return nil, err
	}
	provider, err := g.Providers.GetByID(ctx, booking.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("load provider %s: %w", booking.ProviderID, err)
	}
	if !provider.PaymentDetails.ReadyForPayments() {
		return nil, fmt.Errorf("provider %s has not completed Stripe onboarding", provider.ID)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(booking.AmountCents),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(provider.PaymentDetails.StripeAccountID),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", booking.ID)
	params.AddMetadata("provider_id", provider.ID)

	pi, err := g.newIntent(params)
	if err != nil {
		return nil, err
	}
	g.Logger.Info("payment intent created",
		zap.String("bookingID", booking.ID),
		zap.String("intentID", pi.ID),
		zap.Int64("amountCents", pi.Amount))
	return &IntentResult{ClientSecret: pi.ClientSecret, IntentID: pi.ID}, nil
}

// checkPayable refuses intents for bookings that are decided, already paid,
// or priced differently from the request.
func checkPayable(b *models.Booking, amountCents int64, currency string) error {
	if b.Status != models.BookingStatusPending {
		return fmt.Errorf("%w: booking %s is %s", ErrInvalidRequest, b.ID, b.Status)
	}
	if b.PaymentStatus != "" && b.PaymentStatus != models.PaymentStatusUnpaid {
		return fmt.Errorf("%w: booking %s payment is %s", ErrInvalidRequest, b.ID, b.PaymentStatus)
	}
	if amountCents != b.AmountCents {
		return fmt.Errorf("%w: amount %d does not match booking amount %d", ErrInvalidRequest, amountCents, b.AmountCents)
	}
	if b.Currency != "" && NormalizeCurrency(b.Currency) != currency {
		return fmt.Errorf("%w: currency %s does not match booking currency %s", ErrInvalidRequest, currency, b.Currency)
	}
	return nil
}

// ConfirmPayment implements Confirmer.
func (g *StripeGateway) ConfirmPayment(ctx context.Context, clientSecret string, req models.ConfirmPaymentRequest) (*ConfirmResult, error) {
	intentID := IntentIDFromSecret(clientSecret)
	if intentID == "" {
		return nil, ErrMissingClientSecret
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(req.PaymentMethodID),
	}
	if g.ReturnURL != "" {
		params.ReturnURL = stripe.String(g.ReturnURL)
	}
	if req.BillingDetails.Email != "" {
		params.ReceiptEmail = stripe.String(req.BillingDetails.Email)
	}
	params.Context = ctx

	pi, err := g.confirmIntent(intentID, params)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Status: string(pi.Status), AmountCents: pi.Amount, IntentID: pi.ID}, nil
}

// CancelIntent voids an unconfirmed intent. Intents that already succeeded are left alone.
func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	if intentID == "" {
		return nil
	}
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String("requested_by_customer"),
	}
	params.Context = ctx
	if _, err := g.cancelIntent(intentID, params); err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && string(serr.Code) == codeUnexpectedState {
			g.Logger.Warn("payment intent not cancellable", zap.String("intentID", intentID), zap.String("reason", serr.Msg))
			return nil
		}
		return err
	}
	return nil
}
