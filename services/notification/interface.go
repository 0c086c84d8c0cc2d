package notification

import (
	"context"
	"fmt"

	"tutorly/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// NotificationService sends FCM pushes about booking approval.
type NotificationService interface {
	NotifyApprovalRequested(ctx context.Context, bookingID string) error
	NotifyBookingDecision(ctx context.Context, bookingID string) error
}

// Sender is the part of *messaging.Client we use.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type BookingLookup interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

type ProviderLookup interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Sender    Sender
	Bookings  BookingLookup
	Providers ProviderLookup
	Logger    *zap.Logger
}

func NewDefaultNotificationService(sender Sender, bookings BookingLookup, providers ProviderLookup, logger *zap.Logger) (*DefaultNotificationService, error) {
	if bookings == nil || providers == nil {
		return nil, fmt.Errorf("notification service initialization error: booking or provider lookup is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Sender: sender, Bookings: bookings, Providers: providers, Logger: logger}, nil
}

// NotifyApprovalRequested tells the provider a paid booking is waiting for them.
func (s *DefaultNotificationService) NotifyApprovalRequested(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("NotifyApprovalRequested: could not find booking %s: %w", bookingID, err)
	}
	p, err := s.Providers.GetByID(ctx, b.ProviderID)
	if err != nil {
		return fmt.Errorf("NotifyApprovalRequested: could not find provider %s: %w", b.ProviderID, err)
	}

	title := "New booking awaiting approval"
	body := fmt.Sprintf("A student paid for a %s session on %s at %s. Approve or reject it from your dashboard.",
		b.Duration, b.Date, b.StartTime)
	return s.send(ctx, p.FCMToken, title, body, map[string]string{
		"type":      "approval_requested",
		"role":      "provider",
		"bookingId": b.ID,
	})
}

// NotifyBookingDecision tells the student whether their booking was approved.
func (s *DefaultNotificationService) NotifyBookingDecision(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("NotifyBookingDecision: could not find booking %s: %w", bookingID, err)
	}

	var title, body string
	switch b.Status {
	case models.BookingStatusConfirmed:
		title = "Booking confirmed"
		body = fmt.Sprintf("Your session on %s at %s is confirmed.", b.Date, b.StartTime)
	case models.BookingStatusRejected:
		title = "Booking declined"
		body = fmt.Sprintf("Your tutor could not take the session on %s at %s.", b.Date, b.StartTime)
	default:
		s.Logger.Debug("no decision to announce", zap.String("bookingID", b.ID), zap.String("status", b.Status))
		return nil
	}
	return s.send(ctx, b.StudentFCMToken, title, body, map[string]string{
		"type":      "booking_decision",
		"role":      "student",
		"bookingId": b.ID,
		"status":    b.Status,
	})
}

// send skips silently when there is no push target or FCM is not configured.
func (s *DefaultNotificationService) send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" || s.Sender == nil {
		s.Logger.Debug("push skipped", zap.String("type", data["type"]), zap.Bool("hasToken", token != ""))
		return nil
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.Sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}
