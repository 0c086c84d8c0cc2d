package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo uses the "bookings" collection of db.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{coll: db.Collection("bookings")}
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) MarkPaymentCaptured(ctx context.Context, id, intentID string, amountCents int64, paidAt time.Time) (*models.Booking, error) {
	filter := bson.M{
		"id":            id,
		"status":        models.BookingStatusPending,
		"paymentStatus": bson.M{"$ne": models.PaymentStatusCaptured},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus":   models.PaymentStatusCaptured,
		"paymentIntentId": intentID,
		"paidCents":       amountCents,
		"paidAt":          paidAt,
		"updatedAt":       paidAt,
	}}
	return r.updateOne(ctx, id, filter, update)
}

func (r *MongoBookingRepo) Decide(ctx context.Context, id, status string, approval models.Approval) (*models.Booking, error) {
	filter := bson.M{
		"id":            id,
		"status":        models.BookingStatusPending,
		"paymentStatus": models.PaymentStatusCaptured,
	}
	update := bson.M{"$set": bson.M{
		"status":    status,
		"approval":  approval,
		"updatedAt": approval.DecidedAt,
	}}
	return r.updateOne(ctx, id, filter, update)
}

func (r *MongoBookingRepo) Cancel(ctx context.Context, id, reason string) (*models.Booking, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"id":            id,
		"status":        models.BookingStatusPending,
		"paymentStatus": bson.M{"$ne": models.PaymentStatusCaptured},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.BookingStatusCancelled,
		"approval":  models.Approval{Decision: models.BookingStatusCancelled, ActorRole: "system", Reason: reason, DecidedAt: now},
		"updatedAt": now,
	}}
	return r.updateOne(ctx, id, filter, update)
}

func (r *MongoBookingRepo) ListPendingApprovals(ctx context.Context, providerID string, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":        models.BookingStatusPending,
		"paymentStatus": models.PaymentStatusCaptured,
	}
	if providerID != "" {
		filter["providerId"] = providerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "paidAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// updateOne applies a conditional update and returns the updated document.
// A miss is reported as ErrBookingNotFound or ErrStateConflict depending on whether id exists.
func (r *MongoBookingRepo) updateOne(ctx context.Context, id string, filter, update bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check booking %s: %w", id, err)
	}
	if count == 0 {
		return nil, ErrBookingNotFound
	}
	return nil, ErrStateConflict
}
