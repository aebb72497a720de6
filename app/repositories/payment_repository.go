package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

// ErrDuplicateKey reports that a payment with the same idempotency key was
// already recorded. The reconciler treats it as a retry, not a failure.
var ErrDuplicateKey = errors.New("payments: duplicate idempotency key")

// PaymentRepository handles the append-only payments collection. Records are
// inserted exactly once and never mutated, except for the settled flag that
// tracks whether the derived cart/order effects have completed.
type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection(database.ColPayments)}
}

func (r *PaymentRepository) ByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	cursor, err := r.col.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("payments: find %s: %w", email, err)
	}
	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("payments: decode: %w", err)
	}
	return payments, nil
}

// Insert writes the payment record. A duplicate idempotency key surfaces as
// ErrDuplicateKey via the unique index.
func (r *PaymentRepository) Insert(ctx context.Context, p models.Payment) (string, error) {
	res, err := r.col.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return "", ErrDuplicateKey
	}
	if err != nil {
		return "", fmt.Errorf("payments: insert: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// FindByKey returns the record previously written for the idempotency key,
// or nil when none exists.
func (r *PaymentRepository) FindByKey(ctx context.Context, key string) (*models.Payment, error) {
	var p models.Payment
	err := r.col.FindOne(ctx, bson.M{"idempotencyKey": key}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payments: find key: %w", err)
	}
	return &p, nil
}

// MarkSettled records that both derived effects of the payment completed.
func (r *PaymentRepository) MarkSettled(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"settled": true}})
	if err != nil {
		return fmt.Errorf("payments: mark settled %s: %w", id, err)
	}
	return nil
}

// Unsettled lists records older than the cutoff whose derived effects have
// not completed; the sweeper re-runs those.
func (r *PaymentRepository) Unsettled(ctx context.Context, olderThan time.Time) ([]models.Payment, error) {
	cursor, err := r.col.Find(ctx, bson.M{
		"settled":   false,
		"createdAt": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return nil, fmt.Errorf("payments: find unsettled: %w", err)
	}
	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("payments: decode: %w", err)
	}
	return payments, nil
}

// EnsureIndexes creates the unique idempotency-key index that enforces
// exactly-once payment recording, plus the owner-scoped secondary index.
func (r *PaymentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "settled", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	})
	return err
}
