package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

// OrderRepository handles the orders collection.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(database.ColOrders)}
}

func (r *OrderRepository) All(ctx context.Context) ([]models.Order, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("orders: find: %w", err)
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) ByEmail(ctx context.Context, email string) ([]models.Order, error) {
	cursor, err := r.col.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("orders: find %s: %w", email, err)
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order models.Order) (string, error) {
	res, err := r.col.InsertOne(ctx, order)
	if err != nil {
		return "", fmt.Errorf("orders: insert: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// MarkDone flips the fulfilment status. The payment axis is untouched.
func (r *OrderRepository) MarkDone(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": models.StatusDone}},
	)
	if err != nil {
		return 0, fmt.Errorf("orders: mark done %s: %w", id, err)
	}
	return res.ModifiedCount, nil
}

// MarkPaid settles the payment axis for every listed order. Orders already
// marked done are excluded from the filter, so re-settling is a counted
// no-op rather than an error.
func (r *OrderRepository) MarkPaid(ctx context.Context, hexIDs []string) (int64, error) {
	ids := objectIDs(hexIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "payment": bson.M{"$ne": models.StatusDone}},
		bson.M{"$set": bson.M{"payment": models.StatusDone}},
	)
	if err != nil {
		return 0, fmt.Errorf("orders: mark paid: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeleteByCoffee removes the caller's own order referencing the coffee.
func (r *OrderRepository) DeleteByCoffee(ctx context.Context, email, coffeeID string) (int64, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"coffeeId": coffeeID, "email": email})
	if err != nil {
		return 0, fmt.Errorf("orders: delete coffee %s: %w", coffeeID, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the owner-scoped secondary index.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	return err
}
