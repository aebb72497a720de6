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

// CartRepository handles pending line items between add-to-cart and checkout.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(database.ColCart)}
}

func (r *CartRepository) ByEmail(ctx context.Context, email string) ([]models.CartEntry, error) {
	cursor, err := r.col.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("cart: find %s: %w", email, err)
	}
	var entries []models.CartEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return entries, nil
}

func (r *CartRepository) Insert(ctx context.Context, entry models.CartEntry) (string, error) {
	res, err := r.col.InsertOne(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("cart: insert: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("cart: delete %s: %w", id, err)
	}
	return res.DeletedCount, nil
}

// DeleteByIDs removes every entry whose id is listed. Ids that no longer
// resolve are skipped, so a settlement retry converges instead of failing.
func (r *CartRepository) DeleteByIDs(ctx context.Context, hexIDs []string) (int64, error) {
	ids := objectIDs(hexIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("cart: delete many: %w", err)
	}
	return res.DeletedCount, nil
}
