package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

// CoffeeRepository handles the catalog collection.
type CoffeeRepository struct {
	col *mongo.Collection
}

func NewCoffeeRepository(db *mongo.Database) *CoffeeRepository {
	return &CoffeeRepository{col: db.Collection(database.ColCoffee)}
}

func (r *CoffeeRepository) All(ctx context.Context) ([]models.Coffee, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("coffee: find: %w", err)
	}
	var items []models.Coffee
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("coffee: decode: %w", err)
	}
	return items, nil
}

func (r *CoffeeRepository) Find(ctx context.Context, id string) (*models.Coffee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var item models.Coffee
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("coffee: find %s: %w", id, err)
	}
	return &item, nil
}

func (r *CoffeeRepository) Insert(ctx context.Context, item models.Coffee) (string, error) {
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		return "", fmt.Errorf("coffee: insert: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// Update rewrites every catalog field of the identified item.
func (r *CoffeeRepository) Update(ctx context.Context, id string, item models.Coffee) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"name":     item.Name,
			"chef":     item.Chef,
			"supplier": item.Supplier,
			"taste":    item.Taste,
			"category": item.Category,
			"price":    item.Price,
			"image":    item.Image,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("coffee: update %s: %w", id, err)
	}
	return res.ModifiedCount, nil
}

// SetImage updates only the image URL, leaving all other fields untouched.
func (r *CoffeeRepository) SetImage(ctx context.Context, id, url string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"image": url}})
	if err != nil {
		return 0, fmt.Errorf("coffee: set image %s: %w", id, err)
	}
	return res.ModifiedCount, nil
}

func (r *CoffeeRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("coffee: delete %s: %w", id, err)
	}
	return res.DeletedCount, nil
}
