package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

// UserRepository handles the allUsers collection.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(database.ColUsers)}
}

// All returns every user record.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("users: find: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("users: decode: %w", err)
	}
	return users, nil
}

// FindByEmail returns nil when no user carries the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("users: find %s: %w", email, err)
	}
	return &user, nil
}

// RoleByEmail resolves the role for the guard's second stage. An absent
// record is the zero Role, which carries no capabilities.
func (r *UserRepository) RoleByEmail(ctx context.Context, email string) (models.Role, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.Role, nil
}

// Insert creates a user; the unique email index rejects duplicates.
func (r *UserRepository) Insert(ctx context.Context, user models.User) (string, error) {
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return "", fmt.Errorf("users: insert: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// Update rewrites name, email, and role of the identified user.
func (r *UserRepository) Update(ctx context.Context, id, name, email string, role models.Role) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"name": name, "email": email, "role": role}},
	)
	if err != nil {
		return 0, fmt.Errorf("users: update %s: %w", id, err)
	}
	return res.ModifiedCount, nil
}

// Delete removes the identified user.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("users: delete %s: %w", id, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the unique natural-key index on email.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
