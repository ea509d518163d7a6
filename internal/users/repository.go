package users

import (
	"context"
	"time"

	"github.com/will-chou/capstone-community/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for user metadata.
// Lookups return (nil, nil) when the user does not exist.
type UserRepository interface {
	// Upsert writes phone, name and picture. Event references and createdAt of
	// an existing record are preserved.
	Upsert(ctx context.Context, u *models.UserMetadata) (*models.UserMetadata, error)
	GetByEmail(ctx context.Context, email string) (*models.UserMetadata, error)
	AppendEventEntry(ctx context.Context, email, eventID string) error
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.UserMetadata) (*models.UserMetadata, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": u.Email}
	update := bson.M{
		"$set": bson.M{
			"phone":     u.Phone,
			"name":      u.Name,
			"picture":   u.Picture,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt":    now,
			"eventEntries": []string{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.UserMetadata
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserMetadata, error) {
	var u models.UserMetadata
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	if u.EventEntries == nil {
		u.EventEntries = []string{}
	}
	return &u, nil
}

func (r *MongoUserRepository) AppendEventEntry(ctx context.Context, email, eventID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": email}, bson.M{
		"$addToSet": bson.M{"eventEntries": eventID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}
