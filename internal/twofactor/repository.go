package twofactor

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists two-factor sessions. Get returns (nil, nil) when the
// email has no session.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, email string) (*Session, error)
	// IncrementAttempts records a wrong code against sessionID and returns the
	// new count, or 0 when that session no longer exists or was replaced.
	IncrementAttempts(ctx context.Context, email, sessionID string) (int, error)
	// ConsumeCode marks the code of sessionID used. It reports false when the
	// session was replaced or the code was already used.
	ConsumeCode(ctx context.Context, email, sessionID string) (bool, error)
	// Delete removes the session of email if it is still sessionID.
	Delete(ctx context.Context, email, sessionID string) error
}

// MongoRepository implements Repository using the two_factor_sessions
// collection. A TTL index on expiresAt (created by cmd/migrate) removes
// stale sessions.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Save(ctx context.Context, s *Session) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.Email}, s, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRepository) Get(ctx context.Context, email string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) IncrementAttempts(ctx context.Context, email, sessionID string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var s Session
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": email, "sessionId": sessionID}, bson.M{"$inc": bson.M{"attempts": 1}}, opts).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return s.Attempts, nil
}

func (r *MongoRepository) ConsumeCode(ctx context.Context, email, sessionID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": email, "sessionId": sessionID, "codeUsed": false},
		bson.M{"$set": bson.M{"codeUsed": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoRepository) Delete(ctx context.Context, email, sessionID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": email, "sessionId": sessionID})
	return err
}
