package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/will-chou/capstone-community/internal/database"
)

// userEntryDoc is the per-author copy kept in user_event_entries.
type userEntryDoc struct {
	Key          string    `bson:"_id"`
	Email        string    `bson:"email"`
	EventID      string    `bson:"eventId"`
	EventData    EventData `bson:"eventData"`
	LocationHash string    `bson:"locationHash"`
	Lat          float64   `bson:"lat"`
	Lng          float64   `bson:"lng"`
	Ts           time.Time `bson:"ts"`
}

// MongoRepo stores events in the event_entries collection and author copies
// in user_event_entries.
type MongoRepo struct {
	entries     *mongo.Collection
	userEntries *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		entries:     db.Collection(database.EventEntriesCollection),
		userEntries: db.Collection(database.UserEventEntriesCollection),
	}
}

func (m *MongoRepo) Create(ctx context.Context, e *EventEntry) error {
	_, err := m.entries.InsertOne(ctx, e)
	return err
}

func (m *MongoRepo) CreateForUser(ctx context.Context, email string, e *EventEntry) error {
	doc := userEntryDoc{
		Key:          email + "/" + e.ID,
		Email:        email,
		EventID:      e.ID,
		EventData:    e.EventData,
		LocationHash: e.LocationHash,
		Lat:          e.Lat,
		Lng:          e.Lng,
		Ts:           e.Ts,
	}
	_, err := m.userEntries.InsertOne(ctx, doc)
	return err
}

func (m *MongoRepo) RangeByGeohash(ctx context.Context, start, end string) ([]EventEntry, error) {
	filter := bson.M{"locationHash": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "locationHash", Value: 1}})
	cur, err := m.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []EventEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) RecentForUser(ctx context.Context, email string, limit int) ([]EventEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(int64(limit))
	cur, err := m.userEntries.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []EventEntry{}
	for cur.Next(ctx) {
		var d struct {
			EventID    string `bson:"eventId"`
			EventEntry `bson:",inline"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		d.EventEntry.ID = d.EventID
		out = append(out, d.EventEntry)
	}
	return out, cur.Err()
}
