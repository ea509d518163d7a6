package events

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/will-chou/capstone-community/internal/database"
)

// firestoreEntry is the stored form of an EventEntry. The payload is kept as
// a map so keys beyond eventText and eventCategory survive.
type firestoreEntry struct {
	EventData    map[string]interface{} `firestore:"eventData"`
	LocationHash string                 `firestore:"locationHash"`
	Lat          float64                `firestore:"lat"`
	Lng          float64                `firestore:"lng"`
	Ts           time.Time              `firestore:"ts"`
}

func toFirestore(e *EventEntry) firestoreEntry {
	return firestoreEntry{
		EventData:    e.EventData.asMap(),
		LocationHash: e.LocationHash,
		Lat:          e.Lat,
		Lng:          e.Lng,
		Ts:           e.Ts,
	}
}

// FirestoreRepo keeps events in event_entries and author copies in
// "user_event_entries/{email}/entries/{id}".
type FirestoreRepo struct {
	entries     *firestore.CollectionRef
	userEntries *firestore.CollectionRef
}

func NewFirestoreRepo(client *firestore.Client) *FirestoreRepo {
	return &FirestoreRepo{
		entries:     client.Collection(database.EventEntriesCollection),
		userEntries: client.Collection(database.UserEventEntriesCollection),
	}
}

func (f *FirestoreRepo) Create(ctx context.Context, e *EventEntry) error {
	_, err := f.entries.Doc(e.ID).Create(ctx, toFirestore(e))
	return err
}

func (f *FirestoreRepo) CreateForUser(ctx context.Context, email string, e *EventEntry) error {
	_, err := f.userEntries.Doc(email).Collection("entries").Doc(e.ID).Create(ctx, toFirestore(e))
	return err
}

func (f *FirestoreRepo) RangeByGeohash(ctx context.Context, start, end string) ([]EventEntry, error) {
	q := f.entries.OrderBy("locationHash", firestore.Asc).StartAt(start).EndAt(end)
	return collect(q.Documents(ctx))
}

func (f *FirestoreRepo) RecentForUser(ctx context.Context, email string, limit int) ([]EventEntry, error) {
	q := f.userEntries.Doc(email).Collection("entries").OrderBy("ts", firestore.Desc).Limit(limit)
	return collect(q.Documents(ctx))
}

func collect(it *firestore.DocumentIterator) ([]EventEntry, error) {
	snaps, err := it.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]EventEntry, 0, len(snaps))
	for _, snap := range snaps {
		var doc firestoreEntry
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		data, err := eventDataFromMap(doc.EventData)
		if err != nil {
			return nil, err
		}
		out = append(out, EventEntry{
			ID:           snap.Ref.ID,
			EventData:    data,
			LocationHash: doc.LocationHash,
			Lat:          doc.Lat,
			Lng:          doc.Lng,
			Ts:           doc.Ts,
		})
	}
	return out, nil
}
