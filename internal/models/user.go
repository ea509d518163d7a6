package models

import "time"

// UserMetadata is the profile stored for a registered user, keyed by the email
// the identity provider vouches for.
type UserMetadata struct {
	Email        string    `bson:"_id" firestore:"-" json:"email"`
	Phone        string    `bson:"phone" firestore:"phone" json:"phone"`
	Name         string    `bson:"name" firestore:"name" json:"name"`
	Picture      string    `bson:"picture" firestore:"picture" json:"picture"`
	EventEntries []string  `bson:"eventEntries" firestore:"event_entries" json:"eventEntries"`
	CreatedAt    time.Time `bson:"createdAt" firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" firestore:"updatedAt" json:"updatedAt"`
}
