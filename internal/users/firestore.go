package users

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/will-chou/capstone-community/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreUserRepository keeps user metadata in the "user_metadata"
// collection, one document per email.
type FirestoreUserRepository struct {
	client *firestore.Client
	col    *firestore.CollectionRef
}

func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client, col: client.Collection("user_metadata")}
}

func (r *FirestoreUserRepository) Upsert(ctx context.Context, u *models.UserMetadata) (*models.UserMetadata, error) {
	ref := r.col.Doc(u.Email)
	var out models.UserMetadata
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			out = models.UserMetadata{
				Email:        u.Email,
				Phone:        u.Phone,
				Name:         u.Name,
				Picture:      u.Picture,
				EventEntries: []string{},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Create(ref, &out)
		case err != nil:
			return err
		}
		if err := snap.DataTo(&out); err != nil {
			return err
		}
		out.Email = u.Email
		out.Phone, out.Name, out.Picture, out.UpdatedAt = u.Phone, u.Name, u.Picture, now
		return tx.Update(ref, []firestore.Update{
			{Path: "phone", Value: u.Phone},
			{Path: "name", Value: u.Name},
			{Path: "picture", Value: u.Picture},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *FirestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserMetadata, error) {
	snap, err := r.col.Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	var u models.UserMetadata
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.Email = email
	if u.EventEntries == nil {
		u.EventEntries = []string{}
	}
	return &u, nil
}

func (r *FirestoreUserRepository) AppendEventEntry(ctx context.Context, email, eventID string) error {
	_, err := r.col.Doc(email).Update(ctx, []firestore.Update{
		{Path: "event_entries", Value: firestore.ArrayUnion(eventID)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}
