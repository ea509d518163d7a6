package users

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/will-chou/capstone-community/internal/models"
)

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestFirestoreUserRepository(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "community-test")
	require.NoError(t, err)
	defer client.Close()

	repo := NewFirestoreUserRepository(client)
	email := uuid.NewString() + "@example.com"

	missing, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = repo.Upsert(ctx, &models.UserMetadata{Email: email, Phone: "5551234567", Name: "Ada"})
	require.NoError(t, err)
	require.NoError(t, repo.AppendEventEntry(ctx, email, "ev-1"))

	updated, err := repo.Upsert(ctx, &models.UserMetadata{Email: email, Phone: "5559876543", Name: "Ada"})
	require.NoError(t, err)
	require.Equal(t, "5559876543", updated.Phone)
	require.Equal(t, []string{"ev-1"}, updated.EventEntries)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, email, got.Email)
	require.Equal(t, []string{"ev-1"}, got.EventEntries)
}
