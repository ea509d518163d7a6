package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// ConnectFirestore opens a Firestore client for projectID. Credentials and the
// emulator address come from the environment. Caller should call client.Close().
func ConnectFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}
