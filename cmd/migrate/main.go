// Command migrate creates the MongoDB indexes the community service relies on.
package main

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/will-chou/capstone-community/internal/config"
	"github.com/will-chou/capstone-community/internal/database"
	"github.com/will-chou/capstone-community/pkg/logger"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

// indexes lists every index by collection. Proximity queries range over
// locationHash, profiles read an author's newest entries, and expired
// two-factor sessions are dropped by the TTL monitor.
func indexes() []collectionIndexes {
	return []collectionIndexes{
		{database.EventEntriesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "locationHash", Value: 1}}, Options: options.Index().SetName("locationHash_1")},
		}},
		{database.UserEventEntriesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "ts", Value: -1}}, Options: options.Index().SetName("email_1_ts_-1")},
		}},
		{database.TwoFactorCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0)},
		}},
	}
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		logger.Fatalf("MONGODB_URI is required")
	}
	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "community"
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, config.MongoDBConfig{URI: uri, Timeout: 10 * time.Second})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(dbName)
	for _, ci := range indexes() {
		names, err := db.Collection(ci.collection).Indexes().CreateMany(ctx, ci.models)
		if err != nil {
			logger.Fatalf("create indexes on %s: %v", ci.collection, err)
		}
		logger.Infof("%s: %v", ci.collection, names)
	}
}
