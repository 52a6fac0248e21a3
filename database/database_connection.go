package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/playtube/playtube-backend/config"
)

var (
	dbClient *mongo.Client
	dbName   string
)

// Connect dials MongoDB once at startup and pings the primary to confirm the
// connection. OpenCollection panics if called before Connect.
func Connect(ctx context.Context, cfg config.MongoConfig) error {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	dbClient = client
	dbName = cfg.Database
	return nil
}

func Disconnect(ctx context.Context) error {
	if dbClient == nil {
		return nil
	}
	return dbClient.Disconnect(ctx)
}

func OpenCollection(collectionName string) *mongo.Collection {
	if dbClient == nil {
		panic("database: OpenCollection called before Connect")
	}
	return dbClient.Database(dbName).Collection(collectionName)
}
