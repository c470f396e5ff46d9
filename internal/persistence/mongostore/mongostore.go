// Package mongostore is the MongoDB DocumentStore used in production.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ interfaces.DocumentStore = (*Store)(nil)

// Connect dials uri with the stable server API and pings before returning.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	logger.Info(ctx, "MongoDB connection successful", "database", database)
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) error {
	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	logger.Debug(ctx, "Inserted document", "collection", collection, "id", res.InsertedID)
	return nil
}

func (s *Store) FindLatest(ctx context.Context, collection string, out any) (bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	err := s.db.Collection(collection).FindOne(ctx, bson.D{}, opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return true, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
