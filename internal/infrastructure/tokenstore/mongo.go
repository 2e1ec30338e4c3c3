package tokenstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/infrastructure/config"
)

type tokenDocument struct {
	Position     int       `bson:"position"`
	RegisteredAt time.Time `bson:"registeredAt"`
	device.Token `bson:",inline"`
}

// MongoStore keeps the registry as one document per device
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects and pings the server
func NewMongoStore(ctx context.Context, cfg config.MongoStoreConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Load implements device.Store
func (s *MongoStore) Load(ctx context.Context) ([]device.Token, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find device tokens: %w", err)
	}
	var docs []tokenDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode device tokens: %w", err)
	}

	tokens := make([]device.Token, 0, len(docs))
	for _, d := range docs {
		tokens = append(tokens, d.Token)
	}
	return tokens, nil
}

// Save replaces the collection contents
func (s *MongoStore) Save(ctx context.Context, tokens []device.Token) error {
	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(tokens))
	for i, t := range tokens {
		docs = append(docs, tokenDocument{Position: i, RegisteredAt: now, Token: t})
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert device tokens: %w", err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ device.Store = (*MongoStore)(nil)
