package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection holds the documents of a MongoStore.
const DefaultCollection = "emr_launch_documents"

type mongoRecord struct {
	ID        string `bson:"_id"`
	Kind      string `bson:"kind"`
	Namespace string `bson:"namespace"`
	Name      string `bson:"name"`
	Body      string `bson:"body"`
}

// MongoStore keeps documents in one collection, _id being the document
// path. Bodies are stored as JSON text so keys keep their exact spelling.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, connectionString, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(DefaultCollection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key Key) (Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var rec mongoRecord
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key.Path()}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var doc Document
	if err := json.Unmarshal([]byte(rec.Body), &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return doc, nil
}

func (s *MongoStore) Put(ctx context.Context, key Key, doc Document) error {
	if err := key.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	rec := mongoRecord{
		ID:        key.Path(),
		Kind:      string(key.Kind),
		Namespace: key.Namespace,
		Name:      key.Name,
		Body:      string(body),
	}
	_, err = s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, kind Kind, namespace string) ([]string, error) {
	filter := bson.D{{Key: "kind", Value: string(kind)}, {Key: "namespace", Value: namespace}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetProjection(bson.D{{Key: "name", Value: 1}})
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", kind, namespace, err)
	}
	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", kind, namespace, err)
	}
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.Name)
	}
	return names, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
