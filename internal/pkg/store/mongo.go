package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

// MongoStore implements Store on MongoDB for self-hosted deployments.
// Watches are built from change streams: every change event triggers a
// re-query so subscribers still receive the full result set per change,
// matching the managed backend's snapshot semantics. Change streams require
// a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func buildFilter(q Query) bson.M {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}
	return filter
}

func buildFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	return opts
}

func (s *MongoStore) Query(ctx context.Context, q Query) ([]Document, error) {
	cursor, err := s.db.Collection(q.Collection).Find(ctx, buildFilter(q), buildFindOptions(q))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode document in %s: %w", q.Collection, err)
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	return docs, nil
}

// mongoID maps a store id to its _id value. Inserted documents carry
// driver-assigned ObjectIDs; documents written with Set keep their
// caller-chosen string id.
func mongoID(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": mongoID(id)}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	doc := fromBSON(raw)
	return &doc, nil
}

// toBSON resolves sentinel values for a write. The closest analogue to a
// store-assigned stamp without a transaction is the driver clock at write
// time.
func toBSON(data map[string]interface{}) bson.M {
	out := bson.M{}
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = time.Now().UTC()
			continue
		}
		out[k] = v
	}
	return out
}

func (s *MongoStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	result, err := s.db.Collection(collection).InsertOne(ctx, toBSON(data))
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert into %s: unexpected id type %T", collection, result.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": mongoID(id)}, toBSON(data), opts)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": mongoID(id)}, bson.M{"$set": bson.M(patch)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": mongoID(id)}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return fmt.Errorf("increment %s on %s/%s: %w", field, collection, id, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Watch(ctx context.Context, q Query) (<-chan Snapshot, error) {
	stream, err := s.db.Collection(q.Collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", q.Collection, err)
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		// Initial snapshot, then one re-query per change event.
		if !s.deliver(ctx, q, out) {
			return
		}
		for stream.Next(ctx) {
			if !s.deliver(ctx, q, out) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- Snapshot{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// deliver re-runs the query and pushes the result; returns false when the
// subscriber is gone.
func (s *MongoStore) deliver(ctx context.Context, q Query, out chan<- Snapshot) bool {
	docs, err := s.Query(ctx, q)
	snap := Snapshot{Docs: docs}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		snap = Snapshot{Err: err}
	}
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *MongoStore) WatchDoc(ctx context.Context, collection, id string) (<-chan DocSnapshot, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": mongoID(id)}}},
	}
	stream, err := s.db.Collection(collection).Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("watch %s/%s: %w", collection, id, err)
	}

	out := make(chan DocSnapshot)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		if !s.deliverDoc(ctx, collection, id, out) {
			return
		}
		for stream.Next(ctx) {
			if !s.deliverDoc(ctx, collection, id, out) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- DocSnapshot{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (s *MongoStore) deliverDoc(ctx context.Context, collection, id string, out chan<- DocSnapshot) bool {
	doc, err := s.Get(ctx, collection, id)
	snap := DocSnapshot{Doc: doc}
	if errors.Is(err, apperrors.ErrNotFound) {
		snap = DocSnapshot{}
	} else if err != nil {
		if ctx.Err() != nil {
			return false
		}
		snap = DocSnapshot{Err: err}
	}
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// fromBSON lifts a raw BSON document into the store's neutral shape: the
// object id becomes Document.ID and driver-specific value types are
// normalized to what entity mappers expect.
func fromBSON(raw bson.M) Document {
	doc := Document{Data: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		if k == "_id" {
			switch idv := v.(type) {
			case primitive.ObjectID:
				doc.ID = idv.Hex()
			case string:
				doc.ID = idv
			}
			continue
		}
		doc.Data[k] = normalizeBSON(v)
	}
	return doc
}

func normalizeBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case int32:
		return int64(t)
	default:
		return v
	}
}
