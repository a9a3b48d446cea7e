package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

// FirestoreStore implements Store on Cloud Firestore. Live watches are
// backed by Firestore snapshot listeners, which already deliver the full
// result set per change.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore initializes the Firebase app and opens a Firestore
// client using the given service account credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) buildQuery(q Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	return fq
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]Document, error) {
	snaps, err := s.buildQuery(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, translateSentinels(data))
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, translateSentinels(data))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(patch))
	for field, value := range patch {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(delta)},
	})
	if status.Code(err) == codes.NotFound {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("increment %s on %s/%s: %w", field, collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Watch(ctx context.Context, q Query) (<-chan Snapshot, error) {
	it := s.buildQuery(q).Snapshots(ctx)
	out := make(chan Snapshot)

	go func() {
		defer close(out)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return
				}
				select {
				case out <- Snapshot{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				select {
				case out <- Snapshot{Err: err}:
					continue
				case <-ctx.Done():
					return
				}
			}

			docs := make([]Document, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
			}

			select {
			case out <- Snapshot{Docs: docs}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *FirestoreStore) WatchDoc(ctx context.Context, collection, id string) (<-chan DocSnapshot, error) {
	it := s.client.Collection(collection).Doc(id).Snapshots(ctx)
	out := make(chan DocSnapshot)

	go func() {
		defer close(out)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return
				}
				select {
				case out <- DocSnapshot{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			var doc *Document
			if snap.Exists() {
				doc = &Document{ID: snap.Ref.ID, Data: snap.Data()}
			}

			select {
			case out <- DocSnapshot{Doc: doc}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// translateSentinels swaps store.ServerTimestamp for Firestore's native
// server-timestamp marker.
func translateSentinels(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
