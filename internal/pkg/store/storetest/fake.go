// Package storetest provides a thread-safe in-memory Store used by the
// view-model tests. It mirrors the backend's watch semantics: every write
// re-delivers the full matching result set to each registered watcher, and
// cancelling a watch context deregisters the watcher before the channel
// closes.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/store"
	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

type watcher struct {
	query store.Query
	ch    chan store.Snapshot
	ctx   context.Context
}

type docWatcher struct {
	collection string
	id         string
	ch         chan store.DocSnapshot
	ctx        context.Context
}

// Store is the in-memory fake.
type Store struct {
	mu          sync.Mutex
	collections map[string][]store.Document
	nextID      int

	watchers    map[int]*watcher
	docWatchers map[int]*docWatcher
	nextWatchID int

	// InsertErr, when set, makes every Insert fail with that error.
	InsertErr error
	// UpdateErr, when set, makes Update and Increment fail.
	UpdateErr error

	insertCalls int
}

func New() *Store {
	return &Store{
		collections: make(map[string][]store.Document),
		watchers:    make(map[int]*watcher),
		docWatchers: make(map[int]*docWatcher),
	}
}

// ActiveWatchers reports how many live subscriptions are still registered.
func (s *Store) ActiveWatchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers) + len(s.docWatchers)
}

// InsertCalls reports how many Insert attempts were made, successful or not.
func (s *Store) InsertCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCalls
}

// Seed places a document with a fixed id, bypassing watcher notification.
func (s *Store) Seed(collection, id string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], store.Document{ID: id, Data: cloneData(data)})
}

// PushError delivers an error snapshot to every watcher on the collection,
// query and single-document watchers alike, simulating a transient backend
// failure.
func (s *Store) PushError(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers {
		if w.query.Collection != collection {
			continue
		}
		select {
		case w.ch <- store.Snapshot{Err: err}:
		case <-w.ctx.Done():
		}
	}
	for _, w := range s.docWatchers {
		if w.collection != collection {
			continue
		}
		select {
		case w.ch <- store.DocSnapshot{Err: err}:
		case <-w.ctx.Done():
		}
	}
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(q), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc := s.findLocked(collection, id); doc != nil {
		copied := store.Document{ID: doc.ID, Data: cloneData(doc.Data)}
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	s.insertCalls++
	if err := s.InsertErr; err != nil {
		s.mu.Unlock()
		return "", err
	}

	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	s.collections[collection] = append(s.collections[collection], store.Document{ID: id, Data: resolveTimestamps(data)})
	s.notifyLocked(collection)
	s.mu.Unlock()
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UpdateErr; err != nil {
		return err
	}
	resolved := resolveTimestamps(data)
	if doc := s.findLocked(collection, id); doc != nil {
		doc.Data = resolved
	} else {
		s.collections[collection] = append(s.collections[collection], store.Document{ID: id, Data: resolved})
	}
	s.notifyLocked(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UpdateErr; err != nil {
		return err
	}
	doc := s.findLocked(collection, id)
	if doc == nil {
		return apperrors.ErrNotFound
	}
	for k, v := range patch {
		doc.Data[k] = v
	}
	s.notifyLocked(collection)
	return nil
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UpdateErr; err != nil {
		return err
	}
	doc := s.findLocked(collection, id)
	if doc == nil {
		return apperrors.ErrNotFound
	}
	current, _ := doc.Data[field].(int64)
	doc.Data[field] = current + delta
	s.notifyLocked(collection)
	return nil
}

func (s *Store) Watch(ctx context.Context, q store.Query) (<-chan store.Snapshot, error) {
	s.mu.Lock()
	s.nextWatchID++
	id := s.nextWatchID
	w := &watcher{query: q, ch: make(chan store.Snapshot, 16), ctx: ctx}
	s.watchers[id] = w
	w.ch <- store.Snapshot{Docs: s.matchLocked(q)}
	s.mu.Unlock()

	out := make(chan store.Snapshot)
	go func() {
		defer close(out)
		defer s.removeWatcher(id)
		for {
			select {
			case snap := <-w.ch:
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) WatchDoc(ctx context.Context, collection, id string) (<-chan store.DocSnapshot, error) {
	s.mu.Lock()
	s.nextWatchID++
	watchID := s.nextWatchID
	w := &docWatcher{collection: collection, id: id, ch: make(chan store.DocSnapshot, 16), ctx: ctx}
	s.docWatchers[watchID] = w
	w.ch <- s.docSnapshotLocked(collection, id)
	s.mu.Unlock()

	out := make(chan store.DocSnapshot)
	go func() {
		defer close(out)
		defer s.removeDocWatcher(watchID)
		for {
			select {
			case snap := <-w.ch:
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) removeWatcher(id int) {
	s.mu.Lock()
	delete(s.watchers, id)
	s.mu.Unlock()
}

func (s *Store) removeDocWatcher(id int) {
	s.mu.Lock()
	delete(s.docWatchers, id)
	s.mu.Unlock()
}

func (s *Store) notifyLocked(collection string) {
	for _, w := range s.watchers {
		if w.query.Collection != collection {
			continue
		}
		snap := store.Snapshot{Docs: s.matchLocked(w.query)}
		select {
		case w.ch <- snap:
		default:
		}
	}
	for _, w := range s.docWatchers {
		if w.collection != collection {
			continue
		}
		snap := s.docSnapshotLocked(w.collection, w.id)
		select {
		case w.ch <- snap:
		default:
		}
	}
}

func (s *Store) docSnapshotLocked(collection, id string) store.DocSnapshot {
	if doc := s.findLocked(collection, id); doc != nil {
		copied := store.Document{ID: doc.ID, Data: cloneData(doc.Data)}
		return store.DocSnapshot{Doc: &copied}
	}
	return store.DocSnapshot{}
}

func (s *Store) findLocked(collection, id string) *store.Document {
	docs := s.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i]
		}
	}
	return nil
}

func (s *Store) matchLocked(q store.Query) []store.Document {
	var out []store.Document
	for _, doc := range s.collections[q.Collection] {
		if !matches(doc, q.Filters) {
			continue
		}
		out = append(out, store.Document{ID: doc.ID, Data: cloneData(doc.Data)})
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValue(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if q.Desc {
				return !less
			}
			return less
		})
	}
	return out
}

func matches(doc store.Document, filters []store.Filter) bool {
	for _, f := range filters {
		if doc.Data[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func lessValue(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	return false
}

func resolveTimestamps(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if v == store.ServerTimestamp {
			out[k] = time.Now().UTC()
			continue
		}
		out[k] = v
	}
	return out
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
