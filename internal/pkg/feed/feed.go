// Package feed turns a store watch into typed, observable feed state: an
// immediate loading emission, then one state per backend snapshot. Records
// that fail to map are skipped rather than failing the subscription, and a
// backend error keeps the last good item list alongside the error.
package feed

import (
	"context"

	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
)

// State is one emission of a live feed.
type State[T any] struct {
	Loading bool
	Items   []T
	Err     error
}

// Mapper converts one raw record into a typed entity. A non-nil error drops
// that record from the feed.
type Mapper[T any] func(store.Document) (T, error)

// Feed is a live, ordered view of one collection.
type Feed[T any] struct {
	store store.Store
	query store.Query
	mapf  Mapper[T]
	log   *logger.Logger
}

func New[T any](s store.Store, q store.Query, mapf Mapper[T], log *logger.Logger) *Feed[T] {
	return &Feed[T]{store: s, query: q, mapf: mapf, log: log}
}

// Subscribe opens the live query. The returned channel first delivers a
// loading state, then one state per backend push, and closes when ctx is
// cancelled. Cancelling releases the underlying listener registration; no
// state is emitted after that.
func (f *Feed[T]) Subscribe(ctx context.Context) <-chan State[T] {
	out := make(chan State[T], 2)
	out <- State[T]{Loading: true, Items: []T{}}

	snaps, err := f.store.Watch(ctx, f.query)
	if err != nil {
		out <- State[T]{Items: []T{}, Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		last := []T{}
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				state := f.apply(&last, snap)
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// apply folds one snapshot into feed state. Errors retain the previous
// items so the view keeps showing stale-but-real data.
func (f *Feed[T]) apply(last *[]T, snap store.Snapshot) State[T] {
	if snap.Err != nil {
		f.log.Warn("feed %s: subscription error: %v", f.query.Collection, snap.Err)
		return State[T]{Items: *last, Err: snap.Err}
	}

	items := make([]T, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		item, err := f.mapf(doc)
		if err != nil {
			// Skip-on-map-failure policy: one malformed record never
			// takes down the feed.
			f.log.Warn("feed %s: skipping record %s: %v", f.query.Collection, doc.ID, err)
			continue
		}
		items = append(items, item)
	}
	*last = items
	return State[T]{Items: items}
}

// DocState is one emission of a single-document watch. Item is nil while
// the document is missing or not yet loaded; when Err is set, Item carries
// the last good value if one was ever delivered.
type DocState[T any] struct {
	Item *T
	Err  error
}

// WatchDoc opens a live subscription on one record, mapping each snapshot
// through mapf. Backend errors and mapping failures surface as Err on the
// emission but keep the last successfully mapped item, the same stale-data
// policy Feed applies to collections. Only a snapshot that reports the
// document gone clears the item.
func WatchDoc[T any](ctx context.Context, s store.Store, collection, id string, mapf Mapper[T], log *logger.Logger) (<-chan DocState[T], error) {
	snaps, err := s.WatchDoc(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	out := make(chan DocState[T])
	go func() {
		defer close(out)
		var last *T
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				var state DocState[T]
				switch {
				case snap.Err != nil:
					log.Warn("watch %s/%s: %v", collection, id, snap.Err)
					state = DocState[T]{Item: last, Err: snap.Err}
				case snap.Doc == nil:
					last = nil
					state = DocState[T]{}
				default:
					item, err := mapf(*snap.Doc)
					if err != nil {
						log.Warn("watch %s/%s: malformed record: %v", collection, id, err)
						state = DocState[T]{Item: last, Err: err}
					} else {
						last = &item
						state = DocState[T]{Item: &item}
					}
				}
				select {
				case out <- state:
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
