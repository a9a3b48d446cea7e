// Package store defines the record store contract shared by every
// view-model: point reads, inserts, field patches, atomic increments and
// live watches against an external document database.
//
// Watch semantics follow the backend's snapshot-listener model: the full
// matching result set is redelivered on every remote change, never a diff.
// Cancelling the watch context deregisters the listener and closes the
// channel; no snapshot is delivered after that.
package store

import (
	"context"
)

// Document is one raw record as returned by the backend. Data values are
// the backend driver's native decodings (string, int64, float64, bool,
// time.Time, []interface{}, nested maps).
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Filter is an equality constraint on a single field. Equality is the only
// operator the app ever needs (child records are selected by parent id).
type Filter struct {
	Field string
	Value interface{}
}

// Query describes a collection read: zero or more equality filters plus an
// optional sort field.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
}

// Snapshot is one delivery from a collection watch. Err is set instead of
// Docs when the backend push failed; the watch stays open if the underlying
// listener can recover, otherwise the channel is closed after the error.
type Snapshot struct {
	Docs []Document
	Err  error
}

// DocSnapshot is one delivery from a single-document watch. Doc is nil when
// the document does not (or no longer) exist.
type DocSnapshot struct {
	Doc *Document
	Err error
}

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp marks a field to be stamped with the store's own clock at
// insert time. Implementations translate it to their native mechanism.
var ServerTimestamp = serverTimestamp{}

// Store is the record store contract. Implementations must be safe for
// concurrent use by multiple view-models.
type Store interface {
	// Query runs a one-shot read and returns all matching documents.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Get reads a single document by id. Returns errors.ErrNotFound if the
	// document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Insert creates a new document and returns its store-assigned id.
	Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error)

	// Set writes a document under a caller-chosen id, creating it when
	// absent and replacing it otherwise. Used for records keyed by an
	// external identity, like user profiles keyed by uid.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error

	// Update overwrites the given fields on an existing document. No
	// concurrency check is performed; the last writer wins.
	Update(ctx context.Context, collection, id string, patch map[string]interface{}) error

	// Increment atomically adds delta to a numeric field server-side.
	Increment(ctx context.Context, collection, id, field string, delta int64) error

	// Watch opens a live subscription on a query. The returned channel
	// receives the full result set on every change and is closed once ctx is
	// cancelled or the listener dies.
	Watch(ctx context.Context, q Query) (<-chan Snapshot, error)

	// WatchDoc opens a live subscription on a single document.
	WatchDoc(ctx context.Context, collection, id string) (<-chan DocSnapshot, error)
}
