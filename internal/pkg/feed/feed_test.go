package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/communitysafe/crimewatch/internal/pkg/feed"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
	"github.com/communitysafe/crimewatch/internal/pkg/store/storetest"
)

type item struct {
	ID    string
	Title string
}

func mapItem(doc store.Document) (item, error) {
	title, err := doc.StringField("title")
	if err != nil {
		return item{}, err
	}
	return item{ID: doc.ID, Title: title}, nil
}

func newFeed(s store.Store) *feed.Feed[item] {
	return feed.New(s, store.Query{
		Collection: "things",
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapItem, logger.New(logger.ERROR))
}

func nextState(t *testing.T, ch <-chan feed.State[item]) feed.State[item] {
	t.Helper()
	select {
	case state, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed state")
		return feed.State[item]{}
	}
}

func TestSubscribeEmitsLoadingFirst(t *testing.T) {
	fake := storetest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := newFeed(fake).Subscribe(ctx)

	first := nextState(t, states)
	require.True(t, first.Loading)
	require.Empty(t, first.Items)
	require.NoError(t, first.Err)
}

func TestSubscribeReplacesItemsPerSnapshot(t *testing.T) {
	fake := storetest.New()
	fake.Seed("things", "t1", map[string]interface{}{"title": "one", "timestamp": time.Now().UTC()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := newFeed(fake).Subscribe(ctx)
	nextState(t, states) // loading

	got := nextState(t, states)
	require.False(t, got.Loading)
	require.Len(t, got.Items, 1)
	require.Equal(t, "one", got.Items[0].Title)

	_, err := fake.Insert(context.Background(), "things", map[string]interface{}{
		"title":     "two",
		"timestamp": store.ServerTimestamp,
	})
	require.NoError(t, err)

	got = nextState(t, states)
	require.Len(t, got.Items, 2)
	// Newest first.
	require.Equal(t, "two", got.Items[0].Title)
}

func TestSubscribeSkipsMalformedRecords(t *testing.T) {
	fake := storetest.New()
	fake.Seed("things", "good", map[string]interface{}{"title": "ok", "timestamp": time.Now().UTC()})
	fake.Seed("things", "bad", map[string]interface{}{"title": 42, "timestamp": time.Now().UTC()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := newFeed(fake).Subscribe(ctx)
	nextState(t, states) // loading

	got := nextState(t, states)
	require.NoError(t, got.Err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "good", got.Items[0].ID)
}

func TestSubscribeRetainsItemsOnError(t *testing.T) {
	fake := storetest.New()
	fake.Seed("things", "t1", map[string]interface{}{"title": "one", "timestamp": time.Now().UTC()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := newFeed(fake).Subscribe(ctx)
	nextState(t, states) // loading
	nextState(t, states) // first snapshot

	pushed := errors.New("connection reset")
	fake.PushError("things", pushed)

	got := nextState(t, states)
	require.ErrorIs(t, got.Err, pushed)
	require.False(t, got.Loading)
	require.Len(t, got.Items, 1, "stale items must survive a backend error")
}

func TestDisposalStopsEmissionsAndDeregisters(t *testing.T) {
	fake := storetest.New()
	ctx, cancel := context.WithCancel(context.Background())

	states := newFeed(fake).Subscribe(ctx)
	nextState(t, states) // loading
	nextState(t, states) // initial snapshot
	require.Equal(t, 1, fake.ActiveWatchers())

	cancel()

	require.Eventually(t, func() bool {
		return fake.ActiveWatchers() == 0
	}, 2*time.Second, 10*time.Millisecond, "listener registration must be released")

	// A write after disposal must not reach the subscriber; the channel
	// drains and closes instead.
	_, err := fake.Insert(context.Background(), "things", map[string]interface{}{
		"title":     "late",
		"timestamp": store.ServerTimestamp,
	})
	require.NoError(t, err)

	for {
		select {
		case state, ok := <-states:
			if !ok {
				return
			}
			require.Empty(t, state.Items, "no post-disposal snapshot may be delivered")
		case <-time.After(2 * time.Second):
			t.Fatal("subscription channel never closed")
		}
	}
}

func nextDocState(t *testing.T, ch <-chan feed.DocState[item]) feed.DocState[item] {
	t.Helper()
	select {
	case state, ok := <-ch:
		require.True(t, ok, "doc subscription closed unexpectedly")
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for doc state")
		return feed.DocState[item]{}
	}
}

func TestWatchDocRetainsItemOnError(t *testing.T) {
	fake := storetest.New()
	fake.Seed("things", "t1", map[string]interface{}{"title": "one", "timestamp": time.Now().UTC()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := feed.WatchDoc(ctx, fake, "things", "t1", mapItem, logger.New(logger.ERROR))
	require.NoError(t, err)

	first := nextDocState(t, docs)
	require.NoError(t, first.Err)
	require.NotNil(t, first.Item)

	pushed := errors.New("connection reset")
	fake.PushError("things", pushed)

	got := nextDocState(t, docs)
	require.ErrorIs(t, got.Err, pushed)
	require.NotNil(t, got.Item, "stale item must survive a backend error")
	require.Equal(t, "one", got.Item.Title)
}

func TestWatchDocIndependentOfChildren(t *testing.T) {
	fake := storetest.New()
	fake.Seed("things", "t1", map[string]interface{}{"title": "one", "timestamp": time.Now().UTC()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := feed.WatchDoc(ctx, fake, "things", "t1", mapItem, logger.New(logger.ERROR))
	require.NoError(t, err)

	select {
	case state := <-docs:
		require.NoError(t, state.Err)
		require.NotNil(t, state.Item)
		require.Equal(t, "one", state.Item.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for doc state")
	}

	// Writes to a different collection must not wake this watch.
	_, err = fake.Insert(context.Background(), "other", map[string]interface{}{"title": "x"})
	require.NoError(t, err)

	select {
	case state := <-docs:
		t.Fatalf("unexpected emission: %+v", state)
	case <-time.After(100 * time.Millisecond):
	}
}
