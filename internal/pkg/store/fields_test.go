package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStringFieldRequired(t *testing.T) {
	doc := Document{ID: "d1", Data: map[string]interface{}{"headline": "Robbery"}}

	got, err := doc.StringField("headline")
	require.NoError(t, err)
	require.Equal(t, "Robbery", got)

	_, err = doc.StringField("missing")
	require.Error(t, err)

	doc.Data["headline"] = 42
	_, err = doc.StringField("headline")
	require.Error(t, err, "wrong type is a mapping error")
}

func TestIntFieldAcceptsDriverNumerics(t *testing.T) {
	doc := Document{Data: map[string]interface{}{
		"a": int64(7),
		"b": float64(7),
		"c": 7,
	}}
	for _, key := range []string{"a", "b", "c"} {
		got, err := doc.IntField(key)
		require.NoError(t, err, key)
		require.Equal(t, int64(7), got, key)
	}

	got, err := doc.IntField("absent")
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestTimeFieldZeroWhenUnresolved(t *testing.T) {
	doc := Document{Data: map[string]interface{}{}}
	got, err := doc.TimeField("timestamp")
	require.NoError(t, err)
	require.True(t, got.IsZero(), "pending server stamp reads as zero time")

	now := time.Now().UTC()
	doc.Data["timestamp"] = now
	got, err = doc.TimeField("timestamp")
	require.NoError(t, err)
	require.Equal(t, now, got)
}

func TestStringSliceFieldShapes(t *testing.T) {
	doc := Document{Data: map[string]interface{}{
		"native": []string{"a", "b"},
		"boxed":  []interface{}{"a", "b"},
		"mixed":  []interface{}{"a", 1},
	}}

	got, err := doc.StringSliceField("native")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)

	got, err = doc.StringSliceField("boxed")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)

	got, err = doc.StringSliceField("absent")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = doc.StringSliceField("mixed")
	require.Error(t, err)
}
