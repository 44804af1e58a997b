package util

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewIsParseableAndOrdered(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	a := NewAt(at)
	b := NewAt(at)
	require.Less(t, a, b, "monotonic within the same millisecond")

	id, err := ulid.ParseStrict(a)
	require.NoError(t, err)
	require.Equal(t, ulid.Timestamp(at), id.Time())
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
