package id

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorMonotonic(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	g := newGenerator(func() time.Time { return at }, rand.New(rand.NewSource(1)))

	prev := g.New()
	for i := 0; i < 100; i++ {
		next := g.New()
		assert.Less(t, prev, next)
		prev = next
	}

	got, err := Time(prev)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestNewUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := New()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
