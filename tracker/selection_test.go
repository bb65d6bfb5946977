package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/svctrack/registry"
	"github.com/roach88/svctrack/registry/registrytest"
)

func TestSelection_RankingThenLowestID(t *testing.T) {
	reg := registrytest.New()
	reg.Register("Printer", "p1", map[string]any{registry.KeyRanking: 1}) // id 1
	reg.Register("Printer", "p2", map[string]any{registry.KeyRanking: 5}) // id 2
	reg.Register("Printer", "p3", map[string]any{registry.KeyRanking: 5}) // id 3

	tkr, err := NewDefault(reg, ByType("Printer"))
	require.NoError(t, err)
	require.NoError(t, tkr.Open())
	defer tkr.Close()

	// Equal top rankings tie-break on the lower identity id, and repeated
	// queries with no intervening change return the same winner.
	for i := 0; i < 3; i++ {
		best, ok := tkr.Reference()
		require.True(t, ok)
		assert.Equal(t, int64(2), registry.ID(best))
	}

	v, ok := tkr.Selected()
	require.True(t, ok)
	assert.Equal(t, "p2", v)
}

func TestSelection_RecomputedAfterChange(t *testing.T) {
	reg := registrytest.New()
	reg.Register("Printer", "p1", nil)

	tkr, err := NewDefault(reg, ByType("Printer"))
	require.NoError(t, err)
	require.NoError(t, tkr.Open())
	defer tkr.Close()

	best, ok := tkr.Reference()
	require.True(t, ok)
	assert.Equal(t, int64(1), registry.ID(best))

	// A higher-ranking arrival displaces the selection.
	winner := reg.Register("Printer", "p2", map[string]any{registry.KeyRanking: 9})
	best, ok = tkr.Reference()
	require.True(t, ok)
	assert.Same(t, winner.Reference(), best)

	// And its departure hands the selection back.
	winner.Unregister()
	best, ok = tkr.Reference()
	require.True(t, ok)
	assert.Equal(t, int64(1), registry.ID(best))
}

func TestSelection_SnapshotPairsReferenceWithValue(t *testing.T) {
	reg := registrytest.New()
	reg.Register("Printer", "p1", nil)

	tkr, err := NewDefault(reg, ByType("Printer"))
	require.NoError(t, err)
	require.NoError(t, tkr.Open())
	defer tkr.Close()

	best, ok := tkr.Reference()
	require.True(t, ok)
	v, ok := tkr.Selected()
	require.True(t, ok)

	direct, ok := tkr.Value(best)
	require.True(t, ok)
	assert.Equal(t, direct, v)
}

func TestSelection_CacheLifecycle(t *testing.T) {
	reg := registrytest.New()
	reg.Register("Printer", "p1", nil)

	tkr, err := NewDefault(reg, ByType("Printer"))
	require.NoError(t, err)
	require.NoError(t, tkr.Open())
	defer tkr.Close()

	// Open commits invalidate eagerly, so the cache starts empty and fills
	// on the first query.
	assert.Nil(t, tkr.cache.Load())
	_, ok := tkr.Reference()
	require.True(t, ok)
	assert.NotNil(t, tkr.cache.Load())

	// Any committed change drops the snapshot again.
	reg.Register("Printer", "p2", nil)
	assert.Nil(t, tkr.cache.Load())
}

func TestSelection_EmptySet(t *testing.T) {
	reg := registrytest.New()

	tkr, err := NewDefault(reg, ByType("Printer"))
	require.NoError(t, err)
	require.NoError(t, tkr.Open())
	defer tkr.Close()

	_, ok := tkr.Reference()
	assert.False(t, ok)
	_, ok = tkr.Selected()
	assert.False(t, ok)
}
