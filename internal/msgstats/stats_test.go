package msgstats

import (
	"context"
	"fmt"
	"maps"
	"testing"

	"github.com/edhtools/podbot/internal/util/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDB struct {
	recs map[string]map[string]int64
	fail bool
}

func (db *memDB) LoadStats(ctx context.Context) (map[string]map[string]int64, error) {
	out := make(map[string]map[string]int64, len(db.recs))
	for guild, counts := range db.recs {
		out[guild] = maps.Clone(counts)
	}
	return out, nil
}

func (db *memDB) SaveGuild(ctx context.Context, guild string, counts map[string]int64) error {
	if db.fail {
		return fmt.Errorf("disk full")
	}
	if db.recs == nil {
		db.recs = make(map[string]map[string]int64)
	}
	db.recs[guild] = maps.Clone(counts)
	return nil
}

func newTestTracker(t *testing.T, db DB) *Tracker {
	t.Helper()
	tr, err := NewTracker(context.Background(), slogx.DiscardLogger(), db)
	require.NoError(t, err)
	return tr
}

func TestTrackerAdd(t *testing.T) {
	ctx := context.Background()
	db := &memDB{}
	tr := newTestTracker(t, db)

	require.NoError(t, tr.Increment(ctx, "g1", "alice"))
	require.NoError(t, tr.Increment(ctx, "g1", "alice"))
	require.NoError(t, tr.Add(ctx, "g1", "bob", 5))
	require.NoError(t, tr.Increment(ctx, "g2", "alice"))

	assert.EqualValues(t, 2, tr.Count("g1", "alice"))
	assert.EqualValues(t, 5, tr.Count("g1", "bob"))
	assert.EqualValues(t, 1, tr.Count("g2", "alice"))
	assert.Zero(t, tr.Count("g1", "nobody"))

	assert.Error(t, tr.Add(ctx, "g1", "alice", 0))
	assert.Error(t, tr.Add(ctx, "g1", "alice", -3))
	assert.EqualValues(t, 2, tr.Count("g1", "alice"))

	// Counters are written through, so a fresh tracker sees them.
	tr2 := newTestTracker(t, db)
	assert.EqualValues(t, 5, tr2.Count("g1", "bob"))
}

func TestTrackerSaveFailure(t *testing.T) {
	ctx := context.Background()
	db := &memDB{}
	tr := newTestTracker(t, db)
	require.NoError(t, tr.Increment(ctx, "g1", "alice"))

	db.fail = true
	require.Error(t, tr.Increment(ctx, "g1", "alice"))
	assert.EqualValues(t, 1, tr.Count("g1", "alice"), "failed save must not bump the counter")

	db.fail = false
	require.NoError(t, tr.Increment(ctx, "g1", "alice"))
	assert.EqualValues(t, 2, tr.Count("g1", "alice"))
}

func TestTrackerTopN(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t, &memDB{})

	require.NoError(t, tr.Add(ctx, "g1", "carol", 7))
	require.NoError(t, tr.Add(ctx, "g1", "bob", 9))
	require.NoError(t, tr.Add(ctx, "g1", "alice", 7))
	require.NoError(t, tr.Add(ctx, "g1", "dave", 1))

	assert.Equal(t, []Row{
		{User: "bob", Count: 9},
		{User: "alice", Count: 7},
		{User: "carol", Count: 7},
		{User: "dave", Count: 1},
	}, tr.TopN("g1", 10))

	assert.Equal(t, []Row{
		{User: "bob", Count: 9},
		{User: "alice", Count: 7},
	}, tr.TopN("g1", 2))

	assert.Empty(t, tr.TopN("empty", 10))
}
