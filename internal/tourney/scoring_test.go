package tourney

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTable(t *testing.T) {
	for _, tc := range []struct {
		size, pos, pts int
	}{
		{4, 1, 4}, {4, 2, 3}, {4, 3, 2}, {4, 4, 1},
		{3, 1, 4}, {3, 2, 3}, {3, 3, 2},
		{2, 1, 3}, {2, 2, 2},
		{1, 1, 2},
	} {
		pts, err := Score(tc.size, tc.pos)
		require.NoError(t, err)
		assert.Equal(t, tc.pts, pts, "size=%v pos=%v", tc.size, tc.pos)
	}
}

func TestScoreBadSize(t *testing.T) {
	for _, size := range []int{-1, 0, 5, 100} {
		_, err := Score(size, 1)
		assert.True(t, MatchesError(err, ErrInvalidPodSize), "size=%v", size)
	}
}

func TestScoreBadPosition(t *testing.T) {
	for _, tc := range []struct{ size, pos int }{
		{4, 5}, {3, 4}, {2, 3}, {1, 2}, {4, 0}, {2, -1},
	} {
		_, err := Score(tc.size, tc.pos)
		assert.True(t, MatchesError(err, ErrInvalidPosition), "size=%v pos=%v", tc.size, tc.pos)
	}
}

func TestAllocationMatchesScore(t *testing.T) {
	for size := 1; size <= MaxPodSize; size++ {
		alloc, err := Allocation(size)
		require.NoError(t, err)
		require.Len(t, alloc, size)
		for pos := 1; pos <= size; pos++ {
			pts, err := Score(size, pos)
			require.NoError(t, err)
			assert.Equal(t, pts, alloc[pos-1])
		}
	}
}
