package tourney

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func somePlayers(n int) []string {
	players := make([]string, n)
	for i := range players {
		players[i] = fmt.Sprintf("p%02d", i)
	}
	return players
}

func TestFormPodsPartition(t *testing.T) {
	for podSize := 1; podSize <= MaxPodSize; podSize++ {
		for n := 1; n <= 20; n++ {
			players := somePlayers(n)
			pods := formPods("tid", 1, players, podSize)

			var total []string
			minSize, maxSize := n, 0
			for _, p := range pods {
				require.LessOrEqual(t, len(p.Members), podSize)
				require.NotEmpty(t, p.Members)
				assert.Equal(t, PodPending, p.Status)
				total = append(total, p.Members...)
				minSize = min(minSize, len(p.Members))
				maxSize = max(maxSize, len(p.Members))
			}
			assert.LessOrEqual(t, maxSize-minSize, 1, "n=%v size=%v", n, podSize)

			slices.Sort(total)
			want := somePlayers(n)
			slices.Sort(want)
			assert.Equal(t, want, total, "every player in exactly one pod, n=%v size=%v", n, podSize)

			for i, p := range pods {
				assert.Equal(t, i+1, p.Number)
			}
		}
	}
}

func TestFormPodsDeterministic(t *testing.T) {
	players := somePlayers(11)
	a := formPods("tid", 3, players, 4)
	b := formPods("tid", 3, players, 4)
	require.Equal(t, a, b)

	differs := false
	for round := 4; round <= 8 && !differs; round++ {
		differs = !slices.EqualFunc(a, formPods("tid", round, players, 4), func(x, y Pod) bool {
			return slices.Equal(x.Members, y.Members)
		})
	}
	assert.True(t, differs, "other rounds shuffle differently")
}

func TestFormPodsLeftoverSingleton(t *testing.T) {
	pods := formPods("tid", 1, somePlayers(3), 2)
	require.Len(t, pods, 2)
	sizes := []int{len(pods[0].Members), len(pods[1].Members)}
	slices.Sort(sizes)
	assert.Equal(t, []int{1, 2}, sizes)
}
