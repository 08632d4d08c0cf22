package tourney

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"
)

// podSeed derives the shuffle seed from the tournament and round identity, so
// that pod formation is reproducible after a crash-reload but still differs
// between rounds.
func podSeed(tournamentID string, roundNumber int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tournamentID))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(strconv.Itoa(roundNumber)))
	return h.Sum64()
}

// formPods partitions the players into pods of at most podSize members.
// Every player lands in exactly one pod and pod sizes differ by at most one:
// the remainder spreads over the leading pods instead of leaving a tail of
// stragglers. A pod may still end up with a single member (e.g. 3 players
// with pod size 2); the caller auto-scores it as a win.
func formPods(tournamentID string, roundNumber int, players []string, podSize int) []Pod {
	players = append([]string(nil), players...)
	rng := rand.New(rand.NewPCG(podSeed(tournamentID, roundNumber), uint64(roundNumber)))
	rng.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})

	n := len(players)
	podCount := (n + podSize - 1) / podSize
	base := n / podCount
	extra := n % podCount

	pods := make([]Pod, 0, podCount)
	at := 0
	for i := 0; i < podCount; i++ {
		size := base
		if i < extra {
			size++
		}
		pods = append(pods, Pod{
			Number:  i + 1,
			Members: players[at : at+size],
			Status:  PodPending,
		})
		at += size
	}
	return pods
}
