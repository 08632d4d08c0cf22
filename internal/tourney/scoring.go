package tourney

import "slices"

// Fixed award table per pod size, first place first. A 1-player pod is an
// automatic win.
var pointTable = [MaxPodSize + 1][]int{
	1: {2},
	2: {3, 2},
	3: {4, 3, 2},
	4: {4, 3, 2, 1},
}

// Score returns the points awarded for finishing at the given 1-based
// position in a pod of the given size. It is pure and total over sizes 1..4
// and positions 1..size.
func Score(podSize, position int) (int, error) {
	if podSize < 1 || podSize > MaxPodSize {
		return 0, makeError(ErrInvalidPodSize, "pod size %v out of range 1..%v", podSize, MaxPodSize)
	}
	if position < 1 || position > podSize {
		return 0, makeError(ErrInvalidPosition, "position %v out of range 1..%v", position, podSize)
	}
	return pointTable[podSize][position-1], nil
}

// Allocation returns the full award table for a pod size, first place first.
func Allocation(podSize int) ([]int, error) {
	if podSize < 1 || podSize > MaxPodSize {
		return nil, makeError(ErrInvalidPodSize, "pod size %v out of range 1..%v", podSize, MaxPodSize)
	}
	return slices.Clone(pointTable[podSize]), nil
}

func awardsFor(order []string) map[string]int {
	awards := make(map[string]int, len(order))
	for i, player := range order {
		pts, err := Score(len(order), i+1)
		if err != nil {
			panic("must not happen")
		}
		awards[player] = pts
	}
	return awards
}
