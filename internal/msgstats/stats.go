// Package msgstats counts chat messages per user per guild. The counters are
// unrelated to tournament scoring and live in their own persistence stream.
package msgstats

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

type DB interface {
	LoadStats(ctx context.Context) (map[string]map[string]int64, error)
	SaveGuild(ctx context.Context, guild string, counts map[string]int64) error
}

type Row struct {
	User  string `json:"user"`
	Count int64  `json:"count"`
}

type Tracker struct {
	log *slog.Logger
	db  DB

	mu     sync.Mutex
	counts map[string]map[string]int64
}

func NewTracker(ctx context.Context, log *slog.Logger, db DB) (*Tracker, error) {
	counts, err := db.LoadStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if counts == nil {
		counts = make(map[string]map[string]int64)
	}
	return &Tracker{log: log, db: db, counts: counts}, nil
}

func (tr *Tracker) Increment(ctx context.Context, guild, user string) error {
	return tr.Add(ctx, guild, user, 1)
}

// Add bumps a user's counter by n (bulk history imports pass n > 1). The
// in-memory counter advances only after the save succeeds.
func (tr *Tracker) Add(ctx context.Context, guild, user string, n int64) error {
	if n <= 0 {
		return fmt.Errorf("non-positive increment %v", n)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	next := maps.Clone(tr.counts[guild])
	if next == nil {
		next = make(map[string]int64)
	}
	next[user] += n
	if err := tr.db.SaveGuild(ctx, guild, next); err != nil {
		return fmt.Errorf("save stats for guild %v: %w", guild, err)
	}
	tr.counts[guild] = next
	return nil
}

func (tr *Tracker) Count(guild, user string) int64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.counts[guild][user]
}

// TopN returns the guild's n loudest users, counts descending, ties broken
// by user id for stable output.
func (tr *Tracker) TopN(guild string, n int) []Row {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	rows := make([]Row, 0, len(tr.counts[guild]))
	for user, count := range tr.counts[guild] {
		rows = append(rows, Row{User: user, Count: count})
	}
	slices.SortFunc(rows, func(a, b Row) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.User, b.User)
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
