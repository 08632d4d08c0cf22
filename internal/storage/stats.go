package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/edhtools/podbot/internal/msgstats"
)

// StatsStore persists message counters in a stream independent from the
// tournament snapshot.
type StatsStore struct {
	log  *slog.Logger
	path string

	mu   sync.Mutex
	recs map[string]map[string]int64
}

var _ msgstats.DB = (*StatsStore)(nil)

func OpenStats(log *slog.Logger, path string) (*StatsStore, error) {
	recs := make(map[string]map[string]int64)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("%w: decode %v: %v", ErrCorruptState, path, err)
		}
	case os.IsNotExist(err):
		// First run.
	default:
		return nil, fmt.Errorf("read %v: %w", path, err)
	}
	return &StatsStore{log: log, path: path, recs: recs}, nil
}

func (s *StatsStore) LoadStats(ctx context.Context) (map[string]map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]int64, len(s.recs))
	for guild, counts := range s.recs {
		out[guild] = maps.Clone(counts)
	}
	return out, nil
}

func (s *StatsStore) SaveGuild(ctx context.Context, guild string, counts map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.recs[guild]
	s.recs[guild] = maps.Clone(counts)
	if err := s.flushLocked(); err != nil {
		if had {
			s.recs[guild] = old
		} else {
			delete(s.recs, guild)
		}
		return err
	}
	return nil
}

func (s *StatsStore) flushLocked() error {
	data, err := json.MarshalIndent(s.recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}
