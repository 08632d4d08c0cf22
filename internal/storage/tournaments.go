package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/edhtools/podbot/internal/tourney"
)

// TournamentStore keeps the tournament snapshot in one JSON document. It
// caches the last persisted records so a save never reads live state owned
// by other goroutines.
type TournamentStore struct {
	log  *slog.Logger
	path string

	mu   sync.Mutex
	recs map[string]tourney.Tournament
}

var _ tourney.DB = (*TournamentStore)(nil)

func OpenTournaments(log *slog.Logger, path string) (*TournamentStore, error) {
	recs := make(map[string]tourney.Tournament)
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
	return &TournamentStore{log: log, path: path, recs: recs}, nil
}

func (s *TournamentStore) LoadTournaments(ctx context.Context) ([]tourney.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := make([]tourney.Tournament, 0, len(s.recs))
	for _, t := range s.recs {
		ts = append(ts, t.Clone())
	}
	slices.SortFunc(ts, func(a, b tourney.Tournament) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ts, nil
}

func (s *TournamentStore) UpsertTournament(ctx context.Context, t tourney.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.recs[t.ID]
	s.recs[t.ID] = t
	if err := s.flushLocked(); err != nil {
		if had {
			s.recs[t.ID] = old
		} else {
			delete(s.recs, t.ID)
		}
		return err
	}
	return nil
}

func (s *TournamentStore) flushLocked() error {
	data, err := json.MarshalIndent(s.recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tournaments: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write tournaments: %w", err)
	}
	return nil
}
