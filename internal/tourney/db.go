package tourney

import "context"

// DB persists tournaments. Implementations must publish each upsert
// atomically: a crash mid-save leaves the previous snapshot readable.
type DB interface {
	LoadTournaments(ctx context.Context) ([]Tournament, error)
	UpsertTournament(ctx context.Context, t Tournament) error
}
