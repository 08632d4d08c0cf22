package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/BurntSushi/toml"
	"github.com/edhtools/podbot/internal/botapi"
	"github.com/edhtools/podbot/internal/command"
	"github.com/edhtools/podbot/internal/msgstats"
	"github.com/edhtools/podbot/internal/storage"
	"github.com/edhtools/podbot/internal/tourney"
	"github.com/edhtools/podbot/internal/util/sliceutil"
	"github.com/edhtools/podbot/internal/util/slogx"
	"github.com/edhtools/podbot/internal/version"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Args:    cobra.ExactArgs(0),
	Version: version.Version,
	Short:   "Start the podbot server",
	Long: `Podbot tracks free-for-all pod tournaments run inside a chat guild.

This command starts the server that a chat adapter talks to.
`,
}

// logNotifier surfaces round expiry. A chat adapter would ping the overdue
// pods instead; the server just records the transition.
type logNotifier struct {
	log *slog.Logger
}

func (n *logNotifier) RoundExpired(t tourney.Tournament, r tourney.Round, overdue []tourney.Pod) {
	n.log.Warn("round exceeded its time limit",
		slog.String("tournament_id", t.ID),
		slog.Int("round", r.Number),
		slog.Any("overdue_pods", sliceutil.Map(overdue, func(p tourney.Pod) int { return p.Number })))
}

func openTournaments(log *slog.Logger, path string, reset bool) (*storage.TournamentStore, error) {
	db, err := storage.OpenTournaments(log, path)
	if err == nil || !errors.Is(err, storage.ErrCorruptState) || !reset {
		return db, err
	}
	moved, qErr := storage.Quarantine(path)
	if qErr != nil {
		return nil, errors.Join(err, qErr)
	}
	log.Warn("tournament store was corrupt, starting empty",
		slogx.Err(err), slog.String("moved_to", moved))
	return storage.OpenTournaments(log, path)
}

func openStats(log *slog.Logger, path string, reset bool) (*storage.StatsStore, error) {
	db, err := storage.OpenStats(log, path)
	if err == nil || !errors.Is(err, storage.ErrCorruptState) || !reset {
		return db, err
	}
	moved, qErr := storage.Quarantine(path)
	if qErr != nil {
		return nil, errors.Join(err, qErr)
	}
	log.Warn("stats store was corrupt, starting empty",
		slogx.Err(err), slog.String("moved_to", moved))
	return storage.OpenStats(log, path)
}

func init() {
	p := serveCmd.Flags()
	optsPath := p.StringP(
		"options", "o", "",
		"options file",
	)
	resetCorrupt := p.Bool(
		"reset-corrupt", false,
		"quarantine a corrupt store and start with empty state instead of aborting",
	)
	if err := serveCmd.MarkFlagRequired("options"); err != nil {
		panic(err)
	}

	serveCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		rawOpts, err := os.ReadFile(*optsPath)
		if err != nil {
			return fmt.Errorf("read options: %w", err)
		}
		var opts Options
		if err := toml.Unmarshal(rawOpts, &opts); err != nil {
			return fmt.Errorf("unmarshal options: %w", err)
		}
		opts.FillDefaults()
		if opts.APIToken == "" {
			return fmt.Errorf("no api-token in options")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		log := slog.New(slog.NewTextHandler(colorable.NewColorableStderr(), nil))

		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		tdb, err := openTournaments(log, opts.TournamentsPath(), *resetCorrupt)
		if err != nil {
			return fmt.Errorf("open tournament store: %w", err)
		}
		sdb, err := openStats(log, opts.StatsPath(), *resetCorrupt)
		if err != nil {
			return fmt.Errorf("open stats store: %w", err)
		}

		mgr, err := tourney.NewManager(ctx, log, tdb, &logNotifier{log: log}, opts.Tourney)
		if err != nil {
			return fmt.Errorf("create tournament manager: %w", err)
		}
		defer mgr.Close()

		stats, err := msgstats.NewTracker(ctx, log, sdb)
		if err != nil {
			return fmt.Errorf("create message tracker: %w", err)
		}

		mux := http.NewServeMux()
		if err := botapi.HandleServer(log, mux, "/api/bot", botapi.Config{
			Manager: mgr,
			Stats:   stats,
		}, botapi.ServerOptions{
			TokenChecker: func(token string) error {
				if token != opts.APIToken {
					return fmt.Errorf("bad token")
				}
				return nil
			},
		}); err != nil {
			return fmt.Errorf("handle server: %w", err)
		}
		log.Info("commands registered", slog.Int("count", len(command.Table)))

		servFin := make(chan struct{})
		servCtx, servCancel := context.WithCancel(ctx)
		server := &http.Server{
			Addr:        opts.Addr,
			Handler:     mux,
			BaseContext: func(net.Listener) context.Context { return servCtx },
		}
		go func() {
			defer close(servFin)
			log.Info("starting http server", slog.String("addr", opts.Addr))
			if err := server.ListenAndServe(); err != nil {
				select {
				case <-servCtx.Done():
				default:
					log.Warn("listen http server failed", slogx.Err(err))
				}
			}
		}()
		defer func() { <-servFin }()
		defer func() {
			log.Info("stopping server")
			servCancel()
			_ = server.Shutdown(servCtx)
		}()

		<-ctx.Done()
		return nil
	}
}
