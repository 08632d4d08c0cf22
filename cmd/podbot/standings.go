package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/edhtools/podbot/internal/botapi"
	"github.com/edhtools/podbot/internal/command"
	"github.com/edhtools/podbot/internal/tourney"
	"github.com/edhtools/podbot/internal/util/style"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var standingsCmd = &cobra.Command{
	Use:   "standings <tournament-id>",
	Args:  cobra.ExactArgs(1),
	Short: "Print the standings of a tournament",
}

func init() {
	p := standingsCmd.Flags()
	endpoint := p.StringP(
		"endpoint", "e", "http://127.0.0.1:8080/api/bot",
		"server endpoint",
	)
	token := p.StringP(
		"token", "t", "",
		"api token",
	)
	player := p.StringP(
		"as", "a", "",
		"caller player id",
	)
	if err := standingsCmd.MarkFlagRequired("token"); err != nil {
		panic(err)
	}

	standingsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		tournamentID := args[0]
		client := botapi.NewClient(botapi.ClientOptions{
			Endpoint: *endpoint,
			Token:    *token,
		}, http.DefaultClient)
		caller := command.Caller{Player: *player, Organizer: true}

		var (
			info *botapi.GetTournamentResponse
			rows *botapi.StandingsResponse
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			info, err = client.GetTournament(ctx, &botapi.GetTournamentRequest{TournamentID: tournamentID})
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = client.Standings(ctx, &botapi.StandingsRequest{Caller: caller, TournamentID: tournamentID})
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("fetch standings: %w", err)
		}

		printStandings(cmd.Context(), info.Tournament, rows.Rows)
		return nil
	}
}

func printStandings(_ context.Context, t tourney.Tournament, rows []tourney.StandingsRow) {
	out := colorable.NewColorableStdout()
	fmt.Fprintf(out, "%s %s\n",
		style.WithS(t.Name, 1),
		style.WithS("["+t.Status.PrettyString()+"]", 2))
	for _, row := range rows {
		name := row.Player
		if row.Disqualified {
			name += " (dq)"
		}
		switch row.Rank {
		case 1:
			name = style.WithS(name, 1, 33)
		case 2:
			name = style.WithS(name, 1, 37)
		case 3:
			name = style.WithS(name, 1, 31)
		}
		fmt.Fprintf(out, "%2d. %s: %d pts, %d matches\n",
			row.Rank, name, row.Points, row.Matches)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no players registered")
	}
}
