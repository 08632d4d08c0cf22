package botapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/edhtools/podbot/internal/command"
	"github.com/edhtools/podbot/internal/msgstats"
	"github.com/edhtools/podbot/internal/storage"
	"github.com/edhtools/podbot/internal/tourney"
	"github.com/edhtools/podbot/internal/util/httputil"
	"github.com/edhtools/podbot/internal/util/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	log := slogx.DiscardLogger()
	dir := t.TempDir()

	db, err := storage.OpenTournaments(log, filepath.Join(dir, "tournaments.json"))
	require.NoError(t, err)
	mgr, err := tourney.NewManager(ctx, log, db, nil, tourney.Options{ExpiryCheckInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(mgr.Close)

	statsDB, err := storage.OpenStats(log, filepath.Join(dir, "stats.json"))
	require.NoError(t, err)
	stats, err := msgstats.NewTracker(ctx, log, statsDB)
	require.NoError(t, err)

	mux := http.NewServeMux()
	err = HandleServer(log, mux, "/api/bot", Config{Manager: mgr, Stats: stats}, ServerOptions{
		TokenChecker: func(token string) error {
			if token != testToken {
				return fmt.Errorf("bad token")
			}
			return nil
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{Endpoint: srv.URL + "/api/bot", Token: testToken}, srv.Client())
}

func caller(player string) command.Caller {
	return command.Caller{Player: player}
}

func TestServerTournamentFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.CreateTournament(ctx, &CreateTournamentRequest{
		Caller: command.Caller{Player: "host", Organizer: true},
		Guild:  "g1",
		Name:   "Friday Pods",
	})
	require.NoError(t, err)
	id := created.Tournament.ID
	assert.Equal(t, tourney.TournamentOpen, created.Tournament.Status)

	for _, p := range []string{"a", "b", "c", "d"} {
		_, err := c.Register(ctx, &RegisterRequest{Caller: caller(p), TournamentID: id})
		require.NoError(t, err)
	}

	// Domain errors survive the wire with their code intact.
	_, err = c.Register(ctx, &RegisterRequest{Caller: caller("a"), TournamentID: id})
	assert.True(t, tourney.MatchesError(err, tourney.ErrAlreadyRegistered), err)
	_, err = c.GetTournament(ctx, &GetTournamentRequest{TournamentID: "nope"})
	assert.True(t, tourney.MatchesError(err, tourney.ErrTournamentNotFound), err)

	// The host passes organizer checks without the platform role.
	started, err := c.StartRound(ctx, &StartRoundRequest{Caller: caller("host"), TournamentID: id})
	require.NoError(t, err)
	require.Len(t, started.Round.Pods, 1)

	pod, err := c.MyPod(ctx, &MyPodRequest{Caller: caller("a"), TournamentID: id})
	require.NoError(t, err)
	assert.Contains(t, pod.Pod.Members, "a")

	reported, err := c.ReportGame(ctx, &ReportGameRequest{
		Caller:       caller("a"),
		TournamentID: id,
		Pod:          pod.Pod.Number,
		Order:        pod.Pod.Members,
	})
	require.NoError(t, err)
	assert.True(t, reported.Result.RoundFinished)

	active, err := c.ActiveTournament(ctx, &ActiveTournamentRequest{Guild: "g1"})
	require.NoError(t, err)
	assert.Equal(t, id, active.Tournament.ID)

	standings, err := c.Standings(ctx, &StandingsRequest{Caller: caller("host"), TournamentID: id})
	require.NoError(t, err)
	require.Len(t, standings.Rows, 4)
	assert.Equal(t, 4, standings.Rows[0].Points)

	mine, err := c.MyStandings(ctx, &MyStandingsRequest{Caller: caller("a"), TournamentID: id})
	require.NoError(t, err)
	assert.Equal(t, "a", mine.Row.Player)
	assert.NotZero(t, mine.Row.Points)
	_, err = c.MyStandings(ctx, &MyStandingsRequest{Caller: caller("stranger"), TournamentID: id})
	assert.True(t, tourney.MatchesError(err, tourney.ErrPlayerNotRegistered), err)

	_, err = c.EndTournament(ctx, &EndTournamentRequest{Caller: caller("host"), TournamentID: id})
	require.NoError(t, err)
	_, err = c.ActiveTournament(ctx, &ActiveTournamentRequest{Guild: "g1"})
	assert.True(t, tourney.MatchesError(err, tourney.ErrTournamentNotFound), err)
}

func TestServerPermissions(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateTournament(ctx, &CreateTournamentRequest{
		Caller: caller("rando"),
		Guild:  "g1",
		Name:   "Nope",
	})
	require.Error(t, err)
	var httpErr *httputil.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code())

	_, err = c.ImportMessages(ctx, &ImportMessagesRequest{
		Caller: command.Caller{Player: "mod", Organizer: true},
		Guild:  "g1", User: "alice", Count: 10,
	})
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code())

	got, err := c.ImportMessages(ctx, &ImportMessagesRequest{
		Caller: command.Caller{Player: "root", Admin: true},
		Guild:  "g1", User: "alice", Count: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.Total)
}

func TestServerBadToken(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	bad := NewClient(ClientOptions{Endpoint: c.o.Endpoint, Token: "wrong"}, c.client)

	_, err := bad.Help(ctx, &HelpRequest{})
	require.Error(t, err)
	var httpErr *httputil.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code())
}

func TestServerMessages(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	rsp, err := c.Message(ctx, &MessageRequest{Guild: "g1", User: "alice", Text: "hello"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rsp.Count)
	assert.Empty(t, rsp.Reply)

	rsp, err = c.Message(ctx, &MessageRequest{Guild: "g1", User: "alice", Text: "beep beep"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rsp.Count)
	assert.Equal(t, "boop", rsp.Reply)

	_, err = c.Message(ctx, &MessageRequest{Guild: "g1", User: "bob", Text: "hi"})
	require.NoError(t, err)

	top, err := c.Yappers(ctx, &YappersRequest{Guild: "g1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []msgstats.Row{{User: "alice", Count: 2}, {User: "bob", Count: 1}}, top.Rows)
}

func TestServerHelp(t *testing.T) {
	c := newTestClient(t)
	rsp, err := c.Help(context.Background(), &HelpRequest{})
	require.NoError(t, err)
	require.Len(t, rsp.Sections, 3)
	assert.Equal(t, "general", rsp.Sections[0].ID)
}
