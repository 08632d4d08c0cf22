// Package command defines the closed set of chat commands and their
// permission gates. The chat adapter parses user input into one of these and
// maps it onto a core operation; the core itself never checks permissions.
package command

import (
	"errors"

	"github.com/edhtools/podbot/internal/tourney"
)

var ErrPermissionDenied = errors.New("permission denied")

type Perm int

const (
	PermAnyone Perm = iota
	PermOrganizer
	PermAdmin
)

func (p Perm) String() string {
	switch p {
	case PermAnyone:
		return "anyone"
	case PermOrganizer:
		return "organizer"
	case PermAdmin:
		return "admin"
	default:
		return "?"
	}
}

type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindCreateTournament
	KindRegister
	KindStartRound
	KindReportGame
	KindMyPods
	KindStandings
	KindMyStandings
	KindDisqualify
	KindEndTournament
	KindYapperLeaderboard
	KindImportMessages
)

// Caller describes who invoked a command, as seen by the chat platform.
// Organizer means the platform-level organizer role, which is independent
// from being the host of a particular tournament.
type Caller struct {
	Player    string `json:"player"`
	Organizer bool   `json:"organizer,omitempty"`
	Admin     bool   `json:"admin,omitempty"`
}

type Command struct {
	Kind        Kind
	Name        string
	Usage       string
	Description string
	Perm        Perm
}

// Check gates a command invocation. Admins always pass; the organizer level
// also accepts the host of the tournament at hand.
func (c Command) Check(caller Caller, t *tourney.Tournament) error {
	if caller.Admin {
		return nil
	}
	switch c.Perm {
	case PermAnyone:
		return nil
	case PermOrganizer:
		if caller.Organizer {
			return nil
		}
		if t != nil && t.Organizer == caller.Player {
			return nil
		}
		return ErrPermissionDenied
	default:
		return ErrPermissionDenied
	}
}

var Table = []Command{
	{Kind: KindHelp, Name: "help", Description: "Show help sections", Perm: PermAnyone},
	{Kind: KindCreateTournament, Name: "create_tournament", Usage: "<name> [pod-size] [max-rounds]", Description: "Create a tournament", Perm: PermOrganizer},
	{Kind: KindRegister, Name: "register", Description: "Register for a tournament", Perm: PermAnyone},
	{Kind: KindStartRound, Name: "start_round", Description: "Start a new round", Perm: PermOrganizer},
	{Kind: KindReportGame, Name: "report_game", Usage: "<pod> <1st> <2nd> [...]", Description: "Report your pod results", Perm: PermAnyone},
	{Kind: KindMyPods, Name: "my_pods", Description: "Show your pod for the current round", Perm: PermAnyone},
	{Kind: KindStandings, Name: "standings", Description: "Show tournament standings", Perm: PermOrganizer},
	{Kind: KindMyStandings, Name: "my_standings", Description: "Show your own points", Perm: PermAnyone},
	{Kind: KindDisqualify, Name: "disqualify", Usage: "<player>", Description: "Disqualify a player", Perm: PermOrganizer},
	{Kind: KindEndTournament, Name: "end_tournament", Description: "End the tournament", Perm: PermOrganizer},
	{Kind: KindYapperLeaderboard, Name: "yapper_leaderboard", Usage: "[limit]", Description: "Show the message leaderboard", Perm: PermAnyone},
	{Kind: KindImportMessages, Name: "import_messages", Usage: "<user> <count>", Description: "Import a user's past message counts", Perm: PermAdmin},
}

var byName = func() map[string]Command {
	m := make(map[string]Command, len(Table))
	for _, c := range Table {
		m[c.Name] = c
	}
	return m
}()

func Lookup(name string) (Command, bool) {
	c, ok := byName[name]
	return c, ok
}
