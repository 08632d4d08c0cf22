// Package botapi is the JSON-over-HTTP surface through which a chat adapter
// drives the tournament core. The adapter owns parsing and presentation;
// every response here is either a success payload or a typed failure.
package botapi

import (
	"github.com/edhtools/podbot/internal/command"
	"github.com/edhtools/podbot/internal/msgstats"
	"github.com/edhtools/podbot/internal/tourney"
)

type CreateTournamentRequest struct {
	Caller command.Caller `json:"caller"`
	Guild  string         `json:"guild"`
	Name   string         `json:"name"`
	Config tourney.Config `json:"config"`
}

type CreateTournamentResponse struct {
	Tournament tourney.Tournament `json:"tournament"`
}

type RegisterRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type RegisterResponse struct{}

type StartRoundRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type StartRoundResponse struct {
	Round tourney.Round `json:"round"`
}

type ReportGameRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
	Pod          int            `json:"pod"`
	Order        []string       `json:"order"`
}

type ReportGameResponse struct {
	Result tourney.PodResult `json:"result"`
}

type DisqualifyRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
	Player       string         `json:"player"`
}

type DisqualifyResponse struct{}

type EndTournamentRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type EndTournamentResponse struct{}

type GetTournamentRequest struct {
	TournamentID string `json:"tournament_id"`
}

type GetTournamentResponse struct {
	Tournament tourney.Tournament `json:"tournament"`
}

type ActiveTournamentRequest struct {
	Guild string `json:"guild"`
}

type ActiveTournamentResponse struct {
	Tournament tourney.Tournament `json:"tournament"`
}

type StandingsRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type StandingsResponse struct {
	Rows []tourney.StandingsRow `json:"rows"`
}

type MyStandingsRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type MyStandingsResponse struct {
	Row tourney.StandingsRow `json:"row"`
}

type MyPodRequest struct {
	Caller       command.Caller `json:"caller"`
	TournamentID string         `json:"tournament_id"`
}

type MyPodResponse struct {
	Pod tourney.Pod `json:"pod"`
}

type YappersRequest struct {
	Guild string `json:"guild"`
	Limit int    `json:"limit"`
}

type YappersResponse struct {
	Rows []msgstats.Row `json:"rows"`
}

// MessageRequest reports one plain chat message: the counter bumps and, when
// a keyword matches, a canned reply comes back for the adapter to post.
type MessageRequest struct {
	Guild string `json:"guild"`
	User  string `json:"user"`
	Text  string `json:"text"`
}

type MessageResponse struct {
	Count int64  `json:"count"`
	Reply string `json:"reply,omitempty"`
}

type ImportMessagesRequest struct {
	Caller command.Caller `json:"caller"`
	Guild  string         `json:"guild"`
	User   string         `json:"user"`
	Count  int64          `json:"count"`
}

type ImportMessagesResponse struct {
	Total int64 `json:"total"`
}

type HelpRequest struct{}

type HelpResponse struct {
	Sections []command.HelpSection `json:"sections"`
}
