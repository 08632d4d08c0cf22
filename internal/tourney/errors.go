package tourney

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	ErrInvalidCode ErrorCode = iota
	ErrTournamentNotFound
	ErrDuplicateTournament
	ErrInvalidConfig
	ErrRegistrationClosed
	ErrAlreadyRegistered
	ErrPlayerNotRegistered
	ErrNotEnoughPlayers
	ErrNoActiveRound
	ErrRoundInProgress
	ErrMaxRoundsReached
	ErrPodNotFound
	ErrNotAPodMember
	ErrInvalidReport
	ErrAlreadyReported
	ErrInvalidPodSize
	ErrInvalidPosition
	ErrTournamentFinished
)

func (c ErrorCode) String() string {
	switch c {
	case ErrTournamentNotFound:
		return "tournament not found"
	case ErrDuplicateTournament:
		return "duplicate tournament"
	case ErrInvalidConfig:
		return "invalid config"
	case ErrRegistrationClosed:
		return "registration closed"
	case ErrAlreadyRegistered:
		return "already registered"
	case ErrPlayerNotRegistered:
		return "player not registered"
	case ErrNotEnoughPlayers:
		return "not enough players"
	case ErrNoActiveRound:
		return "no active round"
	case ErrRoundInProgress:
		return "round in progress"
	case ErrMaxRoundsReached:
		return "max rounds reached"
	case ErrPodNotFound:
		return "pod not found"
	case ErrNotAPodMember:
		return "not a pod member"
	case ErrInvalidReport:
		return "invalid report"
	case ErrAlreadyReported:
		return "already reported"
	case ErrInvalidPodSize:
		return "invalid pod size"
	case ErrInvalidPosition:
		return "invalid position"
	case ErrTournamentFinished:
		return "tournament finished"
	default:
		return "?"
	}
}

// Error is a domain rule violation. Such errors are returned to the caller
// as-is and must never be retried: they indicate invalid input, not a
// transient fault.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("tourney error %v: %v", e.Code, e.Message)
}

var _ error = (*Error)(nil)

func MatchesError(err error, code ErrorCode) bool {
	var domErr *Error
	return errors.As(err, &domErr) && domErr.Code == code
}

func makeError(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
