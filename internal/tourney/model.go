package tourney

import (
	"maps"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/edhtools/podbot/internal/util/sliceutil"
)

const (
	TournamentNameMaxLen = 100
	MaxPodSize           = 4
)

type TournamentStatus int

const (
	TournamentUnknownStatus TournamentStatus = iota
	TournamentOpen
	TournamentRunning
	TournamentFinished
)

func (s TournamentStatus) String() string {
	switch s {
	case TournamentOpen:
		return "open"
	case TournamentRunning:
		return "running"
	case TournamentFinished:
		return "finished"
	default:
		return "?"
	}
}

func (s TournamentStatus) PrettyString() string {
	switch s {
	case TournamentOpen:
		return "Open"
	case TournamentRunning:
		return "Running"
	case TournamentFinished:
		return "Finished"
	default:
		return "?"
	}
}

func (s TournamentStatus) IsFinished() bool { return s == TournamentFinished }

type RoundStatus int

const (
	RoundUnknownStatus RoundStatus = iota
	RoundActive
	RoundFinished
)

func (s RoundStatus) String() string {
	switch s {
	case RoundActive:
		return "active"
	case RoundFinished:
		return "finished"
	default:
		return "?"
	}
}

type PodStatus int

const (
	PodUnknownStatus PodStatus = iota
	PodPending
	PodReported
)

func (s PodStatus) String() string {
	switch s {
	case PodPending:
		return "pending"
	case PodReported:
		return "reported"
	default:
		return "?"
	}
}

type Config struct {
	PodSize    int           `json:"pod_size" toml:"pod-size"`
	RoundLimit time.Duration `json:"round_limit" toml:"round-limit"`
	MaxRounds  int           `json:"max_rounds" toml:"max-rounds"`
}

func (c *Config) FillDefaults() {
	if c.PodSize == 0 {
		c.PodSize = 4
	}
	if c.RoundLimit == 0 {
		c.RoundLimit = 90 * time.Minute
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 4
	}
}

func (c Config) Validate() error {
	if c.PodSize < 1 || c.PodSize > MaxPodSize {
		return makeError(ErrInvalidPodSize, "pod size %v out of range 1..%v", c.PodSize, MaxPodSize)
	}
	if c.RoundLimit <= 0 {
		return makeError(ErrInvalidConfig, "non-positive round limit")
	}
	if c.MaxRounds < 1 {
		return makeError(ErrInvalidConfig, "bad number of rounds")
	}
	return nil
}

type Registration struct {
	Player       string    `json:"player"`
	Seq          int       `json:"seq"`
	Points       int       `json:"points"`
	Matches      int       `json:"matches"`
	Disqualified bool      `json:"disqualified,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Pod is a single free-for-all game between up to MaxPodSize players.
// Order and Awards are set exactly once, when the pod becomes reported.
type Pod struct {
	Number  int            `json:"number"`
	Members []string       `json:"members"`
	Status  PodStatus      `json:"status"`
	Order   []string       `json:"order,omitempty"`
	Awards  map[string]int `json:"awards,omitempty"`
}

func (p Pod) Clone() Pod {
	p.Members = slices.Clone(p.Members)
	p.Order = slices.Clone(p.Order)
	p.Awards = maps.Clone(p.Awards)
	return p
}

func (p *Pod) HasMember(player string) bool {
	return slices.Contains(p.Members, player)
}

type Round struct {
	Number    int         `json:"number"`
	Status    RoundStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Pods      []Pod       `json:"pods"`
}

func (r Round) Clone() Round {
	pods := make([]Pod, len(r.Pods))
	for i, p := range r.Pods {
		pods[i] = p.Clone()
	}
	r.Pods = pods
	return r
}

func (r *Round) Pod(number int) *Pod {
	for i := range r.Pods {
		if r.Pods[i].Number == number {
			return &r.Pods[i]
		}
	}
	return nil
}

func (r *Round) PodWith(player string) *Pod {
	for i := range r.Pods {
		if r.Pods[i].HasMember(player) {
			return &r.Pods[i]
		}
	}
	return nil
}

func (r *Round) AllReported() bool {
	for i := range r.Pods {
		if r.Pods[i].Status != PodReported {
			return false
		}
	}
	return true
}

func (r *Round) Expired(limit time.Duration, now time.Time) bool {
	return r.Status == RoundActive && now.Sub(r.CreatedAt) > limit
}

type Tournament struct {
	ID            string           `json:"id"`
	Guild         string           `json:"guild"`
	Name          string           `json:"name"`
	Organizer     string           `json:"organizer"`
	Status        TournamentStatus `json:"status"`
	Config        Config           `json:"config"`
	Rounds        []Round          `json:"rounds"`
	Registrations []Registration   `json:"registrations"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (t Tournament) Clone() Tournament {
	rounds := make([]Round, len(t.Rounds))
	for i, r := range t.Rounds {
		rounds[i] = r.Clone()
	}
	t.Rounds = rounds
	t.Registrations = slices.Clone(t.Registrations)
	return t
}

func (t *Tournament) Registration(player string) *Registration {
	for i := range t.Registrations {
		if t.Registrations[i].Player == player {
			return &t.Registrations[i]
		}
	}
	return nil
}

// CurrentRound returns the last round, or nil before the first one starts.
func (t *Tournament) CurrentRound() *Round {
	if len(t.Rounds) == 0 {
		return nil
	}
	return &t.Rounds[len(t.Rounds)-1]
}

// ActivePlayers returns registered, non-disqualified players in registration
// order. This is the player pool for pod formation.
func (t *Tournament) ActivePlayers() []string {
	return sliceutil.FilterMap(t.Registrations, func(r Registration) (string, bool) {
		return r.Player, !r.Disqualified
	})
}

func validateName(name string) error {
	if name == "" {
		return makeError(ErrInvalidConfig, "no tournament name")
	}
	if utf8.RuneCountInString(name) > TournamentNameMaxLen {
		return makeError(ErrInvalidConfig, "tournament name exceeds %v runes", TournamentNameMaxLen)
	}
	return nil
}

type StandingsRow struct {
	Rank         int    `json:"rank"`
	Player       string `json:"player"`
	Points       int    `json:"points"`
	Matches      int    `json:"matches"`
	Disqualified bool   `json:"disqualified,omitempty"`
}

// PodResult is the outcome of a successful report.
type PodResult struct {
	Pod                Pod  `json:"pod"`
	RoundFinished      bool `json:"round_finished"`
	TournamentFinished bool `json:"tournament_finished"`
}
