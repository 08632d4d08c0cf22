package tourney

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/edhtools/podbot/internal/util/slogx"
	"github.com/gosimple/slug"
)

const tournamentIDBaseLen = 20

type Options struct {
	ExpiryCheckInterval time.Duration `toml:"expiry-check-interval"`
}

func (o Options) Clone() Options {
	return o
}

func (o *Options) FillDefaults() {
	if o.ExpiryCheckInterval == 0 {
		o.ExpiryCheckInterval = 5 * time.Minute
	}
}

// Notifier observes state transitions that happen outside the command path.
// No tournament state depends on the notifications.
type Notifier interface {
	RoundExpired(t Tournament, r Round, overdue []Pod)
}

type tournamentExt struct {
	mu sync.Mutex
	t  *Tournament
}

// Manager owns the tournament state machine. Mutations are serialized per
// tournament and applied to a clone which replaces the live state only after
// the save succeeds, so an acknowledged mutation is never lost and a failed
// save never advances in-memory state.
type Manager struct {
	o        *Options
	log      *slog.Logger
	db       DB
	notifier Notifier

	mu      sync.RWMutex
	ts      map[string]*tournamentExt
	byGuild map[string]string

	watcher *watcher
}

func NewManager(ctx context.Context, log *slog.Logger, db DB, notifier Notifier, o Options) (*Manager, error) {
	o = o.Clone()
	o.FillDefaults()

	loaded, err := db.LoadTournaments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tournaments: %w", err)
	}

	m := &Manager{
		o:        &o,
		log:      log,
		db:       db,
		notifier: notifier,
		ts:       make(map[string]*tournamentExt, len(loaded)),
		byGuild:  make(map[string]string),
	}
	for _, t := range loaded {
		t := t.Clone()
		m.ts[t.ID] = &tournamentExt{t: &t}
		if !t.Status.IsFinished() {
			if other, ok := m.byGuild[t.Guild]; ok {
				return nil, fmt.Errorf("guild %v has two unfinished tournaments: %v and %v", t.Guild, other, t.ID)
			}
			m.byGuild[t.Guild] = t.ID
		}
	}
	log.Info("tournaments loaded", slog.Int("count", len(loaded)))

	w, err := newWatcher(m, o.ExpiryCheckInterval)
	if err != nil {
		return nil, fmt.Errorf("start expiry watcher: %w", err)
	}
	m.watcher = w
	return m, nil
}

func (m *Manager) Close() {
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m *Manager) ext(id string) (*tournamentExt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.ts[id]
	if !ok {
		return nil, makeError(ErrTournamentNotFound, "no tournament %q", id)
	}
	return e, nil
}

// update runs fn over a clone of the tournament, persists the result and
// swaps it in. fn must return a domain error to reject the mutation.
func (m *Manager) update(ctx context.Context, e *tournamentExt, fn func(t *Tournament) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.t.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := m.db.UpsertTournament(ctx, next.Clone()); err != nil {
		return fmt.Errorf("save tournament %v: %w", next.ID, err)
	}
	wasFinished := e.t.Status.IsFinished()
	e.t = &next
	if next.Status.IsFinished() && !wasFinished {
		m.mu.Lock()
		if m.byGuild[next.Guild] == next.ID {
			delete(m.byGuild, next.Guild)
		}
		m.mu.Unlock()
	}
	return nil
}

func (m *Manager) newIDLocked(name string) string {
	base := slug.Make(name)
	if len(base) > tournamentIDBaseLen {
		base = base[:tournamentIDBaseLen]
	}
	if base == "" {
		base = "tournament"
	}
	id := base
	for i := 2; ; i++ {
		if _, ok := m.ts[id]; !ok {
			return id
		}
		id = base + "-" + strconv.Itoa(i)
	}
}

func (m *Manager) CreateTournament(ctx context.Context, guild, organizer, name string, cfg Config) (Tournament, error) {
	if err := validateName(name); err != nil {
		return Tournament{}, err
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Tournament{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if other, ok := m.byGuild[guild]; ok {
		return Tournament{}, makeError(ErrDuplicateTournament,
			"guild already runs tournament %q, end it first", other)
	}
	t := &Tournament{
		ID:        m.newIDLocked(name),
		Guild:     guild,
		Name:      name,
		Organizer: organizer,
		Status:    TournamentOpen,
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.db.UpsertTournament(ctx, t.Clone()); err != nil {
		return Tournament{}, fmt.Errorf("save tournament %v: %w", t.ID, err)
	}
	m.ts[t.ID] = &tournamentExt{t: t}
	m.byGuild[guild] = t.ID
	m.log.Info("tournament created",
		slog.String("tournament_id", t.ID), slog.String("guild", guild))
	return t.Clone(), nil
}

func (m *Manager) Register(ctx context.Context, tournamentID, player string) error {
	e, err := m.ext(tournamentID)
	if err != nil {
		return err
	}
	return m.update(ctx, e, func(t *Tournament) error {
		if t.Status != TournamentOpen {
			return makeError(ErrRegistrationClosed, "tournament %q is %v", t.ID, t.Status)
		}
		if t.Registration(player) != nil {
			return makeError(ErrAlreadyRegistered, "player %v already registered", player)
		}
		t.Registrations = append(t.Registrations, Registration{
			Player:       player,
			Seq:          len(t.Registrations),
			RegisteredAt: time.Now().UTC(),
		})
		return nil
	})
}

func (m *Manager) StartRound(ctx context.Context, tournamentID string) (Round, error) {
	e, err := m.ext(tournamentID)
	if err != nil {
		return Round{}, err
	}
	var started Round
	err = m.update(ctx, e, func(t *Tournament) error {
		if len(t.Rounds) >= t.Config.MaxRounds {
			return makeError(ErrMaxRoundsReached, "all %v rounds played", t.Config.MaxRounds)
		}
		if t.Status.IsFinished() {
			return makeError(ErrTournamentFinished, "tournament %q is finished", t.ID)
		}
		if cur := t.CurrentRound(); cur != nil && cur.Status != RoundFinished {
			return makeError(ErrRoundInProgress, "round %v is still active", cur.Number)
		}
		players := t.ActivePlayers()
		if len(players) < 2 {
			return makeError(ErrNotEnoughPlayers, "need at least 2 players, have %v", len(players))
		}
		r := Round{
			Number:    len(t.Rounds) + 1,
			Status:    RoundActive,
			CreatedAt: time.Now().UTC(),
			Pods:      formPods(t.ID, len(t.Rounds)+1, players, t.Config.PodSize),
		}
		// A lone player cannot play anyone: auto-score the pod as a win.
		for i := range r.Pods {
			if len(r.Pods[i].Members) == 1 {
				r.Pods[i].Status = PodReported
				r.Pods[i].Order = slices.Clone(r.Pods[i].Members)
				r.Pods[i].Awards = awardsFor(r.Pods[i].Order)
			}
		}
		t.Status = TournamentRunning
		t.Rounds = append(t.Rounds, r)
		m.finishRoundIfDone(t, t.CurrentRound())
		started = t.CurrentRound().Clone()
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	m.log.Info("round started",
		slog.String("tournament_id", tournamentID),
		slog.Int("round", started.Number),
		slog.Int("pods", len(started.Pods)))
	return started, nil
}

func (m *Manager) ReportGame(ctx context.Context, tournamentID, reporter string, podNumber int, order []string) (PodResult, error) {
	e, err := m.ext(tournamentID)
	if err != nil {
		return PodResult{}, err
	}
	var res PodResult
	err = m.update(ctx, e, func(t *Tournament) error {
		if t.Status.IsFinished() {
			return makeError(ErrTournamentFinished, "tournament %q is finished", t.ID)
		}
		cur := t.CurrentRound()
		if cur == nil || cur.Status != RoundActive {
			return makeError(ErrNoActiveRound, "no active round in tournament %q", t.ID)
		}
		p := cur.Pod(podNumber)
		if p == nil {
			return makeError(ErrPodNotFound, "no pod %v in round %v", podNumber, cur.Number)
		}
		if !p.HasMember(reporter) {
			return makeError(ErrNotAPodMember, "player %v is not in pod %v", reporter, podNumber)
		}
		if p.Status == PodReported {
			return makeError(ErrAlreadyReported, "pod %v already reported", podNumber)
		}
		if err := validateOrder(p.Members, order); err != nil {
			return err
		}
		p.Status = PodReported
		p.Order = slices.Clone(order)
		p.Awards = awardsFor(p.Order)
		m.finishRoundIfDone(t, cur)
		res = PodResult{
			Pod:                p.Clone(),
			RoundFinished:      cur.Status == RoundFinished,
			TournamentFinished: t.Status.IsFinished(),
		}
		return nil
	})
	if err != nil {
		return PodResult{}, err
	}
	m.log.Info("pod reported",
		slog.String("tournament_id", tournamentID),
		slog.Int("pod", podNumber),
		slog.Bool("round_finished", res.RoundFinished))
	return res, nil
}

// validateOrder requires a strict total ranking of exactly the pod's member
// set. Ties are not representable.
func validateOrder(members, order []string) error {
	if len(order) != len(members) {
		return makeError(ErrInvalidReport, "report lists %v players, pod has %v", len(order), len(members))
	}
	seen := make(map[string]struct{}, len(order))
	for _, player := range order {
		if _, ok := seen[player]; ok {
			return makeError(ErrInvalidReport, "player %v listed twice", player)
		}
		seen[player] = struct{}{}
		if !slices.Contains(members, player) {
			return makeError(ErrInvalidReport, "player %v is not in this pod", player)
		}
	}
	return nil
}

func (m *Manager) Disqualify(ctx context.Context, tournamentID, player string) error {
	e, err := m.ext(tournamentID)
	if err != nil {
		return err
	}
	err = m.update(ctx, e, func(t *Tournament) error {
		if t.Status.IsFinished() {
			return makeError(ErrTournamentFinished, "tournament %q is finished", t.ID)
		}
		reg := t.Registration(player)
		if reg == nil {
			return makeError(ErrPlayerNotRegistered, "player %v is not registered", player)
		}
		// Earned points stay; the player just leaves the pool for the next
		// partition. An already formed pending pod keeps them scoreable.
		reg.Disqualified = true
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info("player disqualified",
		slog.String("tournament_id", tournamentID), slog.String("player", player))
	return nil
}

func (m *Manager) EndTournament(ctx context.Context, tournamentID string) error {
	e, err := m.ext(tournamentID)
	if err != nil {
		return err
	}
	err = m.update(ctx, e, func(t *Tournament) error {
		if t.Status.IsFinished() {
			return makeError(ErrTournamentFinished, "tournament %q is already finished", t.ID)
		}
		// Reported pods of the current round still count; pending ones do not.
		if cur := t.CurrentRound(); cur != nil && cur.Status == RoundActive {
			m.finishRound(t, cur)
		}
		t.Status = TournamentFinished
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info("tournament ended", slog.String("tournament_id", tournamentID))
	return nil
}

// finishRoundIfDone closes the round once every pod has reported.
func (m *Manager) finishRoundIfDone(t *Tournament, r *Round) {
	if r.Status == RoundActive && r.AllReported() {
		m.finishRound(t, r)
	}
}

// finishRound merges pod awards into cumulative totals and finishes the
// tournament after the last configured round. Merging happens here and only
// here, so each round's points count exactly once.
func (m *Manager) finishRound(t *Tournament, r *Round) {
	r.Status = RoundFinished
	for i := range r.Pods {
		p := &r.Pods[i]
		if p.Status != PodReported {
			continue
		}
		for player, pts := range p.Awards {
			if reg := t.Registration(player); reg != nil {
				reg.Points += pts
				reg.Matches++
			}
		}
	}
	if r.Number >= t.Config.MaxRounds {
		t.Status = TournamentFinished
	}
}

func (m *Manager) Get(tournamentID string) (Tournament, error) {
	e, err := m.ext(tournamentID)
	if err != nil {
		return Tournament{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.t.Clone(), nil
}

// Active returns the guild's open or running tournament, if any.
func (m *Manager) Active(guild string) (Tournament, error) {
	m.mu.RLock()
	id, ok := m.byGuild[guild]
	m.mu.RUnlock()
	if !ok {
		return Tournament{}, makeError(ErrTournamentNotFound, "guild %v has no active tournament", guild)
	}
	return m.Get(id)
}

func (m *Manager) Standings(tournamentID string) ([]StandingsRow, error) {
	t, err := m.Get(tournamentID)
	if err != nil {
		return nil, err
	}
	regs := slices.Clone(t.Registrations)
	slices.SortStableFunc(regs, func(a, b Registration) int {
		if a.Points != b.Points {
			return b.Points - a.Points
		}
		return a.Seq - b.Seq
	})
	rows := make([]StandingsRow, len(regs))
	for i, reg := range regs {
		rows[i] = StandingsRow{
			Rank:         i + 1,
			Player:       reg.Player,
			Points:       reg.Points,
			Matches:      reg.Matches,
			Disqualified: reg.Disqualified,
		}
	}
	return rows, nil
}

// PodFor returns the player's pod in the current active round.
func (m *Manager) PodFor(tournamentID, player string) (Pod, error) {
	t, err := m.Get(tournamentID)
	if err != nil {
		return Pod{}, err
	}
	cur := t.CurrentRound()
	if cur == nil || cur.Status != RoundActive {
		return Pod{}, makeError(ErrNoActiveRound, "no active round in tournament %q", t.ID)
	}
	p := cur.PodWith(player)
	if p == nil {
		return Pod{}, makeError(ErrPodNotFound, "player %v has no pod in round %v", player, cur.Number)
	}
	return p.Clone(), nil
}

// CheckExpiredRounds finishes every active round that outlived its time
// limit. Called periodically by the watcher; exposed for tests. Expiry is a
// scheduled transition, not an error: reported pods merge, pending ones
// score nothing.
func (m *Manager) CheckExpiredRounds(ctx context.Context, now time.Time) {
	m.mu.RLock()
	exts := make([]*tournamentExt, 0, len(m.ts))
	for _, e := range m.ts {
		exts = append(exts, e)
	}
	m.mu.RUnlock()

	for _, e := range exts {
		var (
			expired Tournament
			round   Round
			overdue []Pod
		)
		err := m.update(ctx, e, func(t *Tournament) error {
			cur := t.CurrentRound()
			if t.Status != TournamentRunning || cur == nil || !cur.Expired(t.Config.RoundLimit, now) {
				return errNotExpired
			}
			for i := range cur.Pods {
				if cur.Pods[i].Status != PodReported {
					overdue = append(overdue, cur.Pods[i].Clone())
				}
			}
			m.finishRound(t, cur)
			expired = t.Clone()
			round = cur.Clone()
			return nil
		})
		if err != nil {
			if !errors.Is(err, errNotExpired) {
				m.log.Error("could not expire round", slogx.Err(err))
			}
			continue
		}
		m.log.Info("round expired",
			slog.String("tournament_id", expired.ID),
			slog.Int("round", round.Number),
			slog.Int("overdue_pods", len(overdue)))
		if m.notifier != nil {
			m.notifier.RoundExpired(expired, round, overdue)
		}
	}
}

var errNotExpired = errors.New("round not expired")
