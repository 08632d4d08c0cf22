package botapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/edhtools/podbot/internal/command"
	"github.com/edhtools/podbot/internal/msgstats"
	"github.com/edhtools/podbot/internal/tourney"
	"github.com/edhtools/podbot/internal/util/httputil"
	"github.com/edhtools/podbot/internal/util/slogx"
	"github.com/google/uuid"
)

type TokenChecker func(token string) error

type ServerOptions struct {
	TokenChecker TokenChecker
}

type Config struct {
	Manager *tourney.Manager
	Stats   *msgstats.Tracker
}

type server struct {
	mgr   *tourney.Manager
	stats *msgstats.Tracker
}

func makeHandler[Req any, Rsp any](
	log *slog.Logger,
	o *ServerOptions,
	fn func(context.Context, *slog.Logger, *Req) (*Rsp, error),
) http.Handler {
	h := func(w http.ResponseWriter, hReq *http.Request) {
		log := log.With(
			slog.String("addr", hReq.RemoteAddr),
			slog.String("path", hReq.URL.Path),
			slog.String("rid", uuid.NewString()),
		)

		if err := func() error {
			log.Info("handle botapi request")

			if hReq.Method != http.MethodPost {
				log.Warn("unsupported method")
				return httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
			}

			if err := o.TokenChecker(hReq.Header.Get("X-Token")); err != nil {
				log.Warn("token auth failed", slogx.Err(err))
				return httputil.MakeError(http.StatusForbidden, "bad token auth")
			}

			reqBytes, err := io.ReadAll(hReq.Body)
			if err != nil {
				log.Info("error reading request", slogx.Err(err))
				return nil
			}
			var req Req
			if err := json.Unmarshal(reqBytes, &req); err != nil {
				log.Warn("error unmarshalling json", slogx.Err(err))
				return httputil.MakeError(http.StatusBadRequest, "unmarshal json request")
			}

			rsp, err := fn(hReq.Context(), log, &req)
			if err != nil {
				if domErr := (*tourney.Error)(nil); errors.As(err, &domErr) {
					return err
				}
				if errors.Is(err, command.ErrPermissionDenied) {
					return httputil.MakeError(http.StatusForbidden, "permission denied")
				}
				log.Warn("handler failed", slogx.Err(err))
				return httputil.MakeError(http.StatusInternalServerError, "internal server error")
			}

			rspBytes, err := json.Marshal(rsp)
			if err != nil {
				log.Warn("error marshalling json", slogx.Err(err))
				return httputil.MakeError(http.StatusInternalServerError, "marshal json response")
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(rspBytes); err != nil {
				log.Info("error writing response", slogx.Err(err))
			}
			return nil
		}(); err != nil {
			var domErr *tourney.Error
			if errors.As(err, &domErr) {
				data, err := json.Marshal(domErr)
				if err != nil {
					log.Warn("error marshalling error json", slogx.Err(err))
					if err := httputil.WriteErrorResponse(fmt.Errorf("marshal error json"), w); err != nil {
						log.Info("error writing error response", slogx.Err(err))
					}
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(domErrorStatus(domErr.Code))
				if _, err := w.Write(data); err != nil {
					log.Info("error writing error response", slogx.Err(err))
				}
				return
			}
			if err := httputil.WriteErrorResponse(err, w); err != nil {
				log.Info("error writing error response", slogx.Err(err))
			}
		}
	}
	return gziphandler.GzipHandler(http.HandlerFunc(h))
}

func domErrorStatus(code tourney.ErrorCode) int {
	switch code {
	case tourney.ErrTournamentNotFound, tourney.ErrPodNotFound, tourney.ErrPlayerNotRegistered, tourney.ErrNoActiveRound:
		return http.StatusNotFound
	case tourney.ErrDuplicateTournament, tourney.ErrAlreadyRegistered, tourney.ErrAlreadyReported,
		tourney.ErrRoundInProgress, tourney.ErrMaxRoundsReached, tourney.ErrRegistrationClosed,
		tourney.ErrTournamentFinished:
		return http.StatusConflict
	case tourney.ErrNotAPodMember:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// checkPerm gates a request against the command table entry, resolving the
// tournament so that its host passes organizer-level checks.
func (s *server) checkPerm(name string, caller command.Caller, tournamentID string) error {
	cmd, ok := command.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	var t *tourney.Tournament
	if tournamentID != "" {
		got, err := s.mgr.Get(tournamentID)
		if err != nil {
			return err
		}
		t = &got
	}
	return cmd.Check(caller, t)
}

func HandleServer(log *slog.Logger, mux *http.ServeMux, prefix string, cfg Config, o ServerOptions) error {
	if o.TokenChecker == nil {
		return fmt.Errorf("no token checker")
	}
	s := &server{mgr: cfg.Manager, stats: cfg.Stats}

	mux.Handle(prefix+"/create", makeHandler(log, &o, s.createTournament))
	mux.Handle(prefix+"/register", makeHandler(log, &o, s.register))
	mux.Handle(prefix+"/start_round", makeHandler(log, &o, s.startRound))
	mux.Handle(prefix+"/report", makeHandler(log, &o, s.reportGame))
	mux.Handle(prefix+"/disqualify", makeHandler(log, &o, s.disqualify))
	mux.Handle(prefix+"/end", makeHandler(log, &o, s.endTournament))
	mux.Handle(prefix+"/tournament", makeHandler(log, &o, s.getTournament))
	mux.Handle(prefix+"/active", makeHandler(log, &o, s.activeTournament))
	mux.Handle(prefix+"/standings", makeHandler(log, &o, s.standings))
	mux.Handle(prefix+"/my_standings", makeHandler(log, &o, s.myStandings))
	mux.Handle(prefix+"/my_pod", makeHandler(log, &o, s.myPod))
	mux.Handle(prefix+"/yappers", makeHandler(log, &o, s.yappers))
	mux.Handle(prefix+"/message", makeHandler(log, &o, s.message))
	mux.Handle(prefix+"/import_messages", makeHandler(log, &o, s.importMessages))
	mux.Handle(prefix+"/help", makeHandler(log, &o, s.help))
	return nil
}

func (s *server) createTournament(ctx context.Context, log *slog.Logger, req *CreateTournamentRequest) (*CreateTournamentResponse, error) {
	if err := s.checkPerm("create_tournament", req.Caller, ""); err != nil {
		return nil, err
	}
	t, err := s.mgr.CreateTournament(ctx, req.Guild, req.Caller.Player, req.Name, req.Config)
	if err != nil {
		return nil, err
	}
	return &CreateTournamentResponse{Tournament: t}, nil
}

func (s *server) register(ctx context.Context, log *slog.Logger, req *RegisterRequest) (*RegisterResponse, error) {
	if err := s.mgr.Register(ctx, req.TournamentID, req.Caller.Player); err != nil {
		return nil, err
	}
	return &RegisterResponse{}, nil
}

func (s *server) startRound(ctx context.Context, log *slog.Logger, req *StartRoundRequest) (*StartRoundResponse, error) {
	if err := s.checkPerm("start_round", req.Caller, req.TournamentID); err != nil {
		return nil, err
	}
	r, err := s.mgr.StartRound(ctx, req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &StartRoundResponse{Round: r}, nil
}

func (s *server) reportGame(ctx context.Context, log *slog.Logger, req *ReportGameRequest) (*ReportGameResponse, error) {
	res, err := s.mgr.ReportGame(ctx, req.TournamentID, req.Caller.Player, req.Pod, req.Order)
	if err != nil {
		return nil, err
	}
	return &ReportGameResponse{Result: res}, nil
}

func (s *server) disqualify(ctx context.Context, log *slog.Logger, req *DisqualifyRequest) (*DisqualifyResponse, error) {
	if err := s.checkPerm("disqualify", req.Caller, req.TournamentID); err != nil {
		return nil, err
	}
	if err := s.mgr.Disqualify(ctx, req.TournamentID, req.Player); err != nil {
		return nil, err
	}
	return &DisqualifyResponse{}, nil
}

func (s *server) endTournament(ctx context.Context, log *slog.Logger, req *EndTournamentRequest) (*EndTournamentResponse, error) {
	if err := s.checkPerm("end_tournament", req.Caller, req.TournamentID); err != nil {
		return nil, err
	}
	if err := s.mgr.EndTournament(ctx, req.TournamentID); err != nil {
		return nil, err
	}
	return &EndTournamentResponse{}, nil
}

func (s *server) getTournament(ctx context.Context, log *slog.Logger, req *GetTournamentRequest) (*GetTournamentResponse, error) {
	t, err := s.mgr.Get(req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &GetTournamentResponse{Tournament: t}, nil
}

func (s *server) activeTournament(ctx context.Context, log *slog.Logger, req *ActiveTournamentRequest) (*ActiveTournamentResponse, error) {
	t, err := s.mgr.Active(req.Guild)
	if err != nil {
		return nil, err
	}
	return &ActiveTournamentResponse{Tournament: t}, nil
}

func (s *server) standings(ctx context.Context, log *slog.Logger, req *StandingsRequest) (*StandingsResponse, error) {
	if err := s.checkPerm("standings", req.Caller, req.TournamentID); err != nil {
		return nil, err
	}
	rows, err := s.mgr.Standings(req.TournamentID)
	if err != nil {
		return nil, err
	}
	return &StandingsResponse{Rows: rows}, nil
}

func (s *server) myStandings(ctx context.Context, log *slog.Logger, req *MyStandingsRequest) (*MyStandingsResponse, error) {
	rows, err := s.mgr.Standings(req.TournamentID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Player == req.Caller.Player {
			return &MyStandingsResponse{Row: row}, nil
		}
	}
	return nil, &tourney.Error{
		Code:    tourney.ErrPlayerNotRegistered,
		Message: fmt.Sprintf("player %v is not registered", req.Caller.Player),
	}
}

func (s *server) myPod(ctx context.Context, log *slog.Logger, req *MyPodRequest) (*MyPodResponse, error) {
	p, err := s.mgr.PodFor(req.TournamentID, req.Caller.Player)
	if err != nil {
		return nil, err
	}
	return &MyPodResponse{Pod: p}, nil
}

func (s *server) yappers(ctx context.Context, log *slog.Logger, req *YappersRequest) (*YappersResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	return &YappersResponse{Rows: s.stats.TopN(req.Guild, limit)}, nil
}

func (s *server) message(ctx context.Context, log *slog.Logger, req *MessageRequest) (*MessageResponse, error) {
	if err := s.stats.Increment(ctx, req.Guild, req.User); err != nil {
		return nil, err
	}
	rsp := &MessageResponse{Count: s.stats.Count(req.Guild, req.User)}
	if reply, ok := command.KeywordReply(req.Text); ok {
		rsp.Reply = reply
	}
	return rsp, nil
}

func (s *server) importMessages(ctx context.Context, log *slog.Logger, req *ImportMessagesRequest) (*ImportMessagesResponse, error) {
	if err := s.checkPerm("import_messages", req.Caller, ""); err != nil {
		return nil, err
	}
	if err := s.stats.Add(ctx, req.Guild, req.User, req.Count); err != nil {
		return nil, err
	}
	return &ImportMessagesResponse{Total: s.stats.Count(req.Guild, req.User)}, nil
}

func (s *server) help(ctx context.Context, log *slog.Logger, req *HelpRequest) (*HelpResponse, error) {
	return &HelpResponse{Sections: command.HelpSections()}, nil
}
