package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/edhtools/podbot/internal/tourney"
	"github.com/edhtools/podbot/internal/util/httputil"
)

type ClientOptions struct {
	Endpoint string
	Token    string
}

type Client struct {
	o      ClientOptions
	client *http.Client
}

func NewClient(o ClientOptions, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{o: o, client: httpClient}
}

func (c *Client) setUpRequest(req *http.Request) {
	req.Header.Add("X-Token", c.o.Token)
	req.Header.Add("Content-Type", "application/json")
}

func (c *Client) decodeError(rsp *http.Response) error {
	if 200 <= rsp.StatusCode && rsp.StatusCode <= 299 {
		return nil
	}
	var b bytes.Buffer
	_, err := io.Copy(&b, rsp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if rsp.Header.Get("Content-Type") == "application/json" {
		var domErr *tourney.Error
		if err := json.Unmarshal(b.Bytes(), &domErr); err != nil {
			return fmt.Errorf("unmarshal json: %w", err)
		}
		if domErr.Code == tourney.ErrInvalidCode {
			return fmt.Errorf("bad error json")
		}
		return domErr
	}
	return httputil.MakeError(rsp.StatusCode, b.String())
}

func doClientRequest[Req any, Rsp any](ctx context.Context, c *Client, path string, req *Req) (*Rsp, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.o.Endpoint+path, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setUpRequest(hReq)
	hRsp, err := c.client.Do(hReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, hRsp.Body)
		_ = hRsp.Body.Close()
	}()
	if err := c.decodeError(hRsp); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	rspBytes, err := io.ReadAll(hRsp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var rsp Rsp
	if err := json.Unmarshal(rspBytes, &rsp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &rsp, nil
}

func (c *Client) CreateTournament(ctx context.Context, req *CreateTournamentRequest) (*CreateTournamentResponse, error) {
	return doClientRequest[CreateTournamentRequest, CreateTournamentResponse](ctx, c, "/create", req)
}

func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	return doClientRequest[RegisterRequest, RegisterResponse](ctx, c, "/register", req)
}

func (c *Client) StartRound(ctx context.Context, req *StartRoundRequest) (*StartRoundResponse, error) {
	return doClientRequest[StartRoundRequest, StartRoundResponse](ctx, c, "/start_round", req)
}

func (c *Client) ReportGame(ctx context.Context, req *ReportGameRequest) (*ReportGameResponse, error) {
	return doClientRequest[ReportGameRequest, ReportGameResponse](ctx, c, "/report", req)
}

func (c *Client) Disqualify(ctx context.Context, req *DisqualifyRequest) (*DisqualifyResponse, error) {
	return doClientRequest[DisqualifyRequest, DisqualifyResponse](ctx, c, "/disqualify", req)
}

func (c *Client) EndTournament(ctx context.Context, req *EndTournamentRequest) (*EndTournamentResponse, error) {
	return doClientRequest[EndTournamentRequest, EndTournamentResponse](ctx, c, "/end", req)
}

func (c *Client) GetTournament(ctx context.Context, req *GetTournamentRequest) (*GetTournamentResponse, error) {
	return doClientRequest[GetTournamentRequest, GetTournamentResponse](ctx, c, "/tournament", req)
}

func (c *Client) ActiveTournament(ctx context.Context, req *ActiveTournamentRequest) (*ActiveTournamentResponse, error) {
	return doClientRequest[ActiveTournamentRequest, ActiveTournamentResponse](ctx, c, "/active", req)
}

func (c *Client) Standings(ctx context.Context, req *StandingsRequest) (*StandingsResponse, error) {
	return doClientRequest[StandingsRequest, StandingsResponse](ctx, c, "/standings", req)
}

func (c *Client) MyStandings(ctx context.Context, req *MyStandingsRequest) (*MyStandingsResponse, error) {
	return doClientRequest[MyStandingsRequest, MyStandingsResponse](ctx, c, "/my_standings", req)
}

func (c *Client) MyPod(ctx context.Context, req *MyPodRequest) (*MyPodResponse, error) {
	return doClientRequest[MyPodRequest, MyPodResponse](ctx, c, "/my_pod", req)
}

func (c *Client) Yappers(ctx context.Context, req *YappersRequest) (*YappersResponse, error) {
	return doClientRequest[YappersRequest, YappersResponse](ctx, c, "/yappers", req)
}

func (c *Client) Message(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	return doClientRequest[MessageRequest, MessageResponse](ctx, c, "/message", req)
}

func (c *Client) ImportMessages(ctx context.Context, req *ImportMessagesRequest) (*ImportMessagesResponse, error) {
	return doClientRequest[ImportMessagesRequest, ImportMessagesResponse](ctx, c, "/import_messages", req)
}

func (c *Client) Help(ctx context.Context, req *HelpRequest) (*HelpResponse, error) {
	return doClientRequest[HelpRequest, HelpResponse](ctx, c, "/help", req)
}
