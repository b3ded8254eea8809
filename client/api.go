// Package client implements the tournament registration and bracket
// workflow on top of the service REST API: eligibility resolution, the
// multi-step registration flow and bracket viewing with privileged
// mutations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oupafamilly/oupafamilly/models"
)

// ErrConnection marks transport-level failures: network errors, malformed
// responses and non-2xx responses carrying no detail. Distinct from APIError
// so callers never present a transport problem as a business rejection.
var ErrConnection = errors.New("connection error")

// APIError is a service rejection carrying the human-readable detail string,
// surfaced to users verbatim.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether the service rejected the request because the
// resource does not exist. Views use it to leave a detail page for the
// listing instead of rendering the error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client talks to the tournament service. Safe for concurrent reads; SetToken
// is expected to be called before requests are issued.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Detail == "" {
			return fmt.Errorf("%w: status %d", ErrConnection, resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: envelope.Detail}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrConnection, err)
		}
	}
	return nil
}

func (c *Client) Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	var t models.Tournament
	if err := c.do(ctx, http.MethodGet, "/api/tournaments/"+tournamentID, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ParticipantsInfo(ctx context.Context, tournamentID string) ([]models.ParticipantInfo, error) {
	var envelope struct {
		Participants []models.ParticipantInfo `json:"participants"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tournaments/"+tournamentID+"/participants-info", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Participants, nil
}

// UserTeams returns the authenticated user's eligibility for a tournament.
func (c *Client) UserTeams(ctx context.Context, tournamentID string) (*models.EligibilityResult, error) {
	var result models.EligibilityResult
	if err := c.do(ctx, http.MethodGet, "/api/tournaments/"+tournamentID+"/user-teams", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type TeamCreateRequest struct {
	Name       string      `json:"name"`
	Game       models.Game `json:"game"`
	MaxMembers int         `json:"max_members"`
}

func (c *Client) CreateTeam(ctx context.Context, req TeamCreateRequest) (*models.Team, error) {
	var team models.Team
	if err := c.do(ctx, http.MethodPost, "/api/teams/", req, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// Register enrolls the current user, or one of their teams when teamID is
// non-nil.
func (c *Client) Register(ctx context.Context, tournamentID string, teamID *string) error {
	body := struct {
		TeamID *string `json:"team_id,omitempty"`
	}{TeamID: teamID}
	return c.do(ctx, http.MethodPost, "/api/tournaments/"+tournamentID+"/register", body, nil)
}

func (c *Client) Unregister(ctx context.Context, tournamentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tournaments/"+tournamentID+"/register", nil, nil)
}

func (c *Client) Bracket(ctx context.Context, tournamentID string) (*models.Bracket, error) {
	var bracket models.Bracket
	if err := c.do(ctx, http.MethodGet, "/api/tournaments/"+tournamentID+"/bracket", nil, &bracket); err != nil {
		return nil, err
	}
	return &bracket, nil
}

type GenerateBracketResponse struct {
	MatchCount       int    `json:"matches_count"`
	TournamentStatus string `json:"tournament_status"`
}

func (c *Client) GenerateBracket(ctx context.Context, tournamentID string) (*GenerateBracketResponse, error) {
	var resp GenerateBracketResponse
	if err := c.do(ctx, http.MethodPost, "/api/tournaments/"+tournamentID+"/generate-bracket", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type MatchResultRequest struct {
	WinnerID     string  `json:"winner_id"`
	Player1Score int     `json:"player1_score"`
	Player2Score int     `json:"player2_score"`
	Notes        *string `json:"notes,omitempty"`
}

func (c *Client) SubmitMatchResult(ctx context.Context, matchID string, req MatchResultRequest) error {
	return c.do(ctx, http.MethodPost, "/api/matches/"+matchID+"/result", req, nil)
}
