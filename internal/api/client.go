// Package api is the HTTP client for the Helios backend. The streaming
// query endpoint feeds the chat session driver; the remaining endpoints
// (auth, goals, knowledge stats) are simple request/response collaborators.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"helios/internal/auth"
	"helios/internal/stream"
)

// DefaultTimeout bounds non-streaming requests when the caller's context
// carries no deadline. Streaming requests are bounded only by their context.
const DefaultTimeout = 30 * time.Second

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

// Client talks to one Helios backend instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenProvider
	timeout    time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client. The client must not
// set a global Timeout; it would sever long-lived streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default deadline for non-streaming requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger injects a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient returns a client for the backend at baseURL. Requests carry the
// bearer token from tokens; a missing token fails before any request is
// issued.
func NewClient(baseURL string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// queryRequest is the body of POST /api/v1/agent/query.
type queryRequest struct {
	GoalID string `json:"goal_id"`
	Query  string `json:"query"`
	Stream bool   `json:"stream"`
}

// QueryResponse is the non-streaming answer.
type QueryResponse struct {
	GoalID    string          `json:"goal_id"`
	Query     string          `json:"query"`
	Response  string          `json:"response"`
	Sources   []stream.Source `json:"sources"`
	Timestamp time.Time       `json:"timestamp"`
}

// Goal mirrors the backend goal resource.
type Goal struct {
	ID            string    `json:"id"`
	ObjectiveText string    `json:"objective_text"`
	Budget        float64   `json:"budget"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	OwnerID       string    `json:"owner_id"`
}

// GoalCreate is the payload for creating a goal.
type GoalCreate struct {
	ObjectiveText string    `json:"objective_text"`
	Budget        float64   `json:"budget"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	OwnerID       string    `json:"owner_id,omitempty"`
}

// KnowledgeStats summarizes the knowledge base behind one goal.
type KnowledgeStats struct {
	GoalID    string         `json:"goal_id"`
	GoalTitle string         `json:"goal_title"`
	Stats     map[string]any `json:"knowledge_base_stats"`
}

// StreamQuery issues the streaming query and returns the raw chunked
// response body. The caller owns the body and must close it on every exit
// path. Returns auth.ErrNoToken (wrapped) without issuing the request when
// no bearer token is available, and *APIError for non-success statuses.
func (c *Client) StreamQuery(ctx context.Context, goalID, query string) (io.ReadCloser, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("resolving bearer token: %w", err)
	}

	body, err := json.Marshal(queryRequest{GoalID: goalID, Query: query, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/agent/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.Debug("streaming query", zap.String("goal_id", goalID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending query request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("query response has no readable body")
	}
	return resp.Body, nil
}

// Query issues the non-streaming variant and returns the full answer.
func (c *Client) Query(ctx context.Context, goalID, query string) (*QueryResponse, error) {
	var out QueryResponse
	req := queryRequest{GoalID: goalID, Query: query, Stream: false}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/agent/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KnowledgeStats fetches knowledge-base statistics for a goal.
func (c *Client) KnowledgeStats(ctx context.Context, goalID string) (*KnowledgeStats, error) {
	var out KnowledgeStats
	path := "/api/v1/agent/knowledge-stats/" + url.PathEscape(goalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGoals returns the goals visible to the authenticated user.
func (c *Client) ListGoals(ctx context.Context) ([]Goal, error) {
	var out []Goal
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/goals/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGoal fetches one goal by id.
func (c *Client) GetGoal(ctx context.Context, goalID string) (*Goal, error) {
	var out Goal
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/goals/"+url.PathEscape(goalID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGoal creates a goal.
func (c *Client) CreateGoal(ctx context.Context, in GoalCreate) (*Goal, error) {
	var out Goal
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/goals/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGoal removes a goal and returns the deleted resource.
func (c *Client) DeleteGoal(ctx context.Context, goalID string) (*Goal, error) {
	var out Goal
	if err := c.doJSON(ctx, http.MethodDelete, "/api/v1/goals/"+url.PathEscape(goalID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token via the OAuth2 password
// form flow. The token is returned, not stored; wiring it into a
// TokenProvider is the caller's choice.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := c.withDefaultDeadline(ctx)
	defer cancel()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return token.AccessToken, nil
}

// doJSON runs one authenticated request/response round trip.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("resolving bearer token: %w", err)
	}

	ctx, cancel := c.withDefaultDeadline(ctx)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// withDefaultDeadline applies the client timeout when the caller's context
// has none. Request/response calls only; streams are bounded by their own
// context.
func (c *Client) withDefaultDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, has := ctx.Deadline(); has || c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	// FastAPI wraps failures as {"detail": "..."}; fall back to raw body.
	var wire struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &wire) == nil && wire.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Body: wire.Detail}
	}
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
