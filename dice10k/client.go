// Package dice10k is a client for the dice10k game API.
package dice10k

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// Client calls the game API. Every call is a single request; nothing is
// retried or cached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the http.Client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout bounds each call. Zero disables the per-call bound.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateGame(ctx context.Context) (*CreateGameResponse, error) {
	resp := new(CreateGameResponse)
	if err := c.do(ctx, "CreateGame", http.MethodPost, "/games", struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) FetchGame(ctx context.Context, gameID string) (*Game, error) {
	resp := new(Game)
	if err := c.do(ctx, "FetchGame", http.MethodGet, gamePath(gameID), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AddPlayer(ctx context.Context, gameID, name string) (*AddPlayerResponse, error) {
	body := struct {
		Name string `json:"name"`
	}{name}
	resp := new(AddPlayerResponse)
	if err := c.do(ctx, "AddPlayer", http.MethodPost, gamePath(gameID)+"/join", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) StartGame(ctx context.Context, gameID string) (*StartGameResponse, error) {
	resp := new(StartGameResponse)
	if err := c.do(ctx, "StartGame", http.MethodPost, gamePath(gameID)+"/start", struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Roll(ctx context.Context, gameID, playerID string, steal bool) (*RollResponse, error) {
	body := struct {
		Steal bool `json:"steal"`
	}{steal}
	resp := new(RollResponse)
	if err := c.do(ctx, "Roll", http.MethodPost, playerPath(gameID, playerID)+"/roll", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SendKeepers(ctx context.Context, gameID, playerID string, keepers []int) (*KeepResponse, error) {
	if keepers == nil {
		keepers = []int{}
	}
	body := struct {
		Keepers []int `json:"keepers"`
	}{keepers}
	resp := new(KeepResponse)
	if err := c.do(ctx, "SendKeepers", http.MethodPost, playerPath(gameID, playerID)+"/keep", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PassTurn(ctx context.Context, gameID, playerID string) (*PassResponse, error) {
	resp := new(PassResponse)
	if err := c.do(ctx, "PassTurn", http.MethodPost, playerPath(gameID, playerID)+"/pass", struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func gamePath(gameID string) string {
	return "/games/" + url.PathEscape(gameID)
}

func playerPath(gameID, playerID string) string {
	return gamePath(gameID) + "/players/" + url.PathEscape(playerID)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	u := c.baseURL + path
	fail := func(status int, err error) error {
		return &TransportError{Op: op, URL: u, StatusCode: status, Err: err}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(0, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fail(resp.StatusCode, errors.New(msg))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
