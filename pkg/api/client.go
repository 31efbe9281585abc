package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// TokenSource yields the credential token of the current session, if any.
// It is satisfied by session.Manager; the dispatcher never reads storage
// itself.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the single chokepoint for calls against the action-multiplexed
// library endpoint. Every call resolves to an Envelope; transport errors
// never escape it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   TokenSource
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 15s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient constructs a dispatcher for the given endpoint URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseSessions binds the token source used for authenticated calls. Wiring
// is two-step because the session manager itself calls back into the
// client for login and logout.
func (c *Client) UseSessions(ts TokenSource) {
	c.sessions = ts
}

// CallOptions classifies a single dispatch.
type CallOptions struct {
	// Authenticated injects the current session token as sessionId. When
	// no valid session exists the call fails locally without a network
	// round-trip.
	Authenticated bool
}

// Call encodes action plus parameters as a GET query string, performs the
// request and normalizes the response. Parameters with empty values are
// omitted, so the remote can distinguish "unset" from "empty".
func (c *Client) Call(ctx context.Context, action string, params map[string]string, opts CallOptions) Envelope {
	query := url.Values{}
	query.Set("action", action)
	for key, value := range params {
		if value == "" {
			continue
		}
		query.Set(key, value)
	}
	if opts.Authenticated {
		token, ok := c.token()
		if !ok {
			c.logger.Debug("api call rejected, no session", "action", action)
			return noSessionFailure()
		}
		query.Set("sessionId", token)
	}

	requestID := uuid.NewString()
	c.logger.Debug("api request", "action", action, "request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return transportFailure(err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "action", action, "request_id", requestID, "err", err)
		return transportFailure(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("api read failed", "action", action, "request_id", requestID, "err", err)
		return transportFailure(err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("api status not ok", "action", action, "request_id", requestID, "status", resp.StatusCode)
		return transportFailure("HTTP status " + resp.Status)
	}

	env := parseEnvelope(body)
	if !env.Success {
		c.logger.Debug("api call failed", "action", action, "request_id", requestID, "code", env.ErrCode())
	}
	return env
}

func (c *Client) token() (string, bool) {
	if c.sessions == nil {
		return "", false
	}
	return c.sessions.Token()
}
