// Package api is the client for the quiz platform's REST services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends the request anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Refresher is implemented by token sources that can renew a rejected token.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	SuccessCode int
	HTTPClient  *http.Client
	Tokens      TokenSource
	Logger      *slog.Logger
	Retry       RetryConfig
	UserAgent   string
}

// Client talks to the platform API. It is safe for concurrent use.
type Client struct {
	base        *url.URL
	successCode int
	http        *http.Client
	tokens      TokenSource
	logger      *slog.Logger
	retry       RetryConfig
	userAgent   string
}

// New returns a client for the platform at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}
	c := &Client{
		base:        base,
		successCode: opts.SuccessCode,
		http:        opts.HTTPClient,
		tokens:      opts.Tokens,
		logger:      opts.Logger,
		retry:       opts.Retry,
		userAgent:   opts.UserAgent,
	}
	if c.successCode == 0 {
		c.successCode = DefaultSuccessCode
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryConfig()
	}
	if c.userAgent == "" {
		c.userAgent = "lingoquiz"
	}
	return c, nil
}

// SetTokenSource installs the token source used for authenticated calls.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string

	// anonymous skips the bearer token (login, refresh).
	anonymous bool
}

// get performs an idempotent read with retries and one refresh-and-replay
// when the token is rejected.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	cl := call{op: op, method: http.MethodGet, path: path, query: query}
	return c.withRetry(ctx, func() error {
		err := c.do(ctx, cl, out)
		if !IsUnauthorized(err) {
			return err
		}
		r, ok := c.tokens.(Refresher)
		if !ok {
			return err
		}
		if rerr := r.Refresh(ctx); rerr != nil {
			c.logger.Warn("token refresh failed", "op", op, "error", rerr)
			return err
		}
		return c.do(ctx, cl, out)
	})
}

// postJSON performs a single, unretried write.
func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	return c.postJSONAuth(ctx, op, path, in, out, false)
}

func (c *Client) postJSONAuth(ctx context.Context, op, path string, in, out any, anonymous bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		anonymous:   anonymous,
	}, out)
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	u := *c.base
	u.Path = c.base.Path + cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), cl.body)
	if err != nil {
		return &ErrTransport{Op: cl.op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if !cl.anonymous && c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return &ErrAuth{Op: cl.op, Err: err}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "op", cl.op, "request_id", reqID, "error", err)
		return &ErrTransport{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ErrTransport{Op: cl.op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("api request",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	env, err := decodeEnvelope(body)
	if err != nil {
		if resp.StatusCode >= 400 {
			return &ErrAPI{Op: cl.op, Status: resp.StatusCode, Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &ErrTransport{Op: cl.op, Err: err}
	}
	if env.Meta.Code != c.successCode {
		c.logger.Info("api error", "op", cl.op, "code", env.Meta.Code, "message", env.Meta.Message, "request_id", reqID)
		return &ErrAPI{Op: cl.op, Status: resp.StatusCode, Code: env.Meta.Code, Message: env.Meta.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ErrTransport{Op: cl.op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
