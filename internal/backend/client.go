// Package backend is the HTTP client for the signal backend's JSON API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/metrics"
	"go.uber.org/zap"
)

// Endpoint names used in logs and metrics.
const (
	EndpointLogin     = "auth_login"
	EndpointFetch     = "signals_fetch"
	EndpointHistory   = "signals_history"
	EndpointExport    = "signals_export"
	EndpointExchanges = "exchanges"
)

// Config holds client settings.
type Config struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

// Client talks to the signal backend.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every backend call in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) { c.metrics = reg }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a backend client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the status part shared by every response.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// LoginResult is a granted session.
type LoginResult struct {
	Email string
	Token string
}

// SignalsResult is one successful fetch. Signals and Statistics always
// come from the same response.
type SignalsResult struct {
	Signals    []core.Signal
	Statistics core.Statistics
}

// ExportFile is a formatted export ready to be saved.
type ExportFile struct {
	Filename string
	Content  []byte
}

// Login exchanges an email for a bearer token.
func (c *Client) Login(ctx context.Context, email string) (*LoginResult, error) {
	start := time.Now()
	var resp struct {
		envelope
		Email string `json:"email"`
		Token string `json:"token"`
	}
	body := map[string]string{"email": email}
	if err := c.do(ctx, EndpointLogin, start, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		c.observe(EndpointLogin, "rejected", start)
		msg := resp.Error
		if msg == "" {
			msg = core.ErrLoginFailed.Message
		}
		return nil, core.WithMessage(core.ErrLoginFailed, msg)
	}
	c.observe(EndpointLogin, "ok", start)
	return &LoginResult{Email: resp.Email, Token: resp.Token}, nil
}

// FetchSignals requests the signals for exchange within filter.
// A success with zero rows is not an error here.
func (c *Client) FetchSignals(ctx context.Context, token, exchange string, filter daterange.Filter) (*SignalsResult, error) {
	start := time.Now()
	body := filter.Params()
	body["exchange"] = exchange

	var resp struct {
		envelope
		Signals    []core.Signal   `json:"signals"`
		Statistics core.Statistics `json:"statistics"`
	}
	if err := c.do(ctx, EndpointFetch, start, http.MethodPost, "/api/signals/fetch", token, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		c.observe(EndpointFetch, "rejected", start)
		msg := resp.Error
		if msg == "" {
			msg = core.ErrBackend.Message
		}
		return nil, core.WithMessage(core.ErrBackend, msg)
	}
	c.observe(EndpointFetch, "ok", start)
	if c.metrics != nil {
		c.metrics.RecordSignalsFetched(exchange, len(resp.Signals))
	}
	return &SignalsResult{
		Signals:    resp.Signals,
		Statistics: resp.Statistics,
	}, nil
}

// History returns the stored daily aggregates for exchange in server order.
func (c *Client) History(ctx context.Context, exchange string) ([]core.HistoryEntry, error) {
	start := time.Now()
	var resp struct {
		envelope
		History []core.HistoryEntry `json:"history"`
	}
	path := "/api/signals/history/" + url.PathEscape(exchange)
	if err := c.do(ctx, EndpointHistory, start, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		c.observe(EndpointHistory, "rejected", start)
		return nil, core.ErrNoHistory
	}
	c.observe(EndpointHistory, "ok", start)
	return resp.History, nil
}

// Export asks the backend to format signals as a file.
func (c *Client) Export(ctx context.Context, signals []core.Signal) (*ExportFile, error) {
	start := time.Now()
	var resp struct {
		envelope
		CSV      string `json:"csv"`
		Filename string `json:"filename"`
	}
	body := map[string]any{"signals": signals}
	if err := c.do(ctx, EndpointExport, start, http.MethodPost, "/api/signals/export", "", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		c.observe(EndpointExport, "rejected", start)
		return nil, core.WrapError(core.ErrExportFailed, errors.New(resp.Error))
	}
	c.observe(EndpointExport, "ok", start)
	return &ExportFile{Filename: resp.Filename, Content: []byte(resp.CSV)}, nil
}

// Exchanges lists the venues the backend supports, sorted by name.
func (c *Client) Exchanges(ctx context.Context) ([]core.Exchange, error) {
	start := time.Now()
	var resp map[string]string
	if err := c.do(ctx, EndpointExchanges, start, http.MethodGet, "/api/exchanges", "", nil, &resp); err != nil {
		return nil, err
	}
	c.observe(EndpointExchanges, "ok", start)

	exchanges := make([]core.Exchange, 0, len(resp))
	for name, code := range resp {
		exchanges = append(exchanges, core.Exchange{Name: name, Code: code})
	}
	sort.Slice(exchanges, func(i, j int) bool { return exchanges[i].Name < exchanges[j].Name })
	return exchanges, nil
}

// do sends one request and decodes the JSON body into out whatever the
// status code; failure bodies arrive with 4xx/5xx statuses. Transport and
// decoding failures come back as ErrTransport and are recorded here.
func (c *Client) do(ctx context.Context, endpoint string, start time.Time, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return core.WrapError(core.ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.fail(endpoint, start, err)
		return core.WrapError(core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err = fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
		c.fail(endpoint, start, err)
		return core.WrapError(core.ErrTransport, err)
	}

	// Only the exchanges listing lacks an envelope; treat its non-2xx as transport.
	if endpoint == EndpointExchanges && resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status: %d", resp.StatusCode)
		c.fail(endpoint, start, err)
		return core.WrapError(core.ErrTransport, err)
	}

	c.logger.Debug("backend call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordBackendCall(endpoint, outcome, time.Since(start).Seconds())
	}
}

func (c *Client) fail(endpoint string, start time.Time, err error) {
	c.logger.Warn("backend call failed",
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	c.observe(endpoint, "transport", start)
}
