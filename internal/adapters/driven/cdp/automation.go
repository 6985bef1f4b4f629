// Package cdp drives a Chromium-family browser over the Chrome DevTools Protocol.
//
// The browser is started elsewhere with --remote-debugging-port. Each session
// opens its own target (tab) through the HTTP endpoints and speaks the
// protocol over that target's websocket.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageAutomation = (*Automation)(nil)

// Config configures the CDP endpoint
type Config struct {
	// Endpoint is the browser's HTTP debugging address, e.g. http://127.0.0.1:9222
	Endpoint string

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Logger     *slog.Logger

	// PollInterval is the selector polling period
	PollInterval time.Duration
}

// Automation hands out one browser target per session
type Automation struct {
	endpoint     *url.URL
	http         *http.Client
	dialer       *websocket.Dialer
	logger       *slog.Logger
	pollInterval time.Duration
}

// target is the /json/new response
type target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// NewAutomation validates the endpoint and creates the adapter
func NewAutomation(cfg Config) (*Automation, error) {
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: invalid CDP endpoint %q", domain.ErrInvalidInput, cfg.Endpoint)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("%w: CDP endpoint must be http(s), got %q", domain.ErrInvalidInput, endpoint.Scheme)
	}

	a := &Automation{
		endpoint:     endpoint,
		http:         cfg.HTTPClient,
		dialer:       cfg.Dialer,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
	}
	if a.http == nil {
		a.http = &http.Client{Timeout: 10 * time.Second}
	}
	if a.dialer == nil {
		a.dialer = websocket.DefaultDialer
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.pollInterval <= 0 {
		a.pollInterval = 100 * time.Millisecond
	}
	return a, nil
}

// Ping checks that the browser answers /json/version
func (a *Automation) Ping(ctx context.Context) error {
	var version struct {
		Browser string `json:"Browser"`
	}
	if err := a.getJSON(ctx, http.MethodGet, "/json/version", &version); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAutomationUnavailable, err)
	}
	return nil
}

// NewSession opens a blank target and attaches to it. The caller owns the
// session and must Close it.
func (a *Automation) NewSession(ctx context.Context) (driven.PageSession, error) {
	var t target
	// PUT is required by current browsers; older ones accept it too
	if err := a.getJSON(ctx, http.MethodPut, "/json/new?about:blank", &t); err != nil {
		return nil, fmt.Errorf("%w: open target: %v", domain.ErrAutomationUnavailable, err)
	}
	if t.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("%w: target %s has no debugger url", domain.ErrAutomationUnavailable, t.ID)
	}

	conn, _, err := a.dialer.DialContext(ctx, t.WebSocketDebuggerURL, nil)
	if err != nil {
		a.closeTarget(t.ID)
		return nil, fmt.Errorf("%w: attach target: %v", domain.ErrAutomationUnavailable, err)
	}

	s := newSession(conn, t.ID, a)
	if err := s.enable(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: enable domains: %v", domain.ErrAutomationUnavailable, err)
	}

	a.logger.Debug("page session opened", "target", t.ID)
	return s, nil
}

// closeTarget closes a browser tab. Failures only leak a blank tab.
func (a *Automation) closeTarget(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.getJSON(ctx, http.MethodGet, "/json/close/"+url.PathEscape(id), nil); err != nil {
		a.logger.Warn("failed to close browser target", "target", id, "error", err)
	}
}

func (a *Automation) getJSON(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.endpoint.String()+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
