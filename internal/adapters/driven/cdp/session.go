package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageSession = (*Session)(nil)

var errSessionClosed = errors.New("page session closed")

// message is either a command response (ID set) or an event (Method set)
type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

type command struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// waiter is released by the first event it matches
type waiter struct {
	match func(method string, params json.RawMessage) bool
	done  chan struct{}
}

// Session is one attached browser target
type Session struct {
	conn       *websocket.Conn
	targetID   string
	automation *Automation

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan message
	waiters []*waiter
	idle    bool // networkIdle seen since the last navigation
	closed  bool

	closeOnce sync.Once
	readDone  chan struct{}
}

func newSession(conn *websocket.Conn, targetID string, automation *Automation) *Session {
	s := &Session{
		conn:       conn,
		targetID:   targetID,
		automation: automation,
		pending:    make(map[int64]chan message),
		readDone:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Session) enable(ctx context.Context) error {
	if err := s.call(ctx, "Page.enable", nil, nil); err != nil {
		return err
	}
	return s.call(ctx, "Page.setLifecycleEventsEnabled", map[string]any{"enabled": true}, nil)
}

func (s *Session) readLoop() {
	defer close(s.readDone)
	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.shutdown()
			return
		}
		if msg.ID != 0 {
			s.deliver(msg)
			continue
		}
		s.dispatch(msg.Method, msg.Params)
	}
}

func (s *Session) deliver(msg message) {
	s.mu.Lock()
	ch, ok := s.pending[msg.ID]
	delete(s.pending, msg.ID)
	s.mu.Unlock()
	if ok {
		ch <- msg
	}
}

type lifecycleEvent struct {
	Name string `json:"name"`
}

func (s *Session) dispatch(method string, params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if method == "Page.lifecycleEvent" {
		var ev lifecycleEvent
		if json.Unmarshal(params, &ev) == nil && ev.Name == "networkIdle" {
			s.idle = true
		}
	}

	kept := s.waiters[:0]
	for _, w := range s.waiters {
		if w.match(method, params) {
			close(w.done)
			continue
		}
		kept = append(kept, w)
	}
	s.waiters = kept
}

// shutdown fails every pending call once the connection is gone
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

// call sends one command and waits for its response
func (s *Session) call(ctx context.Context, method string, params any, result any) error {
	id := s.nextID.Add(1)
	ch := make(chan message, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	s.pending[id] = ch
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(command{ID: id, Method: method, Params: params})
	s.writeMu.Unlock()
	if err != nil {
		s.forget(id)
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		s.forget(id)
		return ctx.Err()
	case msg, ok := <-ch:
		if !ok {
			return errSessionClosed
		}
		if msg.Error != nil {
			return fmt.Errorf("%s: %w", method, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("%s: decode result: %w", method, err)
			}
		}
		return nil
	}
}

func (s *Session) forget(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// expect registers a waiter before the action that triggers the event
func (s *Session) expect(match func(method string, params json.RawMessage) bool) *waiter {
	w := &waiter{match: match, done: make(chan struct{})}
	s.mu.Lock()
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()
	return w
}

func (s *Session) drop(w *waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.waiters {
		if other == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

func (s *Session) await(ctx context.Context, w *waiter) error {
	select {
	case <-w.done:
		return nil
	case <-s.readDone:
		return errSessionClosed
	case <-ctx.Done():
		s.drop(w)
		return ctx.Err()
	}
}

// withTimeout bounds one step. A step that outlives its own timeout reports
// domain.ErrTimeout; a cancelled parent context is returned unchanged.
func withTimeout(ctx context.Context, timeout time.Duration, step string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(stepCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %v", domain.ErrTimeout, step, timeout)
	}
	return err
}

type navigateResult struct {
	FrameID   string `json:"frameId"`
	ErrorText string `json:"errorText"`
}

// Navigate loads url and waits for the load event
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return withTimeout(ctx, timeout, "navigate", func(ctx context.Context) error {
		loaded := s.expect(func(method string, _ json.RawMessage) bool {
			return method == "Page.loadEventFired"
		})

		s.mu.Lock()
		s.idle = false
		s.mu.Unlock()

		var res navigateResult
		if err := s.call(ctx, "Page.navigate", map[string]any{"url": url}, &res); err != nil {
			s.drop(loaded)
			return err
		}
		if res.ErrorText != "" {
			s.drop(loaded)
			return fmt.Errorf("navigate %s: %s", url, res.ErrorText)
		}
		return s.await(ctx, loaded)
	})
}

// WaitForNetworkIdle returns once the browser reports networkIdle for the current page
func (s *Session) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return withTimeout(ctx, timeout, "network idle", func(ctx context.Context) error {
		s.mu.Lock()
		if s.idle {
			s.mu.Unlock()
			return nil
		}
		w := &waiter{
			match: func(method string, params json.RawMessage) bool {
				if method != "Page.lifecycleEvent" {
					return false
				}
				var ev lifecycleEvent
				return json.Unmarshal(params, &ev) == nil && ev.Name == "networkIdle"
			},
			done: make(chan struct{}),
		}
		s.waiters = append(s.waiters, w)
		s.mu.Unlock()

		return s.await(ctx, w)
	})
}

// SetViewport overrides the device metrics. Widths below 768 emulate a mobile device.
func (s *Session) SetViewport(ctx context.Context, viewport domain.Viewport) error {
	return s.call(ctx, "Emulation.setDeviceMetricsOverride", map[string]any{
		"width":             viewport.Width,
		"height":            viewport.Height,
		"deviceScaleFactor": 1,
		"mobile":            viewport.Width < 768,
	}, nil)
}

// WaitForSelector polls until the selector matches a visible element.
// At the timeout a missing element reports domain.ErrElementNotFound and a
// present but hidden one domain.ErrElementNotVisible.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	last := driven.SelectorMissing
	err := withTimeout(ctx, timeout, "wait for selector", func(ctx context.Context) error {
		ticker := time.NewTicker(s.automation.pollInterval)
		defer ticker.Stop()
		for {
			state, err := s.selectorState(ctx, selector)
			if err != nil {
				return err
			}
			if state == driven.SelectorVisible {
				return nil
			}
			last = state
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
	if errors.Is(err, domain.ErrTimeout) {
		if last == driven.SelectorHidden {
			return fmt.Errorf("%w: %s", domain.ErrElementNotVisible, selector)
		}
		return fmt.Errorf("%w: %s", domain.ErrElementNotFound, selector)
	}
	return err
}

func (s *Session) selectorState(ctx context.Context, selector string) (driven.SelectorState, error) {
	resp, err := s.Query(ctx, driven.PageQueryRequest{
		Expression: driven.Expression{Kind: driven.ExpressionSelectorState, Selector: selector},
	})
	if err != nil {
		return "", err
	}
	var payload driven.SelectorStatePayload
	if err := json.Unmarshal(resp.Payload, &payload); err != nil {
		return "", fmt.Errorf("decode selector state: %w", err)
	}
	return payload.State, nil
}

type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

// Query evaluates the script for the expression kind and returns its JSON value
func (s *Session) Query(ctx context.Context, req driven.PageQueryRequest) (*driven.PageQueryResponse, error) {
	script, err := buildScript(req.Expression)
	if err != nil {
		return nil, err
	}

	var res evaluateResult
	err = withTimeout(ctx, req.Timeout, string(req.Expression.Kind), func(ctx context.Context) error {
		return s.call(ctx, "Runtime.evaluate", map[string]any{
			"expression":    script,
			"returnByValue": true,
			"awaitPromise":  true,
		}, &res)
	})
	if err != nil {
		return nil, err
	}

	if ex := res.ExceptionDetails; ex != nil {
		msg := ex.Text
		if ex.Exception != nil && ex.Exception.Description != "" {
			msg = ex.Exception.Description
		}
		return nil, fmt.Errorf("evaluate %s: %s", req.Expression.Kind, msg)
	}
	if len(res.Result.Value) == 0 {
		return nil, fmt.Errorf("evaluate %s: no value returned", req.Expression.Kind)
	}
	return &driven.PageQueryResponse{Payload: res.Result.Value}, nil
}

// Close detaches and closes the target. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
		<-s.readDone
		s.automation.closeTarget(s.targetID)
	})
	return err
}
