package driven

import (
	"context"
	"encoding/json"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// PageAutomation creates isolated page-rendering sessions
type PageAutomation interface {
	// NewSession opens one page resource. The caller owns it and must Close it.
	// Failure to create the resource wraps domain.ErrAutomationUnavailable.
	NewSession(ctx context.Context) (PageSession, error)

	// Ping checks the automation endpoint is reachable
	Ping(ctx context.Context) error
}

// PageSession is a single page instance with one active viewport.
// Calls are sequential; a session is not safe for concurrent use.
type PageSession interface {
	PageQuery

	// Navigate loads a URL and waits for the load event
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// SetViewport resizes the page viewport
	SetViewport(ctx context.Context, viewport domain.Viewport) error

	// WaitForNetworkIdle blocks until the page reports a stable network
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error

	// WaitForSelector blocks until the selector matches a visible element.
	// Returns domain.ErrElementNotFound or domain.ErrElementNotVisible on timeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// Close releases the page resource. Safe to call more than once.
	Close() error
}

// ExpressionKind names a query evaluated inside the rendered page
type ExpressionKind string

const (
	// ExpressionExtractElements returns ElementsPayload for the focus filter
	ExpressionExtractElements ExpressionKind = "extract_elements"

	// ExpressionSelectorState returns SelectorStatePayload for one selector
	ExpressionSelectorState ExpressionKind = "selector_state"
)

// Expression is a serializable descriptor of an in-page query.
// No code crosses the boundary; the adapter maps each kind to its own script.
type Expression struct {
	Kind     ExpressionKind     `json:"kind"`
	Focus    domain.FocusFilter `json:"focus,omitempty"`
	Selector string             `json:"selector,omitempty"`
}

// PageQueryRequest is one request into the page execution context
type PageQueryRequest struct {
	Expression Expression
	Timeout    time.Duration
}

// PageQueryResponse carries the structured result of an in-page query
type PageQueryResponse struct {
	Payload json.RawMessage
}

// PageQuery is the request/response capability for evaluating expressions in a page
type PageQuery interface {
	Query(ctx context.Context, req PageQueryRequest) (*PageQueryResponse, error)
}

// ElementsPayload is the payload of ExpressionExtractElements
type ElementsPayload struct {
	Elements []domain.VisualElement `json:"elements"`

	// InaccessibleStylesheets lists stylesheet hrefs whose rules could not be read
	InaccessibleStylesheets []string `json:"inaccessibleStylesheets"`
}

// SelectorState is the visibility state of a selector
type SelectorState string

const (
	SelectorMissing SelectorState = "missing"
	SelectorHidden  SelectorState = "hidden"
	SelectorVisible SelectorState = "visible"
)

// SelectorStatePayload is the payload of ExpressionSelectorState
type SelectorStatePayload struct {
	State SelectorState `json:"state"`
}
