package tabs

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/hpungsan/tabshelf/internal/errors"
)

// Bridge methods understood by the companion extension.
const (
	MethodQueryTabs        = "tabs.query"
	MethodCreateTab        = "tabs.create"
	MethodRemoveTabs       = "tabs.remove"
	MethodGetCurrentWindow = "windows.getCurrent"
	MethodFocusWindow      = "windows.focus"
)

// Request is a frame sent to the extension.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Response is a frame received from the extension.
type Response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

var errNotConnected = stderrors.New("browser extension not connected")

// Bridge is a Collaborator backed by a browser extension connected over a
// WebSocket. Only the most recent connection is used.
type Bridge struct {
	timeout        time.Duration
	originPatterns []string
	logger         *log.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]pendingCall
	onEvent func(event string)
}

// pendingCall is an unanswered request and the connection it was sent on.
type pendingCall struct {
	conn *websocket.Conn
	ch   chan Response
}

var _ Collaborator = (*Bridge)(nil)

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithOriginPatterns sets the origins allowed to connect (host patterns, as
// accepted by websocket.AcceptOptions).
func WithOriginPatterns(patterns []string) BridgeOption {
	return func(b *Bridge) { b.originPatterns = patterns }
}

// WithBridgeLogger sets the logger.
func WithBridgeLogger(l *log.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithEventHandler is called with "connected" and "disconnected".
func WithEventHandler(fn func(event string)) BridgeOption {
	return func(b *Bridge) { b.onEvent = fn }
}

// NewBridge returns a bridge with no extension attached.
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		timeout: 5 * time.Second,
		logger:  log.Default(),
		pending: map[string]pendingCall{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connected reports whether an extension is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// ServeHTTP upgrades the request and serves the extension until it disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: b.originPatterns})
	if err != nil {
		b.logger.Printf("[bridge] accept failed: %v", err)
		return
	}

	b.mu.Lock()
	prev := b.conn
	b.conn = conn
	if prev != nil {
		b.failPendingLocked(prev)
	}
	b.mu.Unlock()
	if prev != nil {
		prev.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
	}
	b.logger.Printf("[bridge] extension connected from %s", r.RemoteAddr)
	b.emit("connected")

	err = b.readLoop(r.Context(), conn)

	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.failPendingLocked(conn)
	b.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
	b.logger.Printf("[bridge] extension disconnected: %v", err)
	b.emit("disconnected")
}

// failPendingLocked ends every call waiting on conn. The replacement
// connection never answers them. Callers hold b.mu.
func (b *Bridge) failPendingLocked(conn *websocket.Conn) {
	for id, p := range b.pending {
		if p.conn == conn {
			close(p.ch)
			delete(b.pending, id)
		}
	}
}

func (b *Bridge) emit(event string) {
	if b.onEvent != nil {
		b.onEvent(event)
	}
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var resp Response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			return err
		}
		b.mu.Lock()
		p, ok := b.pending[resp.ID]
		ok = ok && p.conn == conn
		if ok {
			delete(b.pending, resp.ID)
		}
		b.mu.Unlock()
		if !ok {
			b.logger.Printf("[bridge] dropping response for unknown request %q", resp.ID)
			continue
		}
		p.ch <- resp
	}
}

// call sends method and decodes the result into out (which may be nil).
func (b *Bridge) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	id := uuid.NewString()
	ch := make(chan Response, 1)

	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return errors.NewCollaboratorUnavailable(errNotConnected)
	}
	b.pending[id] = pendingCall{conn: conn, ch: ch}
	b.mu.Unlock()

	forget := func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}

	if err := wsjson.Write(ctx, conn, Request{ID: id, Method: method, Params: params}); err != nil {
		forget()
		return errors.NewCollaboratorUnavailable(fmt.Errorf("%s: %w", method, err))
	}

	select {
	case <-ctx.Done():
		forget()
		return errors.NewCollaboratorUnavailable(fmt.Errorf("%s: %w", method, ctx.Err()))
	case resp, ok := <-ch:
		if !ok {
			return errors.NewCollaboratorUnavailable(fmt.Errorf("%s: %w", method, errNotConnected))
		}
		if !resp.OK {
			return errors.NewCollaboratorUnavailable(fmt.Errorf("%s: %s", method, resp.Error))
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return errors.NewCollaboratorUnavailable(fmt.Errorf("%s: decode result: %w", method, err))
			}
		}
		return nil
	}
}

func (b *Bridge) QueryOpenTabs(ctx context.Context, windowID int) ([]OpenTab, error) {
	var out []OpenTab
	err := b.call(ctx, MethodQueryTabs, map[string]any{"windowId": windowID}, &out)
	return out, err
}

func (b *Bridge) CreateTab(ctx context.Context, url string, active bool) (OpenTab, error) {
	var out OpenTab
	err := b.call(ctx, MethodCreateTab, map[string]any{"url": url, "active": active}, &out)
	return out, err
}

func (b *Bridge) RemoveTabs(ctx context.Context, ids []int) error {
	return b.call(ctx, MethodRemoveTabs, map[string]any{"tabIds": ids}, nil)
}

func (b *Bridge) CurrentWindow(ctx context.Context) (Window, error) {
	var out Window
	err := b.call(ctx, MethodGetCurrentWindow, nil, &out)
	return out, err
}

func (b *Bridge) FocusWindow(ctx context.Context, windowID int) error {
	return b.call(ctx, MethodFocusWindow, map[string]any{"windowId": windowID, "focused": true}, nil)
}
