package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"joingate/internal/platform/config"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 20

	defaultCallTimeout = 10 * time.Second
	minBackoff         = time.Second
	maxBackoff         = 30 * time.Second
)

// ErrNotConnected is returned by Call while no session is established.
var ErrNotConnected = errors.New("gateway not connected")

// ActionError is a well-formed failure response from the gateway.
type ActionError struct {
	Action  string
	Retcode int
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("gateway action %s failed: retcode=%d %s", e.Action, e.Retcode, e.Message)
}

// EventHandler receives every gateway frame that is not an action response.
type EventHandler func(ctx context.Context, raw []byte)

type actionFrame struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

type responseFrame struct {
	Status  string          `json:"status"`
	Retcode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Echo    *string         `json:"echo"`
}

// Client is a reconnecting websocket session with a OneBot-style gateway.
// Calls are correlated with responses through the echo field; everything
// else read from the socket is handed to the EventHandler.
type Client struct {
	url         string
	token       string
	dialer      *websocket.Dialer
	logger      *slog.Logger
	callTimeout time.Duration

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan responseFrame
}

type ClientOption func(*Client)

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// NewClient prepares a client for cfg.URL. No connection is made until Run.
func NewClient(cfg config.Bot, opts ...ClientOption) *Client {
	c := &Client{
		url:         cfg.URL,
		token:       cfg.AccessToken,
		dialer:      websocket.DefaultDialer,
		logger:      slog.Default(),
		callTimeout: defaultCallTimeout,
		pending:     make(map[string]chan responseFrame),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run keeps a session open until ctx is cancelled, reconnecting with
// exponential backoff. Events are handled concurrently; Run waits for
// in-flight handlers before returning.
func (c *Client) Run(ctx context.Context, handle EventHandler) error {
	var handlers sync.WaitGroup
	defer handlers.Wait()

	backoff := minBackoff
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WarnContext(ctx, "gateway connect failed",
				"url", c.url,
				"retry_in", backoff,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		c.logger.InfoContext(ctx, "gateway connected", "url", c.url)
		err = c.serve(ctx, conn, handle, &handlers)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WarnContext(ctx, "gateway connection lost", "error", err)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return conn, nil
}

// serve owns conn until it fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, handle EventHandler, handlers *sync.WaitGroup) error {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()
		c.failPending()
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.writeMu.Lock()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				c.writeMu.Unlock()
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				c.writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				c.writeMu.Unlock()
				if err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return fmt.Errorf("read timeout: %w", err)
			}
			return err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if c.deliver(data) {
			continue
		}
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			handle(ctx, data)
		}()
	}
}

// deliver routes an action response to its waiting caller. Returns false for
// frames that are events.
func (c *Client) deliver(data []byte) bool {
	var resp responseFrame
	if err := json.Unmarshal(data, &resp); err != nil || resp.Echo == nil || resp.Status == "" {
		return false
	}
	c.pendingMu.Lock()
	ch, ok := c.pending[*resp.Echo]
	delete(c.pending, *resp.Echo)
	c.pendingMu.Unlock()
	if !ok {
		c.logger.Debug("dropping response for unknown echo", "echo", *resp.Echo)
		return true
	}
	ch <- resp
	return true
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for echo, ch := range c.pending {
		close(ch)
		delete(c.pending, echo)
	}
}

// Call sends one action and waits for its response, bounded by ctx and the
// client call timeout. Transport failures are not retried.
func (c *Client) Call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	echo := uuid.NewString()
	ch := make(chan responseFrame, 1)
	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
	}()

	frame, err := json.Marshal(actionFrame{Action: action, Params: params, Echo: echo})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", action, err)
	}
	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", action, err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("await %s: %w", action, ctx.Err())
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("await %s: %w", action, ErrNotConnected)
		}
		if resp.Status != "ok" && resp.Status != "async" {
			msg := resp.Wording
			if msg == "" {
				msg = resp.Message
			}
			return nil, &ActionError{Action: action, Retcode: resp.Retcode, Message: msg}
		}
		return resp.Data, nil
	}
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

// Health fails while the gateway session is down.
func (c *Client) Health(context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return nil
}
