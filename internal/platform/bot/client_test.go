package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"joingate/internal/platform/config"
	"joingate/pkg/testutil"
)

// =============================================================================
// Gateway Client Test Suite
// =============================================================================
// Runs the client against an in-process websocket gateway that answers
// actions and can push events.

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	gateway *fakeGateway
	client  *Client
	cancel  context.CancelFunc
	events  chan []byte
	runDone chan error
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

type fakeGateway struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	auth     string
	respond  func(actionFrame) map[string]any
	received []actionFrame
	ready    chan struct{}
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.conn = conn
	g.auth = r.Header.Get("Authorization")
	g.mu.Unlock()
	close(g.ready)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame actionFrame
		if json.Unmarshal(data, &frame) != nil {
			continue
		}
		g.mu.Lock()
		g.received = append(g.received, frame)
		respond := g.respond
		g.mu.Unlock()
		if respond == nil {
			continue
		}
		resp := respond(frame)
		resp["echo"] = frame.Echo
		g.push(resp)
	}
}

func (g *fakeGateway) push(v any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.conn.WriteJSON(v)
}

func (s *ClientSuite) SetupTest() {
	s.gateway = &fakeGateway{ready: make(chan struct{})}
	s.server = httptest.NewServer(s.gateway)
	s.events = make(chan []byte, 8)
	s.runDone = make(chan error, 1)

	s.client = NewClient(config.Bot{
		URL:         "ws" + strings.TrimPrefix(s.server.URL, "http"),
		AccessToken: "tok",
	}, WithClientLogger(testutil.DiscardLogger()), WithCallTimeout(2*time.Second))

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() {
		s.runDone <- s.client.Run(ctx, func(_ context.Context, raw []byte) { s.events <- raw })
	}()

	select {
	case <-s.gateway.ready:
	case <-time.After(5 * time.Second):
		s.FailNow("client never connected")
	}
	s.Eventually(s.client.Connected, 2*time.Second, 10*time.Millisecond)
}

func (s *ClientSuite) TearDownTest() {
	s.cancel()
	select {
	case err := <-s.runDone:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("Run did not return after cancel")
	}
	s.server.Close()
}

func (s *ClientSuite) TestBearerToken() {
	s.gateway.mu.Lock()
	defer s.gateway.mu.Unlock()
	s.Equal("Bearer tok", s.gateway.auth)
}

func (s *ClientSuite) TestCallReturnsData() {
	s.gateway.mu.Lock()
	s.gateway.respond = func(f actionFrame) map[string]any {
		return map[string]any{"status": "ok", "retcode": 0, "data": map[string]any{"action": f.Action}}
	}
	s.gateway.mu.Unlock()

	data, err := s.client.Call(context.Background(), "get_group_member_info", map[string]any{"group_id": 1})

	s.Require().NoError(err)
	s.JSONEq(`{"action":"get_group_member_info"}`, string(data))
}

func (s *ClientSuite) TestCallFailureStatus() {
	s.gateway.mu.Lock()
	s.gateway.respond = func(actionFrame) map[string]any {
		return map[string]any{"status": "failed", "retcode": 100, "wording": "not found"}
	}
	s.gateway.mu.Unlock()

	_, err := s.client.Call(context.Background(), "set_group_add_request", nil)

	var actionErr *ActionError
	s.Require().ErrorAs(err, &actionErr)
	s.Equal(100, actionErr.Retcode)
	s.Equal("not found", actionErr.Message)
}

func (s *ClientSuite) TestCallTimesOutWithoutResponse() {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.client.Call(ctx, "send_group_msg", nil)

	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ClientSuite) TestEventsReachHandler() {
	s.gateway.push(map[string]any{"post_type": "notice", "notice_type": "group_request", "group_id": 1, "user_id": 2})

	select {
	case raw := <-s.events:
		req, ok, err := ParseJoinRequest(raw)
		s.Require().NoError(err)
		s.True(ok)
		s.EqualValues(2, req.UserID)
	case <-time.After(2 * time.Second):
		s.Fail("event not delivered")
	}
}
