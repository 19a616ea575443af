package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"meeting-agent-relay/internal/protocol"
)

// relayStub is a websocket endpoint that records every text frame it reads
// and hands out the live connections so tests can kill them.
type relayStub struct {
	server   *httptest.Server
	frames   chan string
	conns    chan *websocket.Conn
	upgrader websocket.Upgrader
}

func newRelayStub(t *testing.T) *relayStub {
	t.Helper()
	s := &relayStub{
		frames: make(chan string, 64),
		conns:  make(chan *websocket.Conn, 4),
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.frames <- string(frame)
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *relayStub) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *relayStub) nextFrame(t *testing.T) protocol.Envelope {
	t.Helper()
	select {
	case frame := <-s.frames:
		env, err := protocol.Decode([]byte(frame))
		if err != nil {
			t.Fatalf("received undecodable frame %q: %v", frame, err)
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return protocol.Envelope{}
	}
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("manager never reached state %v (currently %v)", want, m.State())
}

func TestSend_QueuesWhileDisconnected(t *testing.T) {
	// No server, no Start: everything must queue and Send must not block.
	m := New(Config{URL: "ws://127.0.0.1:1/ws", ReconnectDelay: 10 * time.Millisecond})

	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		go func(n int) {
			m.Send(protocol.Envelope{Type: "joined", Data: map[string]any{"n": n}})
			close(done)
		}(i)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Send blocked while disconnected")
		}
	}

	if got := m.QueueDepth(); got != 3 {
		t.Errorf("expected queue depth 3, got %d", got)
	}
	if got := m.State(); got != StateDisconnected {
		t.Errorf("expected DISCONNECTED before Start, got %v", got)
	}
}

func TestDrain_FIFOAfterConnect(t *testing.T) {
	stub := newRelayStub(t)
	m := New(Config{URL: stub.wsURL(), ReconnectDelay: 20 * time.Millisecond})

	// Enqueue before any connection exists.
	for i := 0; i < 5; i++ {
		m.Send(protocol.Envelope{Type: "participantJoined", DisplayName: fmt.Sprintf("user-%d", i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	for i := 0; i < 5; i++ {
		env := stub.nextFrame(t)
		want := fmt.Sprintf("user-%d", i)
		if env.DisplayName != want {
			t.Fatalf("frame %d: expected %q, got %q", i, want, env.DisplayName)
		}
		if env.LocalTS == 0 {
			t.Errorf("frame %d: expected _localTs to be stamped", i)
		}
	}

	waitForState(t, m, StateReady)
	if got := m.QueueDepth(); got != 0 {
		t.Errorf("expected empty queue after drain, got depth %d", got)
	}
}

func TestReconnect_NoLossNoDuplicates(t *testing.T) {
	stub := newRelayStub(t)
	m := New(Config{URL: stub.wsURL(), ReconnectDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	waitForState(t, m, StateReady)

	m.Send(protocol.Envelope{Type: "participantJoined", DisplayName: "m1"})
	m.Send(protocol.Envelope{Type: "participantJoined", DisplayName: "m2"})
	if got := stub.nextFrame(t).DisplayName; got != "m1" {
		t.Fatalf("expected m1, got %q", got)
	}
	if got := stub.nextFrame(t).DisplayName; got != "m2" {
		t.Fatalf("expected m2, got %q", got)
	}

	// Kill the connection server-side and wait for the manager to notice.
	conn := <-stub.conns
	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for m.State() == StateReady && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.State() == StateReady {
		t.Fatal("manager never noticed the dropped connection")
	}

	// Sends during the outage must queue and survive the reconnect.
	for i := 3; i <= 5; i++ {
		m.Send(protocol.Envelope{Type: "participantJoined", DisplayName: fmt.Sprintf("m%d", i)})
	}

	for i := 3; i <= 5; i++ {
		want := fmt.Sprintf("m%d", i)
		if got := stub.nextFrame(t).DisplayName; got != want {
			t.Fatalf("after reconnect: expected %q, got %q", want, got)
		}
	}

	// No duplicates of anything already delivered.
	select {
	case frame := <-stub.frames:
		t.Fatalf("unexpected extra frame after drain: %s", frame)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestOnEvent_ReceivesServerPush(t *testing.T) {
	stub := newRelayStub(t)

	got := make(chan protocol.Envelope, 1)
	m := New(Config{
		URL:            stub.wsURL(),
		ReconnectDelay: 20 * time.Millisecond,
		OnEvent: func(env protocol.Envelope) {
			got <- env
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	waitForState(t, m, StateReady)

	conn := <-stub.conns
	push := `{"type":"transcript","speakerName":"Alice","text":"hello there"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(push)); err != nil {
		t.Fatalf("server push failed: %v", err)
	}
	// An invalid frame in between must be dropped without killing the read loop.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("server push failed: %v", err)
	}

	select {
	case env := <-got:
		if env.Type != protocol.TypeTranscript || env.Text != "hello there" {
			t.Errorf("unexpected event: %+v", env)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pushed event")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateReady, "READY"},
		{State(99), "UNKNOWN(99)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
