package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"meeting-agent-relay/internal/observability/metrics"
	"meeting-agent-relay/internal/protocol"
)

// DefaultReconnectDelay is the fixed wait between reconnection attempts.
// No backoff, no jitter, no retry cap: the manager retries for as long as
// its context is alive.
const DefaultReconnectDelay = 2 * time.Second

var errPeerClosed = errors.New("connection closed by peer")

// Config holds channel manager configuration.
type Config struct {
	// URL is the relay server websocket endpoint (ws:// or wss://).
	URL string

	// ReconnectDelay overrides DefaultReconnectDelay when positive.
	ReconnectDelay time.Duration

	// OnEvent, when set, receives every envelope the server pushes back
	// on the channel (transcript responses). Called from the read loop.
	OnEvent func(protocol.Envelope)

	Logger *zerolog.Logger
}

// Manager owns the single transport connection and the outbound queue.
//
// Send never blocks and never fails: while the channel is READY the run
// loop drains the queue to the wire in FIFO order, and while it is not,
// envelopes pile up until the next READY transition. A queued entry leaves
// the head of the queue only after a successful transport write, so a
// transport that vanishes mid-drain loses nothing.
type Manager struct {
	url     string
	delay   time.Duration
	onEvent func(protocol.Envelope)
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	state State
	queue [][]byte // head at index 0, entries are pre-serialized frames

	// kick wakes the writer when Send enqueues while READY.
	kick chan struct{}
}

// New creates a channel manager. Call Start to begin connecting.
func New(cfg Config) *Manager {
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	logger := log.With().Str("component", "channel").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "channel").Logger()
	}
	return &Manager{
		url:     cfg.URL,
		delay:   delay,
		onEvent: cfg.OnEvent,
		log:     logger,
		metrics: metrics.DefaultMetrics,
		state:   StateDisconnected,
		kick:    make(chan struct{}, 1),
	}
}

// Start launches the connect/drain loop. It returns immediately; the loop
// runs until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

// Send enqueues an envelope for transmission. It returns immediately and
// reports nothing: transport errors are recovered internally and producers
// must assume the send always succeeds. FIFO order relative to other Send
// calls is preserved across reconnects.
func (m *Manager) Send(env protocol.Envelope) {
	if env.LocalTS == 0 {
		env.LocalTS = time.Now().UnixMilli()
	}
	frame, err := protocol.Encode(env)
	if err != nil {
		// Fire-and-forget: nothing to return the error to.
		m.log.Error().Err(err).Str("type", env.Type).Msg("dropping unencodable envelope")
		return
	}

	m.mu.Lock()
	m.queue = append(m.queue, frame)
	depth := len(m.queue)
	m.mu.Unlock()

	m.metrics.SendsQueued.Inc()
	m.metrics.QueueDepth.Set(float64(depth))

	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// QueueDepth returns the number of envelopes waiting for transmission.
func (m *Manager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// run dials, drains, and redials until ctx is cancelled. Exactly one dial
// attempt is in flight at any time.
func (m *Manager) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m.setState(StateConnecting)
		m.metrics.ReconnectsTotal.Inc()

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.url, nil)
		if err != nil {
			m.setState(StateDisconnected)
			m.log.Warn().Err(err).Str("url", m.url).
				Dur("retryIn", m.delay).Msg("connect failed")
			if !m.sleep(ctx) {
				return
			}
			continue
		}

		m.log.Info().Str("url", m.url).Int("queued", m.QueueDepth()).Msg("channel ready")

		readDone := make(chan struct{})
		go m.readLoop(conn, readDone)

		m.setState(StateReady)
		err = m.writeLoop(ctx, conn, readDone)

		m.setState(StateDisconnected)
		conn.Close()
		<-readDone

		if ctx.Err() != nil {
			return
		}
		m.log.Warn().Err(err).Int("queued", m.QueueDepth()).
			Dur("retryIn", m.delay).Msg("channel lost")
		if !m.sleep(ctx) {
			return
		}
	}
}

// writeLoop drains the queue head-first. The head entry is removed only
// after WriteMessage returns nil; on error it stays put for the next READY
// transition, so the drain can never drop or reorder entries.
func (m *Manager) writeLoop(ctx context.Context, conn *websocket.Conn, readDone <-chan struct{}) error {
	for {
		frame, ok := m.peek()
		if ok {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return err
			}
			m.pop()
			m.metrics.SendsTransmitted.Inc()
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-readDone:
			return errPeerClosed
		case <-m.kick:
		}
	}
}

func (m *Manager) peek() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	return m.queue[0], true
}

func (m *Manager) pop() {
	m.mu.Lock()
	m.queue = m.queue[1:]
	depth := len(m.queue)
	m.mu.Unlock()
	m.metrics.QueueDepth.Set(float64(depth))
}

// readLoop consumes frames the server pushes back. Invalid frames are
// logged and dropped; the connection stays open until the peer closes it.
func (m *Manager) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			m.log.Warn().Err(err).Str("frame", string(frame)).Msg("discarding invalid frame")
			continue
		}
		if m.onEvent != nil {
			m.onEvent(env)
		}
	}
}

// sleep waits one reconnect delay; false means the context ended first.
func (m *Manager) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.delay):
		return true
	}
}
