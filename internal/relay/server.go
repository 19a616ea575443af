// Package relay implements the server side of the meeting event relay: a
// websocket endpoint that accepts agent connections, decodes typed JSON
// envelopes, and dispatches them by type.
package relay

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"meeting-agent-relay/internal/observability/metrics"
	"meeting-agent-relay/internal/protocol"
)

// Server accepts agent websocket connections and runs one read loop per
// connection. Connections share nothing beyond the dispatcher.
type Server struct {
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	log        zerolog.Logger
	metrics    *metrics.Metrics
	connSeq    atomic.Uint64
}

// NewServer creates a relay server around the given dispatcher.
func NewServer(dispatcher *Dispatcher) *Server {
	return &Server{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			// Agents connect from their own processes, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log.With().Str("component", "relay").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// ServeHTTP upgrades the request and serves the connection until the agent
// goes away. Reconnection is the agent's job; the server never dials out.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	s.serve(r.Context(), conn)
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) {
	connID := s.connSeq.Add(1)
	logger := s.log.With().Uint64("conn", connID).Logger()
	logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("agent connected")
	s.metrics.RecordConnectionOpen()

	sess := &session{conn: conn}
	defer func() {
		conn.Close()
		s.metrics.RecordConnectionClose()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			logger.Info().Err(err).Msg("connection closed")
			return
		}
		s.metrics.FramesTotal.Inc()

		env, derr := protocol.Decode(frame)
		if derr != nil {
			// Malformed frames are dropped; the connection stays open.
			s.metrics.FramesInvalid.Inc()
			logger.Warn().Err(derr).Str("frame", truncate(string(frame), 256)).Msg("dropping invalid frame")
			continue
		}

		s.dispatcher.Dispatch(ctx, env, sess)
	}
}

// session is the per-connection responder. Writes are serialized because a
// future handler may respond off the read goroutine.
type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Respond writes an envelope back to the agent on this connection.
func (s *session) Respond(env protocol.Envelope) error {
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
