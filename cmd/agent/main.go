// The agent joins a meeting room and relays its events to the relay
// server. The meeting itself is driven by an external collaborator; this
// binary wires the channel manager to an event source and logs transcript
// events the server pushes back. With -events it replays a JSON-lines file
// of envelopes; without it, it sends a small built-in demo sequence.
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meeting-agent-relay/internal/app"
	"meeting-agent-relay/internal/channel"
	"meeting-agent-relay/internal/config"
	"meeting-agent-relay/internal/observability/logging"
	"meeting-agent-relay/internal/protocol"
	"meeting-agent-relay/internal/token"
)

func main() {
	cfg := config.Load()

	serverURL := flag.String("server", cfg.Agent.ServerURL, "Relay server websocket URL")
	tokenEndpoint := flag.String("token-endpoint", cfg.Agent.TokenEndpoint, "Join token endpoint")
	userName := flag.String("user", cfg.Agent.UserName, "Display name to join with")
	eventsFile := flag.String("events", cfg.Agent.EventsFile, "JSON-lines file of envelopes to replay")
	interval := flag.Duration("interval", 200*time.Millisecond, "Delay between replayed envelopes")
	flag.Parse()

	application := app.New("meeting-agent", cfg)
	logger := application.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Token failure is terminal for the session: log and do not join.
	tok, err := token.Fetch(ctx, *tokenEndpoint, *userName)
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", *tokenEndpoint).Msg("token fetch failed, not joining")
	}
	logger.Info().Int("tokenLength", len(tok)).Msg("join token acquired")

	transcripts := logging.WithComponent("transcripts")
	mgr := channel.New(channel.Config{
		URL:            *serverURL,
		ReconnectDelay: cfg.Agent.ReconnectDelay,
		OnEvent: func(env protocol.Envelope) {
			if env.Type == protocol.TypeTranscript {
				transcripts.Info().
					Str("speakerName", env.SpeakerName).
					Str("text", env.Text).
					Msg("transcript")
				return
			}
			transcripts.Debug().Str("type", env.Type).Msg("server event")
		},
	})
	mgr.Start(ctx)

	go func() {
		if err := produceEvents(ctx, mgr, *eventsFile, *userName, *interval); err != nil {
			logger.Error().Err(err).Msg("event source failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	application.Shutdown()
}

// produceEvents feeds the channel manager. This stands in for the meeting
// page pushing envelopes through the collaborator boundary.
func produceEvents(ctx context.Context, mgr *channel.Manager, path, userName string, interval time.Duration) error {
	if path == "" {
		demoSequence(mgr, userName)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := logging.WithComponent("replay")
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := protocol.Decode(line)
		if err != nil {
			logger.Warn().Err(err).Str("line", string(line)).Msg("skipping invalid envelope")
			continue
		}
		mgr.Send(env)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
	return scanner.Err()
}

func demoSequence(mgr *channel.Manager, userName string) {
	mgr.Send(protocol.Envelope{Type: protocol.TypeJoined})
	mgr.Send(protocol.Envelope{Type: protocol.TypeParticipantJoined, DisplayName: userName})
	mgr.Send(protocol.Envelope{
		Type:        protocol.TypeAudioChunk,
		SpeakerName: userName,
		Payload:     protocol.ByteSeq{1, 2, 3},
	})
}
