package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"meeting-agent-relay/internal/events"
	"meeting-agent-relay/internal/observability/metrics"
	"meeting-agent-relay/internal/protocol"
	"meeting-agent-relay/internal/storage"
	"meeting-agent-relay/internal/transcribe"
)

// Responder writes an envelope back to the agent that produced the frame
// being dispatched.
type Responder interface {
	Respond(env protocol.Envelope) error
}

// Dispatcher routes decoded envelopes to their handlers by type. It is
// process-wide and stateless between messages; every connection shares one
// instance.
type Dispatcher struct {
	store       *storage.Store
	transcriber transcribe.Transcriber
	publisher   *events.Publisher
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher. store, transcriber and publisher may
// each be nil; the audio chunk handler skips whatever is absent.
func NewDispatcher(store *storage.Store, transcriber transcribe.Transcriber, publisher *events.Publisher, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		transcriber: transcriber,
		publisher:   publisher,
		log:         logger,
		metrics:     metrics.DefaultMetrics,
	}
}

// Dispatch handles one envelope. Handlers never panic on missing optional
// fields and a handler failure never tears down the connection: persistence
// and transcription errors are fatal for that message only.
func (d *Dispatcher) Dispatch(ctx context.Context, env protocol.Envelope, rsp Responder) {
	d.countDispatch(env.Type)

	switch env.Type {
	case protocol.TypeParticipantsInfo:
		d.log.Info().Interface("roster", env.Data).Msg("participant roster")

	case protocol.TypeParticipantJoined:
		d.log.Info().Str("displayName", env.DisplayNameOrDefault()).Msg("participant joined")

	case protocol.TypeParticipantLeft:
		d.log.Info().Str("id", env.ParticipantID()).Msg("participant left")

	case protocol.TypeDisplayNameChange:
		d.log.Info().Interface("change", env.Data).Msg("display name changed")

	case protocol.TypeDominantSpeakerChanged:
		d.log.Info().Str("speakerId", env.DominantSpeakerID()).Msg("dominant speaker changed")

	case protocol.TypeAudioChunk:
		d.handleAudioChunk(ctx, env, rsp)

	case protocol.TypeJoined:
		d.log.Info().Msg("agent joined the room")

	default:
		d.log.Info().Str("type", env.Type).Msg("unknown event type")
	}
}

// countDispatch keeps the dispatch counter's label set bounded to the known
// types plus one bucket for everything else.
func (d *Dispatcher) countDispatch(eventType string) {
	switch eventType {
	case protocol.TypeParticipantsInfo, protocol.TypeParticipantJoined,
		protocol.TypeParticipantLeft, protocol.TypeDisplayNameChange,
		protocol.TypeDominantSpeakerChanged, protocol.TypeAudioChunk,
		protocol.TypeJoined:
		d.metrics.DispatchTotal.WithLabelValues(eventType).Inc()
	default:
		d.metrics.DispatchTotal.WithLabelValues("unknown").Inc()
	}
}

func (d *Dispatcher) handleAudioChunk(ctx context.Context, env protocol.Envelope, rsp Responder) {
	speaker := env.SpeakerNameOrDefault(protocol.FallbackSpeaker)
	d.log.Info().Str("speakerName", speaker).Int("bytes", len(env.Payload)).Msg("audio chunk received")
	d.metrics.AudioBytesReceived.Add(float64(len(env.Payload)))

	// The write is synchronous on purpose: the next frame on this
	// connection is not read until the chunk is on disk.
	if d.store != nil && d.store.Enabled {
		path, err := d.store.Save(speaker, env.Payload)
		if err != nil {
			d.metrics.PersistErrors.Inc()
			d.log.Error().Err(err).Str("speakerName", speaker).Msg("failed to persist audio chunk")
		} else {
			d.metrics.ChunksPersisted.Inc()
			d.log.Debug().Str("path", path).Msg("audio chunk persisted")
		}
	}

	if d.transcriber == nil {
		return
	}
	res, err := d.transcriber.Transcribe(ctx, speaker, env.Payload)
	if err != nil {
		d.metrics.TranscribeErrors.Inc()
		d.log.Warn().Err(err).Str("speakerName", speaker).Msg("transcription failed")
		return
	}
	if res.Text == "" {
		return
	}

	out := protocol.Envelope{
		Type:        protocol.TypeTranscript,
		SpeakerID:   env.SpeakerID,
		SpeakerName: env.SpeakerNameOrDefault(protocol.FallbackDisplayName),
		Text:        res.Text,
		TS:          time.Now().UnixMilli(),
	}

	if rsp != nil {
		if err := rsp.Respond(out); err != nil {
			d.log.Warn().Err(err).Msg("failed to push transcript to agent")
		}
	}
	d.metrics.TranscriptsEmitted.Inc()

	if d.publisher != nil {
		// Publish failures are logged inside the publisher; the frame is
		// already handled.
		_ = d.publisher.Publish(ctx, speaker, out)
	}
}
