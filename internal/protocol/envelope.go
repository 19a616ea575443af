// Package protocol defines the JSON event envelope exchanged between the
// meeting agent and the relay server, one object per text frame.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Known envelope types. Anything else falls through to the relay's
// unknown-type handler.
const (
	TypeParticipantsInfo       = "participantsInfo"
	TypeParticipantJoined      = "participantJoined"
	TypeParticipantLeft        = "participantLeft"
	TypeDisplayNameChange      = "displayNameChange"
	TypeDominantSpeakerChanged = "dominantSpeakerChanged"
	TypeAudioChunk             = "audioChunk"
	TypeJoined                 = "joined"

	// TypeTranscript is pushed back from the relay to the agent after an
	// audio chunk is transcribed.
	TypeTranscript = "transcript"
)

// Fallback values for optional fields, resolved here rather than at use
// sites.
const (
	FallbackDisplayName = "Unknown"
	FallbackSpeaker     = "unknown"
)

// ErrMissingType means the frame parsed as JSON but carried no type tag.
var ErrMissingType = errors.New("envelope missing type field")

// Envelope is the unit of communication. Type selects the handler; all
// other fields are optional and depend on the type.
type Envelope struct {
	Type        string         `json:"type"`
	Data        map[string]any `json:"data,omitempty"`
	ID          string         `json:"id,omitempty"`
	SpeakerID   string         `json:"speakerId,omitempty"`
	SpeakerName string         `json:"speakerName,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Payload     ByteSeq        `json:"payload,omitempty"`
	Text        string         `json:"text,omitempty"`
	TS          int64          `json:"ts,omitempty"`
	LocalTS     int64          `json:"_localTs,omitempty"`
}

// Decode parses one wire frame. A frame that is not valid JSON, or that has
// no type field, is rejected; callers log and drop it, the connection stays
// open.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// Encode serializes the envelope as a single JSON object with no trailing
// newline.
func Encode(env Envelope) ([]byte, error) {
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return frame, nil
}

// DisplayNameOrDefault returns the participant display name, looking at the
// top-level field first and then inside data, falling back to "Unknown".
func (e Envelope) DisplayNameOrDefault() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	if v, ok := e.Data["displayName"].(string); ok && v != "" {
		return v
	}
	return FallbackDisplayName
}

// SpeakerNameOrDefault returns the speaker name or the given fallback.
func (e Envelope) SpeakerNameOrDefault(fallback string) string {
	if e.SpeakerName != "" {
		return e.SpeakerName
	}
	if v, ok := e.Data["speakerName"].(string); ok && v != "" {
		return v
	}
	return fallback
}

// DominantSpeakerID returns the dominant speaker id from the top-level
// speakerId field or the nested data.id field, whichever is set.
func (e Envelope) DominantSpeakerID() string {
	if e.SpeakerID != "" {
		return e.SpeakerID
	}
	if v, ok := e.Data["id"].(string); ok {
		return v
	}
	return ""
}

// ParticipantID returns the participant id from the top-level id field or
// the nested data.id field.
func (e Envelope) ParticipantID() string {
	if e.ID != "" {
		return e.ID
	}
	if v, ok := e.Data["id"].(string); ok {
		return v
	}
	return ""
}
