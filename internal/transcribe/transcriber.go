// Package transcribe defines the interface for transcription providers.
// Only a mock provider ships with the relay; real speech-to-text inference
// is downstream work and lives behind this interface.
package transcribe

import "context"

// Result is one transcription of an audio chunk.
type Result struct {
	Text       string
	Confidence float64
}

// Transcriber turns an audio chunk into text.
type Transcriber interface {
	// Transcribe processes one chunk. A nil error with Text == "" means
	// the chunk produced no speech; callers emit nothing for it.
	Transcribe(ctx context.Context, speakerName string, audio []byte) (Result, error)
}
