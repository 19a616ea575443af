// Package mock provides a canned transcriber for running the relay without
// a speech backend. It cycles through sample utterances so every audio
// chunk yields plausible text.
package mock

import (
	"context"
	"sync"

	"meeting-agent-relay/internal/transcribe"
)

// Utterances are the canned results the mock cycles through.
var Utterances = []transcribe.Result{
	{Text: "I think we should move the launch to next week", Confidence: 0.94},
	{Text: "Can everyone see my screen", Confidence: 0.97},
	{Text: "Let's take that discussion offline", Confidence: 0.91},
	{Text: "Sorry I was on mute", Confidence: 0.98},
	{Text: "We are still waiting on the numbers from finance", Confidence: 0.89},
}

// Transcriber implements transcribe.Transcriber with canned responses.
type Transcriber struct {
	mu   sync.Mutex
	next int
}

// New creates a mock transcriber.
func New() *Transcriber {
	return &Transcriber{}
}

// Transcribe returns the next canned utterance. Empty chunks produce an
// empty result, mirroring a real backend hearing silence.
func (t *Transcriber) Transcribe(_ context.Context, _ string, audio []byte) (transcribe.Result, error) {
	if len(audio) == 0 {
		return transcribe.Result{}, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	res := Utterances[t.next%len(Utterances)]
	t.next++
	return res, nil
}
