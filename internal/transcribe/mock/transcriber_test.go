package mock

import (
	"context"
	"testing"
)

func TestTranscribe_CyclesUtterances(t *testing.T) {
	tr := New()
	ctx := context.Background()

	for i := 0; i < 2*len(Utterances); i++ {
		res, err := tr.Transcribe(ctx, "Alice", []byte{1, 2, 3})
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
		want := Utterances[i%len(Utterances)]
		if res.Text != want.Text {
			t.Errorf("call %d: expected %q, got %q", i, want.Text, res.Text)
		}
		if res.Confidence != want.Confidence {
			t.Errorf("call %d: expected confidence %v, got %v", i, want.Confidence, res.Confidence)
		}
	}
}

func TestTranscribe_EmptyChunkIsSilence(t *testing.T) {
	tr := New()

	res, err := tr.Transcribe(context.Background(), "Alice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "" {
		t.Errorf("expected empty result for empty chunk, got %q", res.Text)
	}
}
