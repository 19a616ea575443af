// Package storage persists audio chunk payloads as independent files in a
// flat directory, one file per chunk, no manifest, no retention.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExt is the fixed extension for persisted audio artifacts.
const DefaultExt = ".webm"

// fallbackSpeaker is the filename component used when the envelope carries
// no speaker name.
const fallbackSpeaker = "unknown"

// Store writes audio chunks under Dir using the layout
// <epoch-millis>_<speaker-or-unknown><ext>. Two chunks from the same
// speaker within the same millisecond collide; last write wins.
type Store struct {
	Dir     string
	Ext     string
	Enabled bool
}

// New creates a store rooted at dir. The directory is created on first use.
func New(dir string, enabled bool) *Store {
	return &Store{Dir: dir, Ext: DefaultExt, Enabled: enabled}
}

// Save writes payload verbatim to a freshly derived filename and returns
// the path. An empty speaker name falls back to "unknown".
func (s *Store) Save(speakerName string, payload []byte) (string, error) {
	if speakerName == "" {
		speakerName = fallbackSpeaker
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	ext := s.Ext
	if ext == "" {
		ext = DefaultExt
	}
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), sanitize(speakerName), ext)
	path := filepath.Join(s.Dir, name)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write chunk: %w", err)
	}
	return path, nil
}

// sanitize keeps speaker names filename-safe: anything outside letters,
// digits, dot, dash and underscore becomes an underscore.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
