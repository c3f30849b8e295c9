// Package syncer arbitrates between local edits and external updates of
// the same document.
//
// The host pushes the full document text whenever the file changes on
// disk, including when the change is our own save coming back. Replacing
// the editor content with such an echo would destroy the caret and any
// armed state for no visible difference, so the tracker remembers what it
// just sent and drops matching updates arriving within a short window.
package syncer

import (
	"time"

	"github.com/md4h/prosedown/internal/helpers"
	"github.com/md4h/prosedown/pkg/clock"
)

// Decision classifies one inbound content update.
type Decision int

const (
	// Apply: genuinely new content, replace the editor document.
	Apply Decision = iota
	// Identical: already showing this text, nothing to do.
	Identical
	// Echo: our own save reflected back within the window, skip it.
	Echo
)

func (d Decision) String() string {
	switch d {
	case Apply:
		return "apply"
	case Identical:
		return "identical"
	case Echo:
		return "echo"
	}
	return "unknown"
}

// DefaultWindow bounds how long a sent document is considered echoable.
const DefaultWindow = 2 * time.Second

// Tracker holds a single slot: the hash of the last content pushed out
// and when. One slot suffices because saves are serialized by the
// single-threaded core, a newer save simply overwrites the slot.
type Tracker struct {
	window   time.Duration
	lastHash string
	lastAt   time.Time
}

func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{window: window}
}

// TrackSent records content we just pushed to the host.
func (t *Tracker) TrackSent(content string) {
	t.lastHash = helpers.ContentHash(content)
	t.lastAt = clock.Now()
}

// Classify decides what to do with an inbound update given the current
// editor content.
func (t *Tracker) Classify(incoming, current string) Decision {
	if incoming == current {
		return Identical
	}
	if t.lastHash != "" &&
		helpers.ContentHash(incoming) == t.lastHash &&
		clock.Now().Sub(t.lastAt) <= t.window {
		return Echo
	}
	return Apply
}

// Reset forgets the slot, e.g. when a different document is opened.
func (t *Tracker) Reset() {
	t.lastHash = ""
	t.lastAt = time.Time{}
}
