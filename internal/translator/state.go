package translator

import "errors"

// State is the translator's position in the utterance lifecycle.
type State int

const (
	StateIdle State = iota
	StateThinking
	StateSpeaking
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when an utterance is already in flight. The
	// request is dropped.
	ErrBusy = errors.New("translator busy")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("translator closed")
)
