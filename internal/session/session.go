// Package session drives the record and playback lifecycle around the
// reminder ledger: Idle -> Recording -> TranscriptPending -> Idle, and
// Idle -> Playing -> Idle. Recording and playback are mutually exclusive.
package session

import (
	"context"
	"time"
)

// State is the controller's current phase.
type State int

const (
	Idle State = iota
	Recording
	TranscriptPending
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case TranscriptPending:
		return "transcript_pending"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Active reports whether audio is flowing (recording or playing).
func (s State) Active() bool {
	return s == Recording || s == Playing
}

// Transition is published to subscribers on every state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Outcome reports how a recording ended once its transcript was handled.
type Outcome struct {
	RecordID   string
	AudioFile  string
	Transcript string
	AlarmTime  string // empty unless Err is nil
	Err        error
}

// PlayRequest describes one playback.
type PlayRequest struct {
	SampleRate int
	BufferSize int
	Index      int
	AudioFile  string
	Path       string

	// Done must be called exactly once when playback ends, whether it ran
	// to the end, was stopped, or failed.
	Done func(error)
}

// Recorder captures audio into a file.
type Recorder interface {
	Start(ctx context.Context, path string) error
	Stop() error
	IsRecording() bool
}

// Player plays a recorded file. Play starts playback and returns; the end
// of playback is reported through PlayRequest.Done.
type Player interface {
	Play(ctx context.Context, req PlayRequest) error
	Stop() error
	IsPlaying() bool
}

// Transcriber turns a recorded file into text. final reports whether the
// text is the recognizer's final result.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (text string, final bool, err error)
}

// Store is the reminder log as seen by the controller.
type Store interface {
	Begin(ctx context.Context, audioFile string) (id string, err error)
	Finalize(ctx context.Context, id, transcript string) (alarmTime string, err error)
	Count(ctx context.Context) (int, error)
	AudioFileAt(ctx context.Context, index int) (string, error)
}

// AudioFileName names the recording started at t.
func AudioFileName(t time.Time) string {
	return t.Format("2006-01-02_150405.000") + ".pcm"
}
