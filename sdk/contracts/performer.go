package contracts

import (
	"context"
	"fmt"
	"io"
)

// Command is the engine-facing instruction to start or stop sounding a note.
type Command struct {
	Pressed  bool // Pressed is true to start the note and false to stop it.
	Pitch    int  // MIDI note number (0-127).
	Channel  int  // MIDI channel (0-15).
	Velocity int  // Note velocity (0-127).
}

func (c Command) String() string {
	action := "release"
	if c.Pressed {
		action = "press"
	}
	return fmt.Sprintf("%s ch=%d pitch=%d vel=%d", action, c.Channel, c.Pitch, c.Velocity)
}

// Sink is the performance engine that consumes commands.
//
// Dispatch is expected to return within real-time bounds. Callers in this
// module never invoke Dispatch concurrently.
type Sink interface {
	Dispatch(cmd Command)
}

// State is the playback state of a Performer.
type State int

const (
	// Idle means no file is playing. Live input is always accepted.
	Idle State = iota
	// Loading means a file is being decoded.
	Loading
	// Playing means file events are being dispatched on schedule.
	Playing
	// Stopped means playback was interrupted and sounding notes are being released.
	Stopped
	// Finished means every file event was dispatched.
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Performer drives a Sink from live input and from MIDI files.
type Performer interface {
	// Press starts a note immediately. The velocity defaults to the configured
	// default velocity when omitted.
	Press(pitch, channel int, velocity ...int) error
	// Release stops a note immediately.
	Release(pitch, channel int, velocity ...int) error
	// Input dispatches a raw note message immediately.
	Input(raw []byte) error

	// LoadAndPlay decodes a Standard MIDI File and starts playing it in the
	// background, stopping any file that is already playing.
	LoadAndPlay(ctx context.Context, r io.Reader) error
	// Stop interrupts playback and releases every note the file left sounding.
	Stop() error
	// Wait blocks until the current playback ends or ctx is done.
	Wait(ctx context.Context) error
	// State reports the current playback state.
	State() State

	// Close stops playback and releases the performer's resources.
	Close() error
}
