// Package filesource extracts a time-ordered sequence of note events from a
// Standard MIDI File. Container decoding is delegated to gomidi's smf package.
package filesource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/leandrodaf/midiperformer/internal/message"
	"gitlab.com/gomidi/midi/v2/smf"
)

const metaStatus = 0xFF

// ErrParse is returned when a stream is not a readable Standard MIDI File.
var ErrParse = errors.New("malformed MIDI file")

// Event is a note message at an absolute position in a file.
type Event struct {
	Time    time.Duration // Offset from the start of the file, after tempo changes.
	Ticks   int64         // Absolute position in ticks.
	Track   int           // Index of the track the event came from.
	Message message.Message
}

// Handle is a decoded file. It is safe for concurrent use; nothing mutates it
// after Open.
type Handle struct {
	smf *smf.SMF
}

// Open reads r to the end and decodes it. Read failures, truncated chunks and
// decoder failures (including decoder panics on corrupt input) are reported as
// ErrParse.
func Open(r io.Reader) (h *Handle, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading stream: %v", ErrParse, err)
	}
	if err := checkChunks(data); err != nil {
		return nil, err
	}

	// the decoder panics on some corrupt inputs
	defer func() {
		if rec := recover(); rec != nil {
			h = nil
			err = fmt.Errorf("%w: %v", ErrParse, rec)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Handle{smf: s}, nil
}

// Events flattens the note on/off events of every track into a single
// sequence ordered by time. Events at the same tick keep track order, then
// their order within the track. Every other kind of event is dropped.
//
// Each call builds a new slice; the result does not depend on earlier calls.
func (h *Handle) Events() []Event {
	var events []Event
	for trackNo, track := range h.smf.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)

			m, ok := noteMessage(ev.Message)
			if !ok {
				continue
			}
			events = append(events, Event{
				Ticks:   absTicks,
				Track:   trackNo,
				Message: m,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Ticks < events[j].Ticks
	})

	for i := range events {
		events[i].Time = h.timeAt(events[i].Ticks)
	}
	return events
}

func noteMessage(raw smf.Message) (message.Message, bool) {
	if len(raw) == 0 || raw[0] == metaStatus {
		return message.Message{}, false
	}
	m, err := message.Decode(raw)
	if err != nil || !m.IsNoteMessage() {
		return message.Message{}, false
	}
	return m, true
}

func (h *Handle) timeAt(ticks int64) time.Duration {
	micros := h.smf.TimeAt(ticks)
	if micros < 0 {
		return 0
	}
	return time.Duration(micros) * time.Microsecond
}

// Tracks returns the number of tracks in the file.
func (h *Handle) Tracks() int {
	return len(h.smf.Tracks)
}

// TimeFormat describes the file's time division.
func (h *Handle) TimeFormat() string {
	if h.smf.TimeFormat == nil {
		return "unknown"
	}
	return h.smf.TimeFormat.String()
}

// Duration returns the time of the last event of the longest track.
func (h *Handle) Duration() time.Duration {
	var last int64
	for _, track := range h.smf.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
		}
		if absTicks > last {
			last = absTicks
		}
	}
	return h.timeAt(last)
}
