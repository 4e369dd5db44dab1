package filesource

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Note is a note written by SimpleWriter, positioned in ticks.
type Note struct {
	Track    int
	Start    uint32
	Length   uint32
	Channel  int
	Pitch    int
	Velocity int
}

// SimpleWriter builds a small Standard MIDI File from notes. Track 0 carries
// the tempo.
type SimpleWriter struct {
	ticksPerQuarter uint16
	bpm             float64
	notes           []Note
}

func NewSimpleWriter(ticksPerQuarter uint16, bpm float64) *SimpleWriter {
	return &SimpleWriter{ticksPerQuarter: ticksPerQuarter, bpm: bpm}
}

// Play adds a chord of keys at start, held for length ticks.
func (s *SimpleWriter) Play(track int, start, length uint32, channel, velocity int, keys ...int) {
	for _, key := range keys {
		s.Add(Note{Track: track, Start: start, Length: length, Channel: channel, Pitch: key, Velocity: velocity})
	}
}

func (s *SimpleWriter) Add(n Note) {
	s.notes = append(s.notes, n)
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

func (s *SimpleWriter) Write(w io.Writer) error {
	trackCount := 1
	for _, n := range s.notes {
		if n.Track+1 > trackCount {
			trackCount = n.Track + 1
		}
	}

	perTrack := make([][]timedMessage, trackCount)
	for _, n := range s.notes {
		ch, key := uint8(n.Channel), uint8(n.Pitch)
		perTrack[n.Track] = append(perTrack[n.Track],
			timedMessage{tick: n.Start, msg: midi.NoteOn(ch, key, uint8(n.Velocity))},
			timedMessage{tick: n.Start + n.Length, off: true, msg: midi.NoteOff(ch, key)},
		)
	}

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(s.ticksPerQuarter)

	for i, messages := range perTrack {
		// releases sort before presses on the same tick
		sort.SliceStable(messages, func(a, b int) bool {
			if messages[a].tick != messages[b].tick {
				return messages[a].tick < messages[b].tick
			}
			return messages[a].off && !messages[b].off
		})

		var track smf.Track
		if i == 0 {
			track.Add(0, smf.MetaTempo(s.bpm))
		}
		var last uint32
		for _, m := range messages {
			track.Add(m.tick-last, m.msg)
			last = m.tick
		}
		track.Close(0)

		if err := file.Add(track); err != nil {
			return fmt.Errorf("error adding track %d: %w", i, err)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}
