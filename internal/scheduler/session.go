package scheduler

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/midiperformer/internal/command"
	"github.com/leandrodaf/midiperformer/internal/filesource"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

type noteKey struct {
	channel int
	pitch   int
}

// session is one file playback. The playback goroutine owns the cursor and
// the sounding set; other goroutines only read position and wait on done.
type session struct {
	id       string
	events   []filesource.Event
	speed    float64
	cancel   context.CancelFunc
	done     chan struct{}
	position atomic.Int64
	sounding map[noteKey]contracts.Command
}

func newSession(events []filesource.Event, speed float64, cancel context.CancelFunc) *session {
	return &session{
		id:       uuid.NewString(),
		events:   events,
		speed:    speed,
		cancel:   cancel,
		done:     make(chan struct{}),
		sounding: make(map[noteKey]contracts.Command),
	}
}

// due returns the wall-clock time an event must be dispatched at.
func (s *session) due(start time.Time, ev filesource.Event) time.Time {
	return start.Add(time.Duration(float64(ev.Time) / s.speed))
}

func (s *session) track(cmd contracts.Command) {
	key := noteKey{channel: cmd.Channel, pitch: cmd.Pitch}
	if cmd.Pressed {
		s.sounding[key] = cmd
	} else {
		delete(s.sounding, key)
	}
}

// releases returns a note-off for every sounding note, ordered by channel
// then pitch, and clears the sounding set.
func (s *session) releases() []contracts.Command {
	keys := make([]noteKey, 0, len(s.sounding))
	for k := range s.sounding {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].pitch < keys[j].pitch
	})

	cmds := make([]contracts.Command, 0, len(keys))
	for _, k := range keys {
		cmds = append(cmds, command.Release(s.sounding[k]))
		delete(s.sounding, k)
	}
	return cmds
}

// sleepUntil waits for t or for ctx to be done. It returns ctx's error if ctx
// is done, even when t has also passed.
func sleepUntil(ctx context.Context, t time.Time) error {
	if d := time.Until(t); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return ctx.Err()
}
