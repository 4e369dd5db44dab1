// Package sink provides engine sinks: a logging engine for dry runs, adapters,
// and a recorder.
package sink

import (
	"sync"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// Func adapts a function to contracts.Sink.
type Func func(cmd contracts.Command)

func (f Func) Dispatch(cmd contracts.Command) {
	f(cmd)
}

// Logging is an engine that logs every command instead of sounding it.
type Logging struct {
	logger contracts.Logger
}

func NewLogging(logger contracts.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Dispatch(cmd contracts.Command) {
	action := "Note Off"
	if cmd.Pressed {
		action = "Note On"
	}
	l.logger.Info(action,
		l.logger.Field().Int("channel", cmd.Channel+1),
		l.logger.Field().Int("pitch", cmd.Pitch),
		l.logger.Field().Int("velocity", cmd.Velocity))
}

// Fanout dispatches every command to each sink in order.
type Fanout []contracts.Sink

func (f Fanout) Dispatch(cmd contracts.Command) {
	for _, s := range f {
		s.Dispatch(cmd)
	}
}

// Recorder keeps every command it receives. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	commands []contracts.Command
}

func (r *Recorder) Dispatch(cmd contracts.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []contracts.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contracts.Command(nil), r.commands...)
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// Sounding returns the notes that were pressed and not yet released, keyed by
// channel and pitch.
func (r *Recorder) Sounding() map[[2]int]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sounding := make(map[[2]int]bool)
	for _, cmd := range r.commands {
		key := [2]int{cmd.Channel, cmd.Pitch}
		if cmd.Pressed {
			sounding[key] = true
		} else {
			delete(sounding, key)
		}
	}
	return sounding
}
