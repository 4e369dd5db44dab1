// Package scheduler performs live input and MIDI files on an engine sink.
//
// Live input is dispatched immediately from the caller's goroutine. A file is
// played by a single background goroutine per session that sleeps until each
// event is due. Both paths share one dispatch gate, so the sink never sees two
// concurrent Dispatch calls.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/leandrodaf/midiperformer/internal/command"
	"github.com/leandrodaf/midiperformer/internal/filesource"
	"github.com/leandrodaf/midiperformer/internal/message"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

var (
	ErrSessionAborted = errors.New("playback session aborted")
	ErrInvalidSpeed   = errors.New("playback speed must be positive and finite")
	ErrNoSink         = errors.New("no sink configured")
)

// Config configures a Scheduler.
type Config struct {
	Logger          contracts.Logger
	Sink            contracts.Sink
	DefaultVelocity int
	Speed           float64
	Channels        contracts.ChannelFilter
}

// Scheduler implements contracts.Performer.
type Scheduler struct {
	logger          contracts.Logger
	sink            contracts.Sink
	defaultVelocity int
	speed           float64
	channels        contracts.ChannelFilter

	gate sync.Mutex // held for the duration of every sink.Dispatch
	ctl  sync.Mutex // serializes session start and stop

	mu      sync.Mutex
	state   contracts.State
	session *session
	err     error
}

// New creates an idle Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	if cfg.Speed <= 0 || math.IsNaN(cfg.Speed) || math.IsInf(cfg.Speed, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, cfg.Speed)
	}
	return &Scheduler{
		logger:          cfg.Logger,
		sink:            cfg.Sink,
		defaultVelocity: cfg.DefaultVelocity,
		speed:           cfg.Speed,
		channels:        cfg.Channels,
		state:           contracts.Idle,
	}, nil
}

// Press dispatches a note-on immediately.
func (s *Scheduler) Press(pitch, channel int, velocity ...int) error {
	return s.live(message.Encode(message.NoteOn, pitch, channel, s.velocity(velocity)))
}

// Release dispatches a note-off immediately.
func (s *Scheduler) Release(pitch, channel int, velocity ...int) error {
	return s.live(message.Encode(message.NoteOff, pitch, channel, s.velocity(velocity)))
}

// Input decodes a raw live message and dispatches it immediately. Only note
// messages are accepted.
func (s *Scheduler) Input(raw []byte) error {
	m, err := message.Decode(raw)
	if err != nil {
		return err
	}
	return s.live(m)
}

func (s *Scheduler) velocity(velocity []int) int {
	if len(velocity) > 0 {
		return velocity[0]
	}
	return s.defaultVelocity
}

func (s *Scheduler) live(m message.Message) error {
	cmd, err := command.FromMessage(m)
	if err != nil {
		return err
	}
	s.dispatch(cmd)
	return nil
}

func (s *Scheduler) dispatch(cmd contracts.Command) {
	s.send(cmd)
	s.logger.Debug("Command dispatched",
		s.logger.Field().Bool("pressed", cmd.Pressed),
		s.logger.Field().Int("pitch", cmd.Pitch),
		s.logger.Field().Int("channel", cmd.Channel),
		s.logger.Field().Int("velocity", cmd.Velocity))
}

// LoadAndPlay decodes r and plays it. A session that is already playing keeps
// playing while r is decoded; it is stopped only once the new file is known to
// be valid. When decoding fails the error wraps filesource.ErrParse and the
// scheduler is left as it was.
//
// Playback ends early when ctx is done, with the same cleanup as Stop.
func (s *Scheduler) LoadAndPlay(ctx context.Context, r io.Reader) error {
	s.mu.Lock()
	loading := s.session == nil && s.state == contracts.Idle
	if loading {
		s.setStateLocked(contracts.Loading)
	}
	s.mu.Unlock()

	h, err := filesource.Open(r)
	if err != nil {
		s.mu.Lock()
		if loading && s.state == contracts.Loading {
			s.setStateLocked(contracts.Idle)
		}
		s.mu.Unlock()

		s.logger.Error("Failed to load MIDI file", s.logger.Field().Error("error", err))
		return err
	}
	return s.Play(ctx, h)
}

// Play stops any current session and starts playing h.
func (s *Scheduler) Play(ctx context.Context, h *filesource.Handle) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.stopLocked()

	var events []filesource.Event
	for _, ev := range h.Events() {
		channel, err := ev.Message.Channel()
		if err == nil && !s.channels.Allows(channel) {
			continue
		}
		events = append(events, ev)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	sess := newSession(events, s.speed, cancel)

	s.mu.Lock()
	s.session = sess
	s.err = nil
	s.setStateLocked(contracts.Playing)
	s.mu.Unlock()

	s.logger.Info("Playback started",
		s.logger.Field().String("session", sess.id),
		s.logger.Field().Int("events", len(events)),
		s.logger.Field().Int("tracks", h.Tracks()),
		s.logger.Field().String("timeFormat", h.TimeFormat()),
		s.logger.Field().Duration("duration", h.Duration()),
		s.logger.Field().Float64("speed", s.speed))

	go s.run(sessionCtx, sess)
	return nil
}

func (s *Scheduler) run(ctx context.Context, sess *session) {
	defer close(sess.done)
	defer sess.cancel()

	start := time.Now()
	for i, ev := range sess.events {
		if err := sleepUntil(ctx, sess.due(start, ev)); err != nil {
			s.abort(sess, nil)
			return
		}

		cmd, err := command.FromMessage(ev.Message)
		if err != nil {
			s.abort(sess, fmt.Errorf("%w: event %d at %v: %v", ErrSessionAborted, i, ev.Time, err))
			return
		}
		s.dispatch(cmd)
		sess.track(cmd)
		sess.position.Store(int64(i + 1))
	}

	// files missing some note-offs still end silent
	for _, cmd := range sess.releases() {
		s.dispatch(cmd)
	}
	s.finish(sess, contracts.Finished, nil)
}

// abort releases every note the session left sounding and ends it.
func (s *Scheduler) abort(sess *session, err error) {
	s.mu.Lock()
	if s.session == sess {
		s.setStateLocked(contracts.Stopped)
	}
	s.mu.Unlock()

	for _, cmd := range sess.releases() {
		s.dispatch(cmd)
	}
	s.finish(sess, contracts.Stopped, err)
}

func (s *Scheduler) finish(sess *session, final contracts.State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != sess {
		return
	}
	s.setStateLocked(final)
	s.session = nil
	s.err = err
	s.setStateLocked(contracts.Idle)

	fields := []contracts.Field{
		s.logger.Field().String("session", sess.id),
		s.logger.Field().String("result", final.String()),
		s.logger.Field().Int64("dispatched", sess.position.Load()),
	}
	if err != nil {
		s.logger.Error("Playback aborted", append(fields, s.logger.Field().Error("error", err))...)
		return
	}
	s.logger.Info("Playback ended", fields...)
}

// Stop interrupts the current session, if any, and returns once every note it
// left sounding has been released.
func (s *Scheduler) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.stopLocked()
	return nil
}

func (s *Scheduler) stopLocked() {
	s.mu.Lock()
	sess := s.session
	if sess != nil && s.state == contracts.Playing {
		s.setStateLocked(contracts.Stopped)
	}
	s.mu.Unlock()

	if sess == nil {
		return
	}
	sess.cancel()
	<-sess.done
}

// Wait blocks until the current session ends or ctx is done. It returns the
// error that aborted the session, if any.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		select {
		case <-sess.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err()
}

// State reports the current playback state.
func (s *Scheduler) State() contracts.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that aborted the last session, or nil.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Progress reports how many events of the current session were dispatched.
func (s *Scheduler) Progress() (dispatched, total int) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return 0, 0
	}
	return int(sess.position.Load()), len(sess.events)
}

// Close stops playback.
func (s *Scheduler) Close() error {
	return s.Stop()
}

// send hands cmd to the sink under the gate. The gate is released even when
// the sink panics.
func (s *Scheduler) send(cmd contracts.Command) {
	s.gate.Lock()
	defer s.gate.Unlock()
	s.sink.Dispatch(cmd)
}

func (s *Scheduler) setStateLocked(state contracts.State) {
	if s.state == state {
		return
	}
	s.logger.Debug("Playback state changed",
		s.logger.Field().String("from", s.state.String()),
		s.logger.Field().String("to", state.String()))
	s.state = state
}
