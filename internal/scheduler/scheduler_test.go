package scheduler

import (
	"bytes"
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leandrodaf/midiperformer/internal/filesource"
	"github.com/leandrodaf/midiperformer/internal/logger"
	"github.com/leandrodaf/midiperformer/internal/message"
	"github.com/leandrodaf/midiperformer/internal/sink"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, s contracts.Sink, opts ...func(*Config)) *Scheduler {
	t.Helper()
	cfg := Config{
		Logger:          logger.NewNopLogger(),
		Sink:            s,
		DefaultVelocity: contracts.DefaultVelocity,
		Speed:           1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	sched, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sched.Close() })
	return sched
}

// midiFile writes a file at 120 BPM with 100 ticks per quarter, so one tick
// lasts 5ms.
func midiFile(t *testing.T, notes ...filesource.Note) *bytes.Reader {
	t.Helper()
	w := filesource.NewSimpleWriter(100, 120)
	for _, n := range notes {
		w.Add(n)
	}
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func press(pitch, channel, velocity int) contracts.Command {
	return contracts.Command{Pressed: true, Pitch: pitch, Channel: channel, Velocity: velocity}
}

func release(pitch, channel int) contracts.Command {
	return contracts.Command{Pitch: pitch, Channel: channel}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Logger: logger.NewNopLogger(), Speed: 1})
	assert.ErrorIs(t, err, ErrNoSink)

	for _, speed := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = New(Config{Logger: logger.NewNopLogger(), Sink: &sink.Recorder{}, Speed: speed})
		assert.ErrorIs(t, err, ErrInvalidSpeed, "speed %v", speed)
	}
}

func TestPanickingSinkReleasesGate(t *testing.T) {
	var calls atomic.Int32
	s := newTestScheduler(t, sink.Func(func(contracts.Command) {
		if calls.Add(1) == 1 {
			panic("engine failure")
		}
	}))

	assert.Panics(t, func() { _ = s.Press(60, 0) })

	done := make(chan error, 1)
	go func() { done <- s.Press(62, 0) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked after a sink panic")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestLiveInputDispatchesImmediately(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.Press(60, 0))
	require.NoError(t, s.Release(60, 0))
	require.NoError(t, s.Press(64, 3, 100))
	require.NoError(t, s.Input([]byte{0x93, 64, 0}))

	assert.Equal(t, []contracts.Command{
		press(60, 0, 64),
		{Pressed: false, Pitch: 60, Channel: 0, Velocity: 64},
		press(64, 3, 100),
		release(64, 3),
	}, rec.Commands())
	assert.Equal(t, contracts.Idle, s.State())
}

func TestInputRejectsNonNoteMessages(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	assert.ErrorIs(t, s.Input([]byte{0xB0, 7, 100}), message.ErrInvalidMessageKind)
	assert.ErrorIs(t, s.Input([]byte{0x90, 60}), message.ErrMessageLength)
	assert.Zero(t, rec.Len())
}

func TestLoadAndPlayMalformedFile(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	err := s.LoadAndPlay(context.Background(), bytes.NewReader([]byte("MThd\x00\x00")))

	assert.ErrorIs(t, err, filesource.ErrParse)
	assert.Equal(t, contracts.Idle, s.State())
	assert.Zero(t, rec.Len())
}

func TestMalformedFileLeavesPlayingSessionAlone(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Pitch: 60, Velocity: 90, Length: 1000},
	)))
	require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, time.Millisecond)

	err := s.LoadAndPlay(context.Background(), bytes.NewReader(nil))

	assert.ErrorIs(t, err, filesource.ErrParse)
	assert.Equal(t, contracts.Playing, s.State())
	assert.Equal(t, 1, rec.Len())
}

func TestPlaysFileToTheEnd(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Track: 1, Start: 0, Length: 4, Channel: 0, Pitch: 60, Velocity: 90},
		filesource.Note{Track: 2, Start: 2, Length: 4, Channel: 1, Pitch: 64, Velocity: 80},
		filesource.Note{Track: 1, Start: 4, Length: 2, Channel: 0, Pitch: 67, Velocity: 70},
	)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	assert.Equal(t, []contracts.Command{
		press(60, 0, 90),
		press(64, 1, 80),
		release(60, 0),
		press(67, 0, 70),
		release(67, 0),
		release(64, 1),
	}, rec.Commands())
	assert.Equal(t, contracts.Idle, s.State())
	assert.NoError(t, s.Err())
}

func TestPlaybackRespectsEventTimes(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	start := time.Now()
	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 20, Length: 20, Pitch: 60, Velocity: 90},
	)))
	require.NoError(t, s.Wait(context.Background()))

	// the note-off is due 200ms in
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, 2, rec.Len())
}

func TestStopReleasesSoundingNotes(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 0, Length: 2000, Pitch: 60, Velocity: 90},
		filesource.Note{Start: 0, Length: 2000, Pitch: 64, Velocity: 90},
		filesource.Note{Start: 1000, Length: 10, Pitch: 67, Velocity: 90},
	)))
	require.Eventually(t, func() bool { return rec.Len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, contracts.Playing, s.State())

	require.NoError(t, s.Stop())

	assert.Equal(t, []contracts.Command{
		press(60, 0, 90),
		press(64, 0, 90),
		release(60, 0),
		release(64, 0),
	}, rec.Commands())
	assert.Equal(t, contracts.Idle, s.State())
	assert.NoError(t, s.Err())
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Wait(context.Background()))
	assert.Zero(t, rec.Len())
}

func TestContextCancellationStopsPlayback(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.LoadAndPlay(ctx, midiFile(t,
		filesource.Note{Start: 0, Length: 2000, Pitch: 48, Channel: 2, Velocity: 50},
	)))
	require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, s.Wait(context.Background()))

	assert.Equal(t, []contracts.Command{press(48, 2, 50), release(48, 2)}, rec.Commands())
	assert.Equal(t, contracts.Idle, s.State())
}

func TestLoadingReplacesCurrentSession(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 0, Length: 2000, Pitch: 60, Velocity: 90},
	)))
	require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 0, Length: 2, Pitch: 72, Velocity: 100},
	)))
	require.NoError(t, s.Wait(context.Background()))

	assert.Equal(t, []contracts.Command{
		press(60, 0, 90),
		release(60, 0),
		press(72, 0, 100),
		release(72, 0),
	}, rec.Commands())
}

func TestChannelFilterAndSpeed(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec, func(c *Config) {
		c.Channels = contracts.ChannelFilter{9}
		c.Speed = 4
	})

	start := time.Now()
	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 0, Length: 200, Channel: 0, Pitch: 60, Velocity: 90},
		filesource.Note{Start: 0, Length: 200, Channel: 9, Pitch: 36, Velocity: 120},
	)))
	require.NoError(t, s.Wait(context.Background()))

	// 200 ticks last one second at normal speed
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, []contracts.Command{press(36, 9, 120), release(36, 9)}, rec.Commands())
}

// exclusiveSink fails the test if two Dispatch calls overlap.
type exclusiveSink struct {
	inFlight   atomic.Int32
	overlapped atomic.Bool
	count      atomic.Int32
}

func (e *exclusiveSink) Dispatch(contracts.Command) {
	if e.inFlight.Add(1) > 1 {
		e.overlapped.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	e.count.Add(1)
	e.inFlight.Add(-1)
}

func TestLiveInputDuringPlaybackIsSerialized(t *testing.T) {
	es := &exclusiveSink{}
	s := newTestScheduler(t, es)

	var notes []filesource.Note
	for i := 0; i < 50; i++ {
		notes = append(notes, filesource.Note{Start: uint32(i), Length: 1, Pitch: 40 + i, Velocity: 80})
	}
	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t, notes...)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			assert.NoError(t, s.Press(90, 15))
			assert.NoError(t, s.Release(90, 15))
		}
	}()

	require.NoError(t, s.Wait(context.Background()))
	<-done

	assert.False(t, es.overlapped.Load())
	assert.Equal(t, int32(100+200), es.count.Load())
}

func TestAbortOnUntranslatableEvent(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	events := []filesource.Event{
		{Message: message.Encode(message.NoteOn, 60, 0, 90)},
		{Message: message.Message{0xB0, 7, 100}},
		{Message: message.Encode(message.NoteOff, 60, 0, 0)},
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(events, 1, cancel)

	s.mu.Lock()
	s.session = sess
	s.state = contracts.Playing
	s.mu.Unlock()

	s.run(ctx, sess)

	assert.ErrorIs(t, s.Err(), ErrSessionAborted)
	assert.Equal(t, contracts.Idle, s.State())
	assert.Equal(t, []contracts.Command{press(60, 0, 90), release(60, 0)}, rec.Commands())
}

func TestProgress(t *testing.T) {
	rec := &sink.Recorder{}
	s := newTestScheduler(t, rec)

	dispatched, total := s.Progress()
	assert.Zero(t, dispatched)
	assert.Zero(t, total)

	require.NoError(t, s.LoadAndPlay(context.Background(), midiFile(t,
		filesource.Note{Start: 0, Length: 2000, Pitch: 60, Velocity: 90},
	)))
	require.Eventually(t, func() bool {
		dispatched, total := s.Progress()
		return dispatched == 1 && total == 2
	}, time.Second, time.Millisecond)
}
