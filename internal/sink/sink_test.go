package sink

import (
	"sync"
	"testing"

	"github.com/leandrodaf/midiperformer/internal/logger"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogging(logger.NewWithCore(core))

	s.Dispatch(contracts.Command{Pressed: true, Pitch: 60, Channel: 0, Velocity: 64})
	s.Dispatch(contracts.Command{Pressed: false, Pitch: 60, Channel: 0})

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Note On", logs.All()[0].Message)
	assert.Equal(t, "Note Off", logs.All()[1].Message)
	assert.Equal(t, int64(1), logs.All()[0].ContextMap()["channel"])
	assert.Equal(t, int64(60), logs.All()[0].ContextMap()["pitch"])
}

func TestFanoutAndFunc(t *testing.T) {
	var first, second Recorder
	var calls int
	f := Fanout{&first, &second, Func(func(contracts.Command) { calls++ })}

	cmd := contracts.Command{Pressed: true, Pitch: 64, Channel: 2, Velocity: 100}
	f.Dispatch(cmd)

	assert.Equal(t, []contracts.Command{cmd}, first.Commands())
	assert.Equal(t, []contracts.Command{cmd}, second.Commands())
	assert.Equal(t, 1, calls)
}

func TestRecorderConcurrentDispatch(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(pitch int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Dispatch(contracts.Command{Pressed: j%2 == 0, Pitch: pitch})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 800, r.Len())
	assert.Empty(t, r.Sounding())
}

func TestRecorderSounding(t *testing.T) {
	var r Recorder
	r.Dispatch(contracts.Command{Pressed: true, Pitch: 60})
	r.Dispatch(contracts.Command{Pressed: true, Pitch: 64, Channel: 1})
	r.Dispatch(contracts.Command{Pressed: false, Pitch: 60})

	assert.Equal(t, map[[2]int]bool{{1, 64}: true}, r.Sounding())
}
