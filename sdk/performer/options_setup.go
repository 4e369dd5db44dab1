package performer

import (
	"errors"
	"fmt"
	"math"

	"github.com/leandrodaf/midiperformer/internal/logger"
	"github.com/leandrodaf/midiperformer/internal/sink"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// ErrInvalidOption is returned when an option holds a value outside its range.
var ErrInvalidOption = errors.New("invalid performer option")

// applyDefaultOptions sets default values for PerformerOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify PerformerOptions.
//
// Returns:
//   - contracts.PerformerOptions: The finalized options with defaults applied.
//   - error: An error if an option is out of range.
func applyDefaultOptions(opts ...contracts.Option) (contracts.PerformerOptions, error) {
	options := &contracts.PerformerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	if options.Sink == nil {
		options.Sink = sink.NewLogging(options.Logger) // Dry run: log the commands
	}
	if options.DefaultVelocity == 0 {
		options.DefaultVelocity = contracts.DefaultVelocity
	}
	if options.Speed == 0 {
		options.Speed = 1
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO MIDI Performer"}
	}

	if options.Speed < 0 || math.IsNaN(options.Speed) || math.IsInf(options.Speed, 0) {
		return *options, fmt.Errorf("%w: speed %v", ErrInvalidOption, options.Speed)
	}
	if options.DefaultVelocity < 0 || options.DefaultVelocity > 127 {
		return *options, fmt.Errorf("%w: default velocity %d", ErrInvalidOption, options.DefaultVelocity)
	}
	for _, ch := range options.ChannelFilter {
		if ch < 0 || ch > 15 {
			return *options, fmt.Errorf("%w: channel %d", ErrInvalidOption, ch)
		}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
