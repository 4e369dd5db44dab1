package performer

import (
	"github.com/leandrodaf/midiperformer/internal/scheduler"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// NewPerformer creates a performer with the specified options.
// It applies default options and initializes the scheduler.
//
// opts ...contracts.Option: A variadic list of option functions to customize the performer.
//
// Returns:
//   - contracts.Performer: An idle performer, ready for live input and file playback.
//   - error: An error, if the options are invalid.
func NewPerformer(opts ...contracts.Option) (contracts.Performer, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	return scheduler.New(scheduler.Config{
		Logger:          options.Logger,
		Sink:            options.Sink,
		DefaultVelocity: options.DefaultVelocity,
		Speed:           options.Speed,
		Channels:        options.ChannelFilter,
	})
}
