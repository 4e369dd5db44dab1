package performer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midiperformer/internal/midi/mididarwin"
	"github.com/leandrodaf/midiperformer/internal/midi/midiwindows"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// ErrUnsupportedOS is returned when live input is not available on the operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// inputInitializers maps OS names to live-input client initializers.
var inputInitializers = map[string]func(*contracts.PerformerOptions) (contracts.InputClient, error){
	"darwin":  mididarwin.NewMIDIClient,  // macOS (CoreMIDI) input.
	"windows": midiwindows.NewMIDIClient, // Windows (winmm) input.
}

// NewInputClient creates a live-input client for the current operating system.
// It applies the same defaults as NewPerformer.
//
// Returns ErrUnsupportedOS on systems other than macOS and Windows.
func NewInputClient(opts ...contracts.Option) (contracts.InputClient, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	if initializer, exists := inputInitializers[runtime.GOOS]; exists {
		return initializer(&options)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
