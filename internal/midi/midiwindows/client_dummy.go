//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI input client for non-Windows systems.
func NewMIDIClient(options *contracts.PerformerOptions) (contracts.InputClient, error) {
	options.Logger.Info("Using dummy MIDI input client for non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

// ListDevices reports that winmm input is unavailable.
func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, fmt.Errorf("%w: winmm is not available on this platform", ErrNoMIDIDevices)
}

// SelectDevice reports that winmm input is unavailable.
func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client", m.logger.Field().Int("deviceID", deviceID))
	return fmt.Errorf("%w: winmm is not available on this platform", ErrInvalidMIDIDevice)
}

// StartCapture closes eventChannel, since no event will ever arrive.
func (m *dummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
	if eventChannel != nil {
		close(eventChannel)
	}
}

// Stop does nothing.
func (m *dummyMIDIClient) Stop() error {
	return nil
}
