//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// DummyMIDIClient stands in for the CoreMIDI client on other systems.
type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.PerformerOptions) (contracts.InputClient, error) {
	options.Logger.Info("Using dummy MIDI input client for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, fmt.Errorf("%w: CoreMIDI is not available on this platform", ErrNoMIDIDevices)
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client", m.logger.Field().Int("deviceID", deviceID))
	return fmt.Errorf("%w: CoreMIDI is not available on this platform", ErrInvalidMIDIDevice)
}

// StartCapture closes eventChannel, since no event will ever arrive.
func (m *DummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
	if eventChannel != nil {
		close(eventChannel)
	}
}

func (m *DummyMIDIClient) Stop() error {
	return nil
}
