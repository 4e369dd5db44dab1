//go:build darwin
// +build darwin

package mididarwin

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid captures live input from CoreMIDI sources on macOS.
type ClientMid struct {
	logger          contracts.Logger
	eventChannel    atomic.Value               // chan contracts.MIDI; replaced on Stop.
	client          coremidi.Client            // CoreMIDI client instance.
	inputPort       coremidi.InputPort         // Input port receiving packets.
	portConn        internalPortConnection     // Connection to the selected source.
	midiEventFilter *contracts.MIDIEventFilter // Filter for captured commands.
	mu              sync.Mutex                 // Guards portConn and capturing.
	capturing       bool                       // Whether captured messages are forwarded.
	wg              sync.WaitGroup             // In-flight packet handlers.
}

// NewMIDIClient creates a CoreMIDI input client.
func NewMIDIClient(options *contracts.PerformerOptions) (contracts.InputClient, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI input client created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &ClientMid{
		logger:          options.Logger,
		client:          client,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices lists the available CoreMIDI sources.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source with the given index, replacing any
// previous connection.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %d", ErrInvalidMIDIDevice, deviceID)
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.inputPort, err = coremidi.NewInputPort(m.client, "Performer Input", m.handlePacket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))
	return nil
}

// handlePacket forwards every complete channel message of a packet.
func (m *ClientMid) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		return
	}

	messages, rest := splitPacket(packet.Data)
	if len(rest) > 0 {
		m.logger.Warn(ErrIncompleteMIDIPacket.Error(), m.logger.Field().Int("bytes", len(rest)))
	}

	now := uint64(time.Now().UTC().UnixNano())
	for _, msg := range messages {
		if !m.midiEventFilter.Allows(msg[0]) {
			continue
		}
		event := contracts.MIDI{Timestamp: now, Status: msg[0], Data1: msg[1]}
		if len(msg) > 2 {
			event.Data2 = msg[2]
		}
		select {
		case eventChannel <- event:
		default:
			m.logger.Warn("Event buffer full; dropping MIDI event")
		}
	}
}

// StartCapture begins forwarding captured messages to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		m.logger.Warn("Capture already started; switching event channel")
	}
	m.eventChannel.Store(eventChannel)
	m.capturing = true
	m.logger.Info("Starting MIDI event capture")
}

// Stop disconnects the source and waits for in-flight packets. It is safe to
// call more than once.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.capturing && m.portConn == nil {
		return nil
	}
	m.capturing = false

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	// A typed nil channel stops forwarding without a closed-channel send.
	m.eventChannel.Store((chan contracts.MIDI)(nil))
	m.wg.Wait()

	m.logger.Info("MIDI capture stopped")
	return nil
}
