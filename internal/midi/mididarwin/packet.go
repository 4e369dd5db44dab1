package mididarwin

import "errors"

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

// channelMessageLength returns the wire length of a channel message with the
// given status, or 0 for system messages and data bytes.
func channelMessageLength(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	default:
		return 0
	}
}

// splitPacket cuts a CoreMIDI packet into channel messages. A packet can hold
// several messages back to back. Splitting stops at the first system message
// or truncated message; the unconsumed bytes are returned as rest.
func splitPacket(data []byte) (messages [][]byte, rest []byte) {
	for len(data) > 0 {
		n := channelMessageLength(data[0])
		if n == 0 || len(data) < n {
			return messages, data
		}
		messages = append(messages, data[:n])
		data = data[n:]
	}
	return messages, nil
}
