// Package message encodes, decodes and validates 3-byte MIDI channel-voice
// note messages.
//
// Encode narrows its arguments to the width of the wire fields instead of
// rejecting them: pitch and velocity keep their low 7 bits and channel keeps
// its low 4 bits, exactly as writing the raw bytes would.
package message

import (
	"errors"
	"fmt"
)

// Errors returned by the codec.
var (
	ErrInvalidMessageKind = errors.New("message is not a note on/off message")
	ErrMessageLength      = errors.New("invalid message length")
	ErrDataByte           = errors.New("data byte has the status bit set")
)

// Type is the high nibble of a status byte.
type Type byte

const (
	NoteOff Type = 0x80
	NoteOn  Type = 0x90
)

func (t Type) String() string {
	switch t {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	default:
		return fmt.Sprintf("Type(%#02x)", byte(t))
	}
}

const (
	statusMask  = 0xF0
	channelMask = 0x0F
	dataMask    = 0x7F
)

// Message is an immutable [status, data1, data2] triplet.
type Message [3]byte

// Encode builds a note message of type t. Values outside their MIDI range are
// narrowed, not rejected.
func Encode(t Type, pitch, channel, velocity int) Message {
	return Message{
		byte(t)&statusMask | byte(channel)&channelMask,
		byte(pitch) & dataMask,
		byte(velocity) & dataMask,
	}
}

// Decode wraps raw wire bytes. Note messages must be exactly three bytes with
// 7-bit data bytes. Any other message is kept as an opaque value holding at
// most its first three bytes; its accessors fail with ErrInvalidMessageKind.
func Decode(raw []byte) (Message, error) {
	var m Message
	if len(raw) == 0 {
		return m, fmt.Errorf("%w: empty message", ErrMessageLength)
	}
	copy(m[:], raw)

	if !m.IsNoteMessage() {
		return m, nil
	}
	if len(raw) != len(m) {
		return Message{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrMessageLength, m.Type(), len(m), len(raw))
	}
	if m[1]&^dataMask != 0 || m[2]&^dataMask != 0 {
		return Message{}, fmt.Errorf("%w: % 02x", ErrDataByte, raw)
	}
	return m, nil
}

// Type returns the message type held in the status byte.
func (m Message) Type() Type {
	return Type(m[0] & statusMask)
}

// Bytes returns a copy of the wire bytes.
func (m Message) Bytes() []byte {
	return []byte{m[0], m[1], m[2]}
}

// IsNoteMessage reports whether m is a note-on or note-off message.
func (m Message) IsNoteMessage() bool {
	t := m.Type()
	return t == NoteOn || t == NoteOff
}

// IsPressed reports whether m starts a note. A note-on with velocity 0 is a
// release.
func (m Message) IsPressed() (bool, error) {
	if err := m.checkNote(); err != nil {
		return false, err
	}
	return m.Type() == NoteOn && m[2] != 0, nil
}

// Channel returns the 0-based channel.
func (m Message) Channel() (int, error) {
	if err := m.checkNote(); err != nil {
		return 0, err
	}
	return int(m[0] & channelMask), nil
}

// Pitch returns the note number.
func (m Message) Pitch() (int, error) {
	if err := m.checkNote(); err != nil {
		return 0, err
	}
	return int(m[1]), nil
}

// Velocity returns the note velocity.
func (m Message) Velocity() (int, error) {
	if err := m.checkNote(); err != nil {
		return 0, err
	}
	return int(m[2]), nil
}

func (m Message) checkNote() error {
	if !m.IsNoteMessage() {
		return fmt.Errorf("%w: status %#02x", ErrInvalidMessageKind, m[0])
	}
	return nil
}

func (m Message) String() string {
	if !m.IsNoteMessage() {
		return fmt.Sprintf("Message(% 02x)", m[:])
	}
	return fmt.Sprintf("%s ch=%d k=%02x v=%02x", m.Type(), m[0]&channelMask, m[1], m[2])
}
