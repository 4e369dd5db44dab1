// Package command turns decoded MIDI messages into engine commands.
package command

import (
	"fmt"

	"github.com/leandrodaf/midiperformer/internal/message"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
)

// FromMessage translates a note message into a Command. Messages of any other
// kind fail with message.ErrInvalidMessageKind.
func FromMessage(m message.Message) (contracts.Command, error) {
	switch m.Type() {
	case message.NoteOn, message.NoteOff:
		return fromNote(m)
	default:
		return contracts.Command{}, fmt.Errorf("translate %s: %w", m, message.ErrInvalidMessageKind)
	}
}

func fromNote(m message.Message) (contracts.Command, error) {
	pressed, err := m.IsPressed()
	if err != nil {
		return contracts.Command{}, err
	}
	pitch, err := m.Pitch()
	if err != nil {
		return contracts.Command{}, err
	}
	channel, err := m.Channel()
	if err != nil {
		return contracts.Command{}, err
	}
	velocity, err := m.Velocity()
	if err != nil {
		return contracts.Command{}, err
	}

	return contracts.Command{
		Pressed:  pressed,
		Pitch:    pitch,
		Channel:  channel,
		Velocity: velocity,
	}, nil
}

// Release returns the command that stops the note cmd started.
func Release(cmd contracts.Command) contracts.Command {
	return contracts.Command{
		Pressed:  false,
		Pitch:    cmd.Pitch,
		Channel:  cmd.Channel,
		Velocity: 0,
	}
}
