package mididarwin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPacket(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		messages [][]byte
		rest     []byte
	}{
		{
			name:     "single note",
			data:     []byte{0x90, 0x3C, 0x40},
			messages: [][]byte{{0x90, 0x3C, 0x40}},
		},
		{
			name:     "note and program change",
			data:     []byte{0x91, 0x3C, 0x40, 0xC1, 0x05, 0x81, 0x3C, 0x00},
			messages: [][]byte{{0x91, 0x3C, 0x40}, {0xC1, 0x05}, {0x81, 0x3C, 0x00}},
		},
		{
			name:     "truncated",
			data:     []byte{0x90, 0x3C, 0x40, 0x80, 0x3C},
			messages: [][]byte{{0x90, 0x3C, 0x40}},
			rest:     []byte{0x80, 0x3C},
		},
		{
			name: "sysex",
			data: []byte{0xF0, 0x7E, 0xF7},
			rest: []byte{0xF0, 0x7E, 0xF7},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			messages, rest := splitPacket(tc.data)
			assert.Equal(t, tc.messages, messages)
			assert.Equal(t, tc.rest, rest)
		})
	}
}
