package filesource

import (
	"encoding/binary"
	"fmt"
)

const (
	chunkHeaderLen = 8
	headerDataLen  = 6
)

// checkChunks walks the chunk layout of a Standard MIDI File and fails when a
// chunk is cut short or fewer tracks are present than the header declares.
// The decoder accepts a partial last track, which would lose its note-offs.
func checkChunks(data []byte) error {
	if len(data) < chunkHeaderLen+headerDataLen || string(data[:4]) != "MThd" {
		return fmt.Errorf("%w: missing MThd header", ErrParse)
	}
	headerLen := binary.BigEndian.Uint32(data[4:8])
	if headerLen < headerDataLen {
		return fmt.Errorf("%w: MThd length %d", ErrParse, headerLen)
	}
	declared := int(binary.BigEndian.Uint16(data[10:12]))

	tracks := 0
	for offset := 0; offset < len(data); {
		if len(data)-offset < chunkHeaderLen {
			return fmt.Errorf("%w: chunk header cut short at byte %d", ErrParse, offset)
		}
		kind := string(data[offset : offset+4])
		length := uint64(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		if uint64(len(data)-offset-chunkHeaderLen) < length {
			return fmt.Errorf("%w: %s chunk at byte %d truncated (%d of %d bytes)",
				ErrParse, kind, offset, len(data)-offset-chunkHeaderLen, length)
		}
		if kind == "MTrk" {
			tracks++
		}
		offset += chunkHeaderLen + int(length)
	}

	if tracks < declared {
		return fmt.Errorf("%w: header declares %d tracks, found %d", ErrParse, declared, tracks)
	}
	return nil
}
