package voc

import (
	"bytes"

	"github.com/torvik/gotaudio/gotaudio/bits"
)

// SectionFunc receives one raw VOC block: its type and payload bytes.
// The terminator is delivered as (0, nil).
type SectionFunc func(blockType uint8, payload []byte)

// WalkSections calls fn for every block in a VOC stream without decoding
// the audio. The game uses this to watch for section boundaries while a
// sound is queued. Malformed data stops the walk silently.
func WalkSections(data []byte, fn SectionFunc) {
	if fn == nil {
		return
	}

	pos := 0
	if len(data) >= 26 && bytes.HasPrefix(data, headerSignature) {
		pos = int(bits.LE16(data[20:]))
		if pos >= len(data) {
			return
		}
	}

	for pos < len(data) {
		blockType := data[pos]
		pos++
		if blockType == blockTerminator {
			fn(0, nil)
			return
		}

		if pos+3 > len(data) {
			return
		}
		blockLen := int(bits.LE24(data[pos:]))
		pos += 3
		if pos+blockLen > len(data) {
			return
		}

		fn(blockType, data[pos:pos+blockLen])
		pos += blockLen
	}
}
