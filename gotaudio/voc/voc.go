package voc

import (
	"bytes"
	"errors"

	"github.com/torvik/gotaudio/gotaudio/bits"
)

// Creative Voice File decoder. The game's sound effects are VOC containers
// of 8 bit unsigned PCM; the decoder expands them into one contiguous
// signed 16 bit mono stream at the rate of the first sound block,
// resampling any block recorded at a different rate.
//
// Format reference: https://moddingwiki.shikadi.net/wiki/VOC_Format

// Block types.
const (
	blockTerminator = 0x00
	blockSoundData  = 0x01
	blockSoundCont  = 0x02
	blockSilence    = 0x03
	blockText       = 0x05
	blockRepeat     = 0x06
	blockEndRepeat  = 0x07
)

const codecPCMU8 = 0

// maxNestedRepeats bounds the repeat stack. Deeper nesting is tolerated
// but the excess frames are ignored.
const maxNestedRepeats = 8

var headerSignature = []byte("Creative Voice File\x1A")

var (
	ErrBadHeader       = errors.New("voc: header data offset out of range")
	ErrTruncated       = errors.New("voc: block extends past end of data")
	ErrCodec           = errors.New("voc: unsupported codec")
	ErrTimeConstant    = errors.New("voc: time constant yields zero rate")
	ErrUnmatchedRepeat = errors.New("voc: end-repeat without matching repeat")
	ErrNoSound         = errors.New("voc: no sound or silence blocks")
)

// Sound is a decoded VOC: a single mono PCM16 stream with one rate.
type Sound struct {
	PCM  []int16
	Rate uint32
}

// Frames returns the number of mono frames in the decoded stream.
func (s *Sound) Frames() uint32 {
	return uint32(len(s.PCM))
}

// rateForTimeConstant inverts the SoundBlaster DSP formula
// timeConstant = 256 - 1000000/rate. Returns 0 for a zero denominator.
func rateForTimeConstant(tc uint8) uint32 {
	denom := 256 - uint32(tc)
	if denom == 0 {
		return 0
	}
	return 1000000 / denom
}

type repeatFrame struct {
	jump      int
	remaining uint16
}

type decoder struct {
	data []byte
	pos  int

	timeConst uint8
	codec     uint8
	rate      uint32 // overall output rate, set by the first sound/silence block

	pcm []int16

	repeats [maxNestedRepeats]repeatFrame
	depth   int
}

// Decode expands a Creative Voice File into a single PCM16 mono stream.
func Decode(data []byte) (*Sound, error) {
	d := decoder{data: data, codec: 0xFF}

	if err := d.skipHeader(); err != nil {
		return nil, err
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	if d.rate == 0 {
		return nil, ErrNoSound
	}
	return &Sound{PCM: d.pcm, Rate: d.rate}, nil
}

// skipHeader jumps to the data offset embedded in the standard 26 byte
// header. Headerless data (raw block stream) starts at byte 0.
func (d *decoder) skipHeader() error {
	if len(d.data) < 26 || !bytes.HasPrefix(d.data, headerSignature) {
		return nil
	}
	ofs := int(bits.LE16(d.data[20:]))
	if ofs >= len(d.data) {
		return ErrBadHeader
	}
	d.pos = ofs
	return nil
}

func (d *decoder) run() error {
	for d.pos < len(d.data) {
		blockType := d.data[d.pos]
		d.pos++
		if blockType == blockTerminator {
			return nil
		}

		if d.pos+3 > len(d.data) {
			return ErrTruncated
		}
		blockLen := int(bits.LE24(d.data[d.pos:]))
		d.pos += 3
		if d.pos+blockLen > len(d.data) {
			return ErrTruncated
		}
		payload := d.data[d.pos : d.pos+blockLen]
		next := d.pos + blockLen

		jumped, err := d.block(blockType, payload, next)
		if err != nil {
			return err
		}
		if !jumped {
			d.pos = next
		}
	}
	return nil
}

// block processes one block. It reports whether a repeat jump replaced the
// normal advance to the following block.
func (d *decoder) block(blockType uint8, payload []byte, next int) (bool, error) {
	switch blockType {
	case blockSoundData:
		if len(payload) < 2 {
			return false, ErrTruncated
		}
		d.timeConst = payload[0]
		d.codec = payload[1]
		if d.codec != codecPCMU8 {
			return false, ErrCodec
		}
		return false, d.appendSamples(payload[2:])

	case blockSoundCont:
		if d.codec != codecPCMU8 {
			return false, ErrCodec
		}
		return false, d.appendSamples(payload)

	case blockSilence:
		if len(payload) < 3 {
			return false, ErrTruncated
		}
		duration := uint32(bits.LE16(payload)) + 1
		rate := rateForTimeConstant(payload[2])
		if rate == 0 {
			return false, ErrTimeConstant
		}
		if d.rate == 0 {
			d.rate = rate
		}
		d.appendSilence(duration, rate)
		return false, nil

	case blockText:
		return false, nil

	case blockRepeat:
		if len(payload) < 2 {
			return false, ErrTruncated
		}
		count := bits.LE16(payload)
		if count == 0xFFFF {
			// A 0xFFFF count means "repeat forever"; clamp so decode terminates.
			count = 0
		}
		if d.depth < maxNestedRepeats {
			d.repeats[d.depth] = repeatFrame{jump: next, remaining: count}
		}
		d.depth++
		return false, nil

	case blockEndRepeat:
		if d.depth == 0 {
			return false, ErrUnmatchedRepeat
		}
		d.depth--
		if d.depth < maxNestedRepeats {
			f := &d.repeats[d.depth]
			if f.remaining > 0 {
				f.remaining--
				d.pos = f.jump
				d.depth++
				return true, nil
			}
		}
		return false, nil

	default:
		// Unknown blocks are skipped.
		return false, nil
	}
}

// appendSamples expands 8 bit unsigned samples at the current time constant
// into the output stream, resampling if the block rate differs from the
// overall rate.
func (d *decoder) appendSamples(samples []byte) error {
	rate := rateForTimeConstant(d.timeConst)
	if rate == 0 {
		return ErrTimeConstant
	}
	if d.rate == 0 {
		d.rate = rate
	}
	if len(samples) == 0 {
		return nil
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = int16(int(s)-128) << 8
	}

	if rate == d.rate {
		d.pcm = append(d.pcm, pcm...)
		return nil
	}
	d.pcm = appendResampled(d.pcm, pcm, rate, d.rate)
	return nil
}

// appendSilence emits duration zero samples recorded at rate, converted to
// the overall rate with rounding.
func (d *decoder) appendSilence(duration, rate uint32) {
	out := duration
	if rate != d.rate {
		out = uint32((uint64(duration)*uint64(d.rate) + uint64(rate)/2) / uint64(rate))
	}
	d.pcm = append(d.pcm, make([]int16, out)...)
}

// appendResampled converts src from srcRate to dstRate with 16.16
// fixed-point linear interpolation and appends it to dst.
func appendResampled(dst, src []int16, srcRate, dstRate uint32) []int16 {
	step := uint32((uint64(srcRate) << 16) / uint64(dstRate))
	if step == 0 {
		return dst
	}

	for pos := uint32(0); ; pos += step {
		idx := pos >> 16
		if idx >= uint32(len(src)) {
			break
		}
		frac := pos & 0xFFFF
		s0 := int32(src[idx])
		s1 := s0
		if idx+1 < uint32(len(src)) {
			s1 = int32(src[idx+1])
		}
		dst = append(dst, int16((s0*int32(65536-frac)+s1*int32(frac))>>16))
	}
	return dst
}
