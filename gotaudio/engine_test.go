package gotaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vocFile builds a headerless VOC with one 8 bit sound block.
func vocFile(timeConst uint8, samples ...byte) []byte {
	n := len(samples) + 2
	data := []byte{0x01, byte(n), byte(n >> 8), byte(n >> 16), timeConst, 0x00}
	data = append(data, samples...)
	return append(data, 0x00)
}

func TestSilenceThroughMixer(t *testing.T) {
	e := New(44100)
	e.SetOPL2Enabled(false)
	e.SetPCDivisor(0)

	out := make([]int16, 1024)
	e.Generate(out)

	for _, v := range out {
		assert.Equal(t, int16(0), v)
	}
}

func TestIdleOPL2IsSilentWhenEnabled(t *testing.T) {
	e := New(44100)

	out := make([]int16, 1024)
	e.Generate(out)

	for _, v := range out {
		assert.Equal(t, int16(0), v)
	}
}

func TestNilEngineIsSafe(t *testing.T) {
	var e *Engine

	out := []int16{42, 42}
	e.Generate(out)
	assert.Equal(t, []int16{0, 0}, out)

	e.PlayPCM16(make([]int16, 4), 44100, false)
	e.PlayU8([]byte{1, 2}, 44100, false)
	require.NoError(t, e.PlayVOC([]byte{0}))
	e.StopSample(true)
	e.SetPCDivisor(100)
	e.WriteOPL2(0xB0, 0x20)
	e.Shutdown()

	assert.False(t, e.IsSamplePlaying())
	assert.False(t, e.IsVOCPlaying())
	assert.False(t, e.PCPlaying())
	assert.Zero(t, e.HostRate())
}

func TestPlayVOC(t *testing.T) {
	e := New(44100)

	err := e.PlayVOC(vocFile(165, 0x80, 0xFF, 0x80, 0x00))
	require.NoError(t, err)
	assert.True(t, e.IsVOCPlaying())
	assert.True(t, e.IsSamplePlaying())
}

func TestPlayVOCDecodeFailureLeavesSampleAlone(t *testing.T) {
	e := New(44100)

	e.PlayPCM16(make([]int16, 1000), 44100, false)
	require.True(t, e.IsSamplePlaying())

	err := e.PlayVOC([]byte{0x07, 0x00, 0x00, 0x00, 0x00})
	assert.Error(t, err)
	assert.True(t, e.IsSamplePlaying(), "failed decode must not stop the current sample")
	assert.False(t, e.IsVOCPlaying())
}

func TestVOCSectionCallback(t *testing.T) {
	e := New(44100)

	var types []uint8
	e.SetVOCSectionFunc(func(blockType uint8, payload []byte) {
		types = append(types, blockType)
	})

	require.NoError(t, e.PlayVOC(vocFile(165, 0x80, 0x90)))
	assert.Equal(t, []uint8{1, 0}, types)
}

func TestPCScriptPlayback(t *testing.T) {
	e := New(44100)
	e.SetOPL2Enabled(false)

	e.PlayPCScript([]uint16{2711, 2711, 0, 1355})
	require.True(t, e.PCPlaying())

	// First tick arms divisor 2711; a service-tick's worth of output
	// (44100/120 ~= 367 samples) must be audible.
	e.ServicePC()
	out := make([]int16, 367)
	e.Generate(out)

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)

	// Third word is 0: silence for that tick.
	e.ServicePC()
	e.ServicePC()
	e.Generate(out)
	for _, v := range out {
		assert.Equal(t, int16(0), v)
	}

	// Final word, then the script ends with a forced silence.
	e.ServicePC()
	assert.False(t, e.PCPlaying())
	e.Generate(out)
	for _, v := range out {
		assert.Equal(t, int16(0), v)
	}

	e.PlayPCScript([]uint16{100})
	e.StopPC()
	assert.False(t, e.PCPlaying())
}

func TestResetMelodicChannels(t *testing.T) {
	e := New(44100)

	e.WriteOPL2(0xBD, 0x20)
	e.WriteOPL2(0xB3, 0x32)
	e.ResetMelodicChannels()

	assert.Equal(t, byte(0), e.synth.Register(0xBD))
	assert.Equal(t, byte(0), e.synth.Register(0xB3))
}

func TestOPL2NoteThroughMixer(t *testing.T) {
	e := New(44100)
	e.SetPCDivisor(0)

	// Sustaining near-sine patch on channel 0, keyed at 440 Hz.
	e.WriteOPL2(0x20, 0x21)
	e.WriteOPL2(0x23, 0x21)
	e.WriteOPL2(0x40, 0x3F)
	e.WriteOPL2(0x43, 0x00)
	e.WriteOPL2(0x60, 0xF0)
	e.WriteOPL2(0x63, 0xF0)
	e.WriteOPL2(0x80, 0x00)
	e.WriteOPL2(0x83, 0x00)
	e.WriteOPL2(0xA0, 0x44)
	e.WriteOPL2(0xB0, 0x26)

	out := make([]int16, 44100)
	e.Generate(out)

	peak := int16(0)
	risingEdges := 0
	for i := 1; i < len(out); i++ {
		if out[i] > peak {
			peak = out[i]
		}
		if out[i-1] < 0 && out[i] >= 0 {
			risingEdges++
		}
	}

	assert.Greater(t, peak, int16(1000), "keyed note should be clearly audible")
	assert.GreaterOrEqual(t, risingEdges, 430)
	assert.LessOrEqual(t, risingEdges, 450)
}

func TestShutdownSilencesEverything(t *testing.T) {
	e := New(48000)

	e.PlayPCM16(make([]int16, 48000), 48000, false)
	e.PlayPCScript([]uint16{2711, 2711, 2711})
	e.ServicePC()
	e.WriteOPL2(0xB0, 0x26)

	e.Shutdown()

	assert.False(t, e.IsSamplePlaying())
	assert.False(t, e.PCPlaying())

	out := make([]int16, 1024)
	e.Generate(out)
	for _, v := range out {
		assert.Equal(t, int16(0), v)
	}
}
