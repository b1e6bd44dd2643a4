package speaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSilentWhenDivisorZero(t *testing.T) {
	g := NewGenerator(44100)

	for i := 0; i < 100; i++ {
		assert.Equal(t, int16(0), g.Next())
	}

	// Repeated zero writes must not produce a transient.
	g.SetDivisor(0)
	g.SetDivisor(0)
	for i := 0; i < 100; i++ {
		assert.Equal(t, int16(0), g.Next())
	}
}

func TestSquareWaveFrequency(t *testing.T) {
	// Divisor 2711 is A4: 1193182 / 2711 ~= 440.13 Hz.
	g := NewGenerator(44100)
	g.SetDivisor(2711)

	risingEdges := 0
	prev := g.Next()
	for i := 1; i < 44100; i++ {
		s := g.Next()
		if prev < 0 && s > 0 {
			risingEdges++
		}
		prev = s
	}

	assert.GreaterOrEqual(t, risingEdges, 439)
	assert.LessOrEqual(t, risingEdges, 441)
}

func TestFiftyPercentDuty(t *testing.T) {
	g := NewGenerator(48000)
	g.SetDivisor(1000)

	pos, neg := 0, 0
	for i := 0; i < 48000; i++ {
		if g.Next() > 0 {
			pos++
		} else {
			neg++
		}
	}

	// Allow a little slack for the fractional cycle at the end.
	assert.InDelta(t, pos, neg, 150)
}

func TestDivisorChangeIsPhaseContinuous(t *testing.T) {
	g := NewGenerator(44100)
	g.SetDivisor(2711)

	for i := 0; i < 10; i++ {
		g.Next()
	}
	phase := g.phase
	g.SetDivisor(1355)
	assert.Equal(t, phase, g.phase, "changing the divisor must not reset phase")
}

func TestSequencerConsumesOneWordPerTick(t *testing.T) {
	var writes []uint16
	seq := NewSequencer(func(d uint16) { writes = append(writes, d) })

	seq.Play([]uint16{100, 200, 0, 300})
	assert.True(t, seq.Playing())
	// Arming starts silent.
	assert.Equal(t, []uint16{0}, writes)

	seq.Service()
	seq.Service()
	assert.Equal(t, []uint16{0, 100, 200}, writes)
	assert.True(t, seq.Playing())

	seq.Service()
	seq.Service()
	// Final word plus the trailing silence write.
	assert.Equal(t, []uint16{0, 100, 200, 0, 300, 0}, writes)
	assert.False(t, seq.Playing())

	// Further ticks are no-ops.
	seq.Service()
	assert.Len(t, writes, 6)
}

func TestSequencerStop(t *testing.T) {
	var last uint16 = 0xFFFF
	seq := NewSequencer(func(d uint16) { last = d })

	seq.Play([]uint16{500, 600})
	seq.Service()
	assert.Equal(t, uint16(500), last)

	seq.Stop()
	assert.False(t, seq.Playing())
	assert.Equal(t, uint16(0), last)
}

func TestSequencerIgnoresEmptyScript(t *testing.T) {
	called := false
	seq := NewSequencer(func(uint16) { called = true })

	seq.Play(nil)
	assert.False(t, seq.Playing())
	assert.False(t, called)
}
