package speaker

// The PC speaker is driven by PIT channel 2: the game programs a 16 bit
// divisor and the timer toggles the speaker cone at pitClock/divisor Hz.
// Here the divisor feeds a phase accumulator producing a 50% duty square
// wave at the host sample rate. Divisor changes are phase-continuous and
// there is no band-limiting, same as the shipped DOS behavior.

const (
	// pitClock is the input clock of the legacy programmable interval timer.
	pitClock = 1193182

	// amplitude keeps the speaker around -16 dBFS so it doesn't clip the mix.
	amplitude = 5000
)

// Generator renders the square wave. It is not internally synchronized:
// the mixer owns one and serializes SetDivisor/Next under its own lock.
type Generator struct {
	hostRate uint32
	divisor  uint16
	phase    float64 // normalized cycle position in [0, 1)
	step     float64 // phase advance per host sample
}

func NewGenerator(hostRate uint32) *Generator {
	return &Generator{hostRate: hostRate}
}

// SetDivisor programs the PIT channel 2 divisor. A divisor of 0 silences
// the output.
func (g *Generator) SetDivisor(divisor uint16) {
	g.divisor = divisor
	if divisor == 0 || g.hostRate == 0 {
		g.step = 0
		return
	}
	freq := float64(pitClock) / float64(divisor)
	g.step = freq / float64(g.hostRate)
}

// Divisor returns the current PIT divisor (0 when silent).
func (g *Generator) Divisor() uint16 {
	return g.divisor
}

// Next advances the wave by one host sample and returns it.
func (g *Generator) Next() int16 {
	if g.divisor == 0 || g.step <= 0 {
		return 0
	}

	var s int16
	if g.phase < 0.5 {
		s = amplitude
	} else {
		s = -amplitude
	}

	g.phase += g.step
	for g.phase >= 1.0 {
		g.phase -= 1.0
	}
	return s
}

// Reset silences the generator and rewinds the phase.
func (g *Generator) Reset() {
	g.divisor = 0
	g.step = 0
	g.phase = 0
}
