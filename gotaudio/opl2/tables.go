package opl2

import "math"

const (
	phaseSteps = 1024
	phaseMask  = phaseSteps - 1
)

// attToAmp maps attenuation in 0.75 dB units to a linear Q15 amplitude.
// Each step multiplies by 10^(-0.75/20).
var attToAmp = func() [256]int16 {
	var t [256]int16
	ratio := math.Pow(10, -0.75/20)
	a := 1.0
	for i := range t {
		v := int(a*32767.0 + 0.5)
		if v > 32767 {
			v = 32767
		}
		t[i] = int16(v)
		a *= ratio
	}
	return t
}()

// sinQ15 is a quarter sine wave (0..pi/2) in Q15, 256 entries. The full
// wave is reconstructed by quadrant symmetry.
var sinQ15 = func() [256]int16 {
	var t [256]int16
	for i := range t {
		t[i] = int16(math.Round(math.Sin(float64(i)*math.Pi/2/256) * 32767))
	}
	return t
}()

// fullSin reconstructs the full sine from the quarter-wave table for a
// 10 bit phase index.
func fullSin(phase int) int16 {
	p := phase & phaseMask
	i := p & 0xFF
	switch (p >> 8) & 3 {
	case 0:
		return sinQ15[i]
	case 1:
		return sinQ15[255-i]
	case 2:
		return -sinQ15[i]
	default:
		return -sinQ15[255-i]
	}
}

// applyWaveform applies the operator's waveform select to a raw sine sample.
func applyWaveform(wave int, s int16) int16 {
	switch wave & 3 {
	case 1: // half sine: negative half rectified to zero
		if s < 0 {
			return 0
		}
		return s
	case 2: // absolute sine
		if s < 0 {
			return -s
		}
		return s
	case 3: // pulse: positive half saturated
		if s < 0 {
			return 0
		}
		return 32767
	default: // sine
		return s
	}
}
