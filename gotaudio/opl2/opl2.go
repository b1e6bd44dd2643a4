// Package opl2 is a software YM3812 synthesizer. It accepts the same
// (register, value) writes the chip would take on its address/data ports
// and renders mono signed 16 bit PCM at the chip's native rate.
//
// It is not a cycle-accurate core: phase and envelope math is floating
// point, the sine comes from a 256-entry quarter-wave table indexed by a
// 1024-step phase, and the envelope is
// tracked as attenuation in 0.75 dB units so it composes directly with the
// Total Level register. That is enough to sound right for the music the
// game shipped with.
package opl2

import (
	"math"

	"github.com/torvik/gotaudio/gotaudio/bits"
	"github.com/torvik/gotaudio/gotaudio/guard"
)

const (
	// NativeRate is the fixed output sample rate: the 14.31818 MHz master
	// clock divided by 288.
	NativeRate = 49716

	masterClock = 14318180.0

	numChannels  = 9
	numOperators = 18

	// envMaxUnits is full attenuation: 96 dB in 0.75 dB steps.
	envMaxUnits = 128.0
)

type envState int

const (
	envOff envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// Channel to operator mapping is fixed by the chip's register layout.
var (
	chModOp = [numChannels]int{0, 1, 2, 6, 7, 8, 12, 13, 14}
	chCarOp = [numChannels]int{3, 4, 5, 9, 10, 11, 15, 16, 17}
)

// regToOp maps the low 5 bits of an operator register to an operator
// index, or -1 for the gaps in the layout.
var regToOp = [32]int{
	0, 1, 2, 3, 4, 5,
	-1, -1,
	6, 7, 8, 9, 10, 11,
	-1, -1,
	12, 13, 14, 15, 16, 17,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
}

type operator struct {
	reg20 byte // AM/VIB/EGT/KSR/MULT
	reg40 byte // KSL/TL
	reg60 byte // AR/DR
	reg80 byte // SL/RR
	regE0 byte // waveform

	mult int
	ksr  bool
	egt  bool
	ksl  int
	tl   int
	ar   int
	dr   int
	sl   int
	rr   int
	wave int

	phase     float64 // cycles in [0, 1)
	phaseStep float64 // cycles per sample

	state envState
	att   float64 // attenuation in 0.75 dB units; 0 loud, 128 silent

	sustainAtt  float64
	attackStep  float64
	decayStep   float64
	releaseStep float64
}

type channel struct {
	fnum     uint16 // 10 bit
	block    byte   // 0..7
	keyOn    bool
	feedback byte // 0..7
	additive bool // CNT bit: true sums both operators

	modOp int
	carOp int

	// previous two modulator samples, averaged for feedback
	fb1 int16
	fb2 int16
}

// Synth is one YM3812. Write and Generate may be called from different
// threads; the synth serializes them internally.
type Synth struct {
	mu guard.Mutex

	regs       [256]byte
	ops        [numOperators]operator
	ch         [numChannels]channel
	waveEnable bool
}

func New() *Synth {
	s := &Synth{}
	s.reset()
	return s
}

// Rate returns the synth's fixed native sample rate.
func (s *Synth) Rate() uint32 {
	return NativeRate
}

// Reset clears all registers, forces every envelope to the off state at
// full attenuation, and re-enables waveform select.
func (s *Synth) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Synth) reset() {
	s.regs = [256]byte{}
	s.ch = [numChannels]channel{}
	s.ops = [numOperators]operator{}

	for i := range s.ch {
		s.ch[i].modOp = chModOp[i]
		s.ch[i].carOp = chCarOp[i]
	}

	// Wave select defaults on, matching the AdLib detection routine the
	// game runs at startup.
	s.waveEnable = true
	s.regs[0x01] = 0x20

	for i := range s.ops {
		s.ops[i].state = envOff
		s.ops[i].att = envMaxUnits
		s.updateOpCache(i)
	}
}

// Register returns the last value written to a register.
func (s *Synth) Register(reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// Write stores a register value and updates the derived state. Writes to
// addresses the synthesizer does not model (timers, rhythm control) are
// stored and otherwise ignored; writes never fail.
func (s *Synth) Write(reg, val byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regs[reg] = val

	switch {
	case reg == 0x01:
		s.waveEnable = bits.IsSet(5, val)
		for i := range s.ops {
			s.updateOpCache(i)
		}

	case reg == 0xBD:
		// AM/VIB depth and rhythm mode: stored only.

	case reg >= 0x20 && reg <= 0x35,
		reg >= 0x40 && reg <= 0x55,
		reg >= 0x60 && reg <= 0x75,
		reg >= 0x80 && reg <= 0x95,
		reg >= 0xE0 && reg <= 0xF5:
		s.writeOperator(reg, val)

	case reg >= 0xA0 && reg <= 0xA8:
		s.writeFrequency(int(reg-0xA0), val, false)

	case reg >= 0xB0 && reg <= 0xB8:
		s.writeFrequency(int(reg-0xB0), val, true)

	case reg >= 0xC0 && reg <= 0xC8:
		ch := &s.ch[reg-0xC0]
		ch.additive = bits.IsSet(0, val)
		ch.feedback = bits.ExtractBits(val, 3, 1)
	}
}

func (s *Synth) writeOperator(reg, val byte) {
	opi := regToOp[reg&0x1F]
	if opi < 0 {
		return
	}
	op := &s.ops[opi]

	switch {
	case reg <= 0x35:
		op.reg20 = val
	case reg <= 0x55:
		op.reg40 = val
	case reg <= 0x75:
		op.reg60 = val
	case reg <= 0x95:
		op.reg80 = val
	default:
		op.regE0 = val
	}

	s.updateOpCache(opi)

	// MULT or KSR may have changed; refresh the channels this operator
	// belongs to.
	for chi := range s.ch {
		if s.ch[chi].modOp == opi || s.ch[chi].carOp == opi {
			s.updateChannelFreq(chi)
		}
	}
}

func (s *Synth) writeFrequency(chi int, val byte, high bool) {
	ch := &s.ch[chi]
	wasKeyed := ch.keyOn

	if high {
		ch.fnum = ch.fnum&0x0FF | uint16(val&0x03)<<8
		ch.block = bits.ExtractBits(val, 4, 2)
		ch.keyOn = bits.IsSet(5, val)
	} else {
		ch.fnum = ch.fnum&0x300 | uint16(val)
	}

	s.updateChannelFreq(chi)

	if ch.keyOn && !wasKeyed {
		s.ops[ch.modOp].keyOn()
		s.ops[ch.carOp].keyOn()
	} else if !ch.keyOn && wasKeyed {
		s.ops[ch.modOp].keyOff()
		s.ops[ch.carOp].keyOff()
	}
}

// updateOpCache refreshes the fields derived from an operator's raw
// register bytes. AM and VIB are accepted but not synthesized.
func (s *Synth) updateOpCache(opi int) {
	op := &s.ops[opi]

	op.egt = bits.IsSet(5, op.reg20)
	op.ksr = bits.IsSet(4, op.reg20)
	op.mult = int(bits.ExtractBits(op.reg20, 3, 0))

	op.ksl = int(bits.ExtractBits(op.reg40, 7, 6))
	op.tl = int(bits.ExtractBits(op.reg40, 5, 0))

	op.ar = int(bits.ExtractBits(op.reg60, 7, 4))
	op.dr = int(bits.ExtractBits(op.reg60, 3, 0))

	op.sl = int(bits.ExtractBits(op.reg80, 7, 4))
	op.rr = int(bits.ExtractBits(op.reg80, 3, 0))

	op.wave = int(bits.ExtractBits(op.regE0, 1, 0))
	if !s.waveEnable {
		op.wave = 0
	}

	// SL is in 3 dB steps, the envelope runs in 0.75 dB units.
	op.sustainAtt = float64(op.sl * 4)
}

// keycode approximates the chip's key code from block and the top two
// fnum bits; it feeds the key-scale-rate adjustment.
func keycode(fnum uint16, block byte) int {
	return int(block)<<2 | int(fnum>>8)&0x03
}

// envStepPerSample converts a 0..15 envelope rate into attenuation units
// per output sample. Rate 15 crosses the full range in about 2 ms; each
// lower rate doubles the time. Rate 0 means the envelope holds.
func envStepPerSample(rate int) float64 {
	if rate <= 0 {
		return 0
	}
	if rate > 15 {
		rate = 15
	}
	seconds := 0.002 * float64(int(1)<<(15-rate))
	return envMaxUnits / (seconds * NativeRate)
}

func (s *Synth) updateEnvSteps(opi, chi int) {
	op := &s.ops[opi]
	ch := &s.ch[chi]

	kc := keycode(ch.fnum, ch.block)
	ksrAdd := kc >> 3
	if op.ksr {
		ksrAdd = kc >> 1
	}

	op.attackStep = envStepPerSample(clampRate(op.ar + ksrAdd))
	op.decayStep = envStepPerSample(clampRate(op.dr + ksrAdd))
	op.releaseStep = envStepPerSample(clampRate(op.rr + ksrAdd))
}

func clampRate(r int) int {
	if r < 0 {
		return 0
	}
	if r > 15 {
		return 15
	}
	return r
}

// updateChannelFreq recomputes both operators' phase steps and envelope
// rates from the channel's fnum/block.
func (s *Synth) updateChannelFreq(chi int) {
	ch := &s.ch[chi]
	mod := &s.ops[ch.modOp]
	car := &s.ops[ch.carOp]

	// The phase generator runs at clock/72:
	// f_hz = fnum * 2^block * (clock/72) / 2^19
	baseHz := float64(ch.fnum) * float64(uint32(1)<<ch.block) * (masterClock / 72.0) / 524288.0

	mod.phaseStep = baseHz * multFactor(mod.mult) / NativeRate
	car.phaseStep = baseHz * multFactor(car.mult) / NativeRate

	s.updateEnvSteps(ch.modOp, chi)
	s.updateEnvSteps(ch.carOp, chi)
}

// multFactor maps the MULT register field to a frequency multiple:
// 0 halves the frequency, 1..15 multiply directly.
func multFactor(mult int) float64 {
	if mult == 0 {
		return 0.5
	}
	return float64(mult)
}

func (op *operator) keyOn() {
	op.state = envAttack
	op.att = envMaxUnits
}

func (op *operator) keyOff() {
	if op.state != envOff {
		op.state = envRelease
	}
}

func (op *operator) advanceEnvelope() {
	switch op.state {
	case envAttack:
		if op.attackStep <= 0 {
			op.att = 0
			op.state = envDecay
			return
		}
		op.att -= op.attackStep
		if op.att <= 0 {
			op.att = 0
			op.state = envDecay
		}
	case envDecay:
		if op.decayStep <= 0 {
			op.att = op.sustainAtt
		} else {
			op.att += op.decayStep
		}
		if op.att >= op.sustainAtt {
			op.att = op.sustainAtt
			if op.egt {
				op.state = envSustain
			} else {
				op.state = envRelease
			}
		}
	case envSustain:
		op.att = op.sustainAtt
	case envRelease:
		if op.releaseStep <= 0 {
			op.att = envMaxUnits
		} else {
			op.att += op.releaseStep
		}
		if op.att >= envMaxUnits {
			op.att = envMaxUnits
			op.state = envOff
		}
	default:
		op.att = envMaxUnits
	}
}

// render produces one sample for the operator, with pmCycles of phase
// modulation applied, and advances its phase and envelope.
func (op *operator) render(pmCycles float64, block byte) int16 {
	op.advanceEnvelope()

	kslAtt := 0.0
	if op.ksl > 0 {
		// Approximate key scale level: more attenuation in higher octaves.
		kslAtt = float64(op.ksl*int(block)) * 2.0
	}

	att := int(op.att + float64(op.tl) + kslAtt + 0.5)
	if att < 0 {
		att = 0
	} else if att > 255 {
		att = 255
	}
	amp := attToAmp[att]

	ph := op.phase + pmCycles
	ph -= math.Floor(ph)
	idx := int(ph*phaseSteps) & phaseMask

	sample := applyWaveform(op.wave, fullSin(idx))
	out := int32(sample) * int32(amp) >> 15

	op.phase += op.phaseStep
	op.phase -= math.Floor(op.phase)

	return clampI16(out)
}

// Generate renders len(out) mono samples, advancing every channel. It
// does not allocate.
func (s *Synth) Generate(out []int16) {
	if len(out) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range out {
		var mix int32

		for chi := range s.ch {
			ch := &s.ch[chi]
			mod := &s.ops[ch.modOp]
			car := &s.ops[ch.carOp]

			if !ch.keyOn && mod.state == envOff && car.state == envOff {
				continue
			}

			// Feedback averages the modulator's previous two samples and
			// phase-modulates it with itself; depth doubles per FB step.
			fbCycles := 0.0
			if ch.feedback > 0 {
				fbMix := (int32(ch.fb1) + int32(ch.fb2)) / 2
				fbCycles = float64(fbMix) / 32768.0 * (0.002 * float64(int(1)<<(ch.feedback-1)))
			}

			modOut := mod.render(fbCycles, ch.block)
			ch.fb2 = ch.fb1
			ch.fb1 = modOut

			if ch.additive {
				carOut := car.render(0, ch.block)
				mix += int32(carOut) + int32(modOut)
			} else {
				pm := float64(modOut) / 32768.0 * 0.02
				mix += int32(car.render(pm, ch.block))
			}
		}

		out[i] = clampI16(mix / 4)
	}
}

func clampI16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
