package mixer

// sampleChannel is the one-shot sound effect voice. At most one sample is
// active; starting a new one replaces the old buffer outright.
type sampleChannel struct {
	pcm     []int16
	rate    uint32
	posFP   uint32 // 16.16 read position in source frames
	stepFP  uint32 // 16.16 source frames per host frame
	playing bool
	isVOC   bool
}

// start replaces the current sample without triggering completion and
// takes ownership of pcm.
func (c *sampleChannel) start(pcm []int16, srcRate, hostRate uint32, isVOC bool) {
	c.reset()

	if len(pcm) == 0 || srcRate == 0 || hostRate == 0 {
		return
	}

	c.pcm = pcm
	c.rate = srcRate
	c.isVOC = isVOC
	c.playing = true

	c.stepFP = uint32((uint64(srcRate) << 16) / uint64(hostRate))
	if c.stepFP == 0 {
		c.stepFP = 1
	}
}

// next returns the next host-rate sample via linear interpolation and
// reports whether the buffer was finished by this read.
func (c *sampleChannel) next() (int16, bool) {
	if !c.playing || len(c.pcm) == 0 || c.stepFP == 0 {
		return 0, false
	}

	idx := c.posFP >> 16
	frames := uint32(len(c.pcm))
	if idx >= frames {
		c.playing = false
		return 0, true
	}

	frac := c.posFP & 0xFFFF
	s0 := int32(c.pcm[idx])
	s1 := s0
	if idx+1 < frames {
		s1 = int32(c.pcm[idx+1])
	}

	v := (s0*int32(65536-frac) + s1*int32(frac)) >> 16
	c.posFP += c.stepFP

	// Report completion on the read that crosses the end, not one late.
	if c.posFP>>16 >= frames {
		c.playing = false
		return int16(v), true
	}
	return int16(v), false
}

// reset drops the buffer and clears all state.
func (c *sampleChannel) reset() {
	*c = sampleChannel{}
}
