package mixer

const (
	// ringFrames bounds how much generated music sits between the synth
	// and the read cursor.
	ringFrames = 8192

	// scratchFrames is how much the synth generates per refill step.
	scratchFrames = 512
)

// musicStream resamples the music source's native-rate output to the host
// rate through a bounded ring. The read cursor is 48.16 fixed point over
// absolute sample indices so continuous streams never wrap; the ring is
// grown on demand and pruned behind the cursor.
type musicStream struct {
	enabled bool

	posFP  uint64 // read cursor, units of 1/65536 native sample
	stepFP uint32 // native samples per host sample, 16.16

	ring    [ringFrames]int16
	head    uint32
	count   uint32
	baseAbs uint64 // absolute index of ring[head]
	genAbs  uint64 // absolute index of the next sample to generate

	scratch [scratchFrames]int16
}

func (m *musicStream) reset(srcRate, hostRate uint32) {
	m.clear()
	m.enabled = true
	m.stepFP = uint32((uint64(srcRate) << 16) / uint64(hostRate))
	if m.stepFP == 0 {
		m.stepFP = 1
	}
}

func (m *musicStream) clear() {
	m.posFP = 0
	m.head = 0
	m.count = 0
	m.baseAbs = 0
	m.genAbs = 0
}

func (m *musicStream) free() uint32 {
	return ringFrames - m.count
}

func (m *musicStream) get(abs uint64) int16 {
	ofs := uint32(abs - m.baseAbs)
	return m.ring[(m.head+ofs)%ringFrames]
}

func (m *musicStream) drop(n uint32) {
	if n > m.count {
		n = m.count
	}
	m.head = (m.head + n) % ringFrames
	m.count -= n
	m.baseAbs += uint64(n)
}

func (m *musicStream) push(src []int16) {
	for _, s := range src {
		if m.count >= ringFrames {
			// ensure prunes first, but never overwrite silently.
			m.drop(1)
		}
		m.ring[(m.head+m.count)%ringFrames] = s
		m.count++
		m.genAbs++
	}
}

// prune drops samples the cursor has passed, always keeping two behind it
// so interpolation works across the prune boundary.
func (m *musicStream) prune() {
	cur := m.posFP >> 16
	if cur <= 2 {
		return
	}
	keepFrom := cur - 2
	if keepFrom > m.baseAbs {
		m.drop(uint32(keepFrom - m.baseAbs))
	}
}

// ensure generates until the ring holds the absolute sample needAbs.
func (m *musicStream) ensure(src MusicSource, needAbs uint64) {
	for m.baseAbs+uint64(m.count) <= needAbs {
		if m.free() == 0 {
			m.prune()
		}
		n := m.free()
		if n == 0 {
			// Cursor too far behind generated data; give up, the caller
			// outputs silence for this host sample.
			return
		}
		if n > scratchFrames {
			n = scratchFrames
		}
		src.Generate(m.scratch[:n])
		m.push(m.scratch[:n])
	}
}

// next produces one host-rate sample and advances the read cursor.
func (m *musicStream) next(src MusicSource) int16 {
	idx := m.posFP >> 16
	frac := uint32(m.posFP & 0xFFFF)

	m.ensure(src, idx+1)
	if idx < m.baseAbs || idx+1 >= m.baseAbs+uint64(m.count) {
		m.posFP += uint64(m.stepFP)
		return 0
	}

	s0 := int32(m.get(idx))
	s1 := int32(m.get(idx + 1))
	v := (s0*int32(65536-frac) + s1*int32(frac)) >> 16

	m.posFP += uint64(m.stepFP)
	m.prune()

	return int16(v)
}
