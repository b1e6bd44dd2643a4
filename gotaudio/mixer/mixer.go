// Package mixer combines the game's three audio sources into one mono
// host-rate stream: the OPL2 music synth (pulled through a ring at its
// native rate), a single preemptive sample channel, and the PC speaker
// square wave. The music and sample sources are resampled with 16.16
// fixed-point linear interpolation; the speaker is rendered directly at
// the host rate. Each source is scaled by a fixed volume.
package mixer

import (
	"github.com/torvik/gotaudio/gotaudio/guard"
	"github.com/torvik/gotaudio/gotaudio/speaker"
)

// MusicSource produces mono PCM16 at a fixed native rate. The OPL2 synth
// implements it; any other core conforming to the same interface can be
// swapped in at build time.
type MusicSource interface {
	Generate(out []int16)
	Rate() uint32
}

// Fixed Q8.8 source volumes.
const (
	volMusic  = 160 // ~0.625
	volSample = 200 // ~0.78
	volPC     = 120 // ~0.47
)

// Mixer owns the three sources. All state is behind one lock; the
// completion callback is never invoked while the lock is held.
type Mixer struct {
	mu guard.Mutex

	hostRate uint32
	src      MusicSource

	finishedCB func()

	sample sampleChannel
	music  musicStream
	pc     *speaker.Generator
}

// New creates a mixer producing samples at hostRate. A zero rate falls
// back to 44100.
func New(hostRate uint32, src MusicSource) *Mixer {
	if hostRate == 0 {
		hostRate = 44100
	}
	m := &Mixer{
		hostRate: hostRate,
		src:      src,
		pc:       speaker.NewGenerator(hostRate),
	}
	m.music.reset(src.Rate(), hostRate)
	return m
}

// HostRate returns the output sample rate.
func (m *Mixer) HostRate() uint32 {
	return m.hostRate
}

// Shutdown releases the sample buffer, silences every source and drops
// any pending callback.
func (m *Mixer) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sample.reset()
	m.music.clear()
	m.pc.Reset()
	m.finishedCB = nil
}

// SetMusicEnabled gates the music contribution without stopping register
// writes or synthesis.
func (m *Mixer) SetMusicEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.music.enabled = enabled
}

// SetPCDivisor forwards a PIT channel 2 divisor to the speaker. 0 silences it.
func (m *Mixer) SetPCDivisor(divisor uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pc.SetDivisor(divisor)
}

// PlayPCM16 starts a sample, replacing any current one without invoking
// the completion callback. The mixer takes ownership of pcm. An empty
// buffer or a zero rate stops the current sample and starts nothing.
func (m *Mixer) PlayPCM16(pcm []int16, srcRate uint32, isVOC bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sample.start(pcm, srcRate, m.hostRate, isVOC)
}

// PlayU8 expands 8 bit unsigned PCM to 16 bit and plays it.
func (m *Mixer) PlayU8(pcm []byte, srcRate uint32, isVOC bool) {
	if len(pcm) == 0 || srcRate == 0 {
		return
	}
	pcm16 := make([]int16, len(pcm))
	for i, s := range pcm {
		pcm16[i] = int16(int(s)-128) << 8
	}
	m.PlayPCM16(pcm16, srcRate, isVOC)
}

// PlaySilence plays frames of silence at srcRate. Callers use it as a
// "wait this long, then fire the completion callback" primitive.
func (m *Mixer) PlaySilence(frames, srcRate uint32) {
	if frames == 0 || srcRate == 0 {
		return
	}
	m.PlayPCM16(make([]int16, frames), srcRate, false)
}

// StopSample stops and releases the current sample. When invokeCallback
// is set and a sample was playing, the completion callback runs after the
// lock is released.
func (m *Mixer) StopSample(invokeCallback bool) {
	var cb func()

	m.mu.Lock()
	if m.sample.playing {
		m.sample.reset()
		if invokeCallback {
			cb = m.finishedCB
		}
	}
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// IsSamplePlaying reports whether the sample channel is active.
func (m *Mixer) IsSamplePlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sample.playing
}

// IsVOCPlaying reports whether the current sample is VOC-sourced.
func (m *Mixer) IsVOCPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sample.playing && m.sample.isVOC
}

// SetSoundFinishedCallback installs (or clears, with nil) the callback
// invoked once each time a sample plays to completion.
func (m *Mixer) SetSoundFinishedCallback(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishedCB = cb
}

// Generate fills out with mixed host-rate samples. It runs on the audio
// thread: no allocation, no blocking beyond the state lock, and the
// completion callback fires only after the lock is dropped.
func (m *Mixer) Generate(out []int16) {
	if len(out) == 0 {
		return
	}

	var cb func()

	m.mu.Lock()
	for i := range out {
		var acc int32

		if m.music.enabled {
			s := m.music.next(m.src)
			acc += int32(s) * volMusic >> 8
		}

		if m.sample.playing {
			s, finished := m.sample.next()
			acc += int32(s) * volSample >> 8
			if finished {
				m.sample.reset()
				cb = m.finishedCB
			}
		}

		acc += int32(m.pc.Next()) * volPC >> 8

		out[i] = clampI16(acc)
	}
	m.mu.Unlock()

	if cb != nil {
		cb()
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
