// Package gotaudio is the audio core of the native God of Thunder port.
// It replaces the DOS game's AdLib register writes, SoundBlaster DMA and
// PC speaker port writes with a software stack: an OPL2 synthesizer, a
// VOC sample pipeline and a PIT square wave, mixed into one mono signed
// 16 bit stream for the host audio device.
package gotaudio

import (
	"log/slog"

	"github.com/torvik/gotaudio/gotaudio/mixer"
	"github.com/torvik/gotaudio/gotaudio/opl2"
	"github.com/torvik/gotaudio/gotaudio/speaker"
	"github.com/torvik/gotaudio/gotaudio/voc"
)

// Engine owns the synthesizer, the mixer and the speaker sequencer and is
// the only surface the game talks to. A nil Engine is safe: every method
// is a no-op, mirroring the original driver's behavior before init.
type Engine struct {
	synth *opl2.Synth
	mix   *mixer.Mixer
	pcSeq *speaker.Sequencer

	sections voc.SectionFunc
}

// New creates the engine with the host device's output rate. A zero rate
// falls back to 44100 Hz.
func New(hostRate uint32) *Engine {
	e := &Engine{synth: opl2.New()}
	e.mix = mixer.New(hostRate, e.synth)
	e.pcSeq = speaker.NewSequencer(e.mix.SetPCDivisor)

	slog.Debug("audio engine created", "host_rate", e.mix.HostRate(), "opl2_rate", e.synth.Rate())
	return e
}

// Shutdown stops speaker playback, releases the sample buffer and resets
// the synthesizer. The engine stays usable but silent.
func (e *Engine) Shutdown() {
	if e == nil {
		return
	}
	e.pcSeq.Stop()
	e.mix.Shutdown()
	e.synth.Reset()
}

// HostRate returns the output sample rate.
func (e *Engine) HostRate() uint32 {
	if e == nil {
		return 0
	}
	return e.mix.HostRate()
}

// Generate fills out with mixed host-rate samples. The host audio
// backend calls this from its playback thread.
func (e *Engine) Generate(out []int16) {
	if e == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	e.mix.Generate(out)
}

// PlayPCM16 starts a one-shot sample, preempting any current one without
// firing its completion callback. The engine takes ownership of pcm.
func (e *Engine) PlayPCM16(pcm []int16, srcRate uint32, isVOC bool) {
	if e == nil {
		return
	}
	e.mix.PlayPCM16(pcm, srcRate, isVOC)
}

// PlayU8 plays 8 bit unsigned PCM, the format the game's DIGSOUND assets
// store samples in.
func (e *Engine) PlayU8(pcm []byte, srcRate uint32, isVOC bool) {
	if e == nil {
		return
	}
	e.mix.PlayU8(pcm, srcRate, isVOC)
}

// PlaySilence plays frames of silence at srcRate, firing the completion
// callback when it elapses.
func (e *Engine) PlaySilence(frames, srcRate uint32) {
	if e == nil {
		return
	}
	e.mix.PlaySilence(frames, srcRate)
}

// PlayVOC decodes a Creative Voice File and plays it. On decode failure
// the current sample is left untouched and the error is returned; the
// game treats that as a silent sound.
func (e *Engine) PlayVOC(data []byte) error {
	if e == nil {
		return nil
	}

	if e.sections != nil {
		voc.WalkSections(data, e.sections)
	}

	sound, err := voc.Decode(data)
	if err != nil {
		slog.Warn("voc decode failed", "error", err, "bytes", len(data))
		return err
	}

	e.mix.PlayPCM16(sound.PCM, sound.Rate, true)
	return nil
}

// SetVOCSectionFunc installs (or clears) a callback that receives each
// raw VOC block when PlayVOC parses a file.
func (e *Engine) SetVOCSectionFunc(fn voc.SectionFunc) {
	if e == nil {
		return
	}
	e.sections = fn
}

// StopSample cancels the current sample synchronously, optionally firing
// the completion callback.
func (e *Engine) StopSample(invokeCallback bool) {
	if e == nil {
		return
	}
	e.mix.StopSample(invokeCallback)
}

// IsSamplePlaying reports whether a sample is playing.
func (e *Engine) IsSamplePlaying() bool {
	return e != nil && e.mix.IsSamplePlaying()
}

// IsVOCPlaying reports whether the playing sample came from a VOC. The
// game distinguishes the two for gameplay purposes.
func (e *Engine) IsVOCPlaying() bool {
	return e != nil && e.mix.IsVOCPlaying()
}

// SetSoundFinishedCallback installs (or clears) the sample completion
// callback. It is invoked with no engine lock held (from the audio thread
// when a sample finishes, or from the caller of StopSample(true)), so it
// may start the next sample.
func (e *Engine) SetSoundFinishedCallback(cb func()) {
	if e == nil {
		return
	}
	e.mix.SetSoundFinishedCallback(cb)
}

// SetOPL2Enabled gates music output without stopping synthesis.
func (e *Engine) SetOPL2Enabled(enabled bool) {
	if e == nil {
		return
	}
	e.mix.SetMusicEnabled(enabled)
}

// WriteOPL2 forwards one register write to the synthesizer. The music
// service calls this at its 120 Hz tick.
func (e *Engine) WriteOPL2(reg, val byte) {
	if e == nil {
		return
	}
	e.synth.Write(reg, val)
}

// ResetOPL2 fully resets the synthesizer.
func (e *Engine) ResetOPL2() {
	if e == nil {
		return
	}
	e.synth.Reset()
}

// ResetMelodicChannels disables rhythm mode and writes 0 to registers
// 0xB1..0xBA, the way the game's AdLib layer quiets the chip between songs.
// Channel 0's key-on register (0xB0) is not written.
func (e *Engine) ResetMelodicChannels() {
	if e == nil {
		return
	}
	e.synth.Write(0xBD, 0)
	for i := byte(0); i < 10; i++ {
		e.synth.Write(0xB1+i, 0)
	}
}

// SetPCDivisor programs the PC speaker's PIT divisor directly. 0 silences it.
func (e *Engine) SetPCDivisor(divisor uint16) {
	if e == nil {
		return
	}
	e.mix.SetPCDivisor(divisor)
}

// PlayPCScript arms a PC speaker effect: an array of PIT divisors played
// one per service tick. Call ServicePC at the 120 Hz heartbeat.
func (e *Engine) PlayPCScript(script []uint16) {
	if e == nil {
		return
	}
	e.pcSeq.Play(script)
}

// ServicePC advances speaker playback by one tick.
func (e *Engine) ServicePC() {
	if e == nil {
		return
	}
	e.pcSeq.Service()
}

// StopPC cancels speaker playback and silences the channel.
func (e *Engine) StopPC() {
	if e == nil {
		return
	}
	e.pcSeq.Stop()
}

// PCPlaying reports whether a speaker script is still armed.
func (e *Engine) PCPlaying() bool {
	return e != nil && e.pcSeq.Playing()
}
