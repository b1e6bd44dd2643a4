// Package backend abstracts the host audio device. The engine produces
// mono signed 16 bit PCM on demand; a Device pulls it from whatever
// thread the host's audio machinery runs on.
package backend

// Generator is the pull side of the audio stream, implemented by the
// engine. Generate must be safe to call from the device's playback thread.
type Generator interface {
	Generate(out []int16)
	HostRate() uint32
}

// Device streams a Generator's output to the host audio hardware.
type Device interface {
	// Start opens the device and begins pulling from gen.
	Start(gen Generator) error

	// Close stops playback and releases the device.
	Close() error
}

// Config holds device parameters shared by all backends.
type Config struct {
	// BufferFrames is the device pull size in frames. 0 picks a default.
	BufferFrames int
}

// DefaultBufferFrames keeps latency under ~25 ms at typical host rates.
const DefaultBufferFrames = 1024

// Frames returns the configured pull size or the default.
func (c Config) Frames() int {
	if c.BufferFrames > 0 {
		return c.BufferFrames
	}
	return DefaultBufferFrames
}

// EncodePCM16LE writes samples into dst as little-endian bytes.
// dst must hold 2*len(samples) bytes.
func EncodePCM16LE(dst []byte, samples []int16) {
	for i, s := range samples {
		dst[2*i] = byte(s)
		dst[2*i+1] = byte(s >> 8)
	}
}
