// Package headless is an audio device with no hardware behind it. The
// caller pumps it from its own loop, which is also how single-threaded
// hosts without an audio callback thread drive the engine.
package headless

import (
	"github.com/torvik/gotaudio/gotaudio/backend"
)

// Device implements backend.Device by handing samples back to the caller.
type Device struct {
	cfg backend.Config
	gen backend.Generator
	buf []int16
}

func New(cfg backend.Config) *Device {
	return &Device{cfg: cfg}
}

// Start records the generator; nothing plays until Pump is called.
func (d *Device) Start(gen backend.Generator) error {
	d.gen = gen
	d.buf = make([]int16, d.cfg.Frames())
	return nil
}

// Pump generates one device buffer and returns it. The slice is reused
// by the next Pump call.
func (d *Device) Pump() []int16 {
	if d.gen == nil {
		return nil
	}
	d.gen.Generate(d.buf)
	return d.buf
}

// Close detaches the generator.
func (d *Device) Close() error {
	d.gen = nil
	return nil
}
