// Package oto is the default audio device, backed by ebitengine/oto. It
// pulls samples through an io.Reader on oto's own playback goroutine. On
// Linux oto's ALSA driver is built with cgo, so this package does not
// build there with CGO_ENABLED=0.
package oto

import (
	"fmt"
	"log/slog"

	otov3 "github.com/ebitengine/oto/v3"

	"github.com/torvik/gotaudio/gotaudio/backend"
)

// Device implements backend.Device on an oto context.
type Device struct {
	cfg    backend.Config
	ctx    *otov3.Context
	player *otov3.Player
}

func New(cfg backend.Config) *Device {
	return &Device{cfg: cfg}
}

// Start opens a mono 16 bit stream at the generator's rate and begins
// playback.
func (d *Device) Start(gen backend.Generator) error {
	op := &otov3.NewContextOptions{
		SampleRate:   int(gen.HostRate()),
		ChannelCount: 1,
		Format:       otov3.FormatSignedInt16LE,
	}

	ctx, ready, err := otov3.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to open audio context: %w", err)
	}
	<-ready

	d.ctx = ctx
	d.player = ctx.NewPlayer(&pcmReader{
		gen: gen,
		buf: make([]int16, d.cfg.Frames()),
	})
	d.player.Play()

	slog.Info("oto audio device started", "sample_rate", gen.HostRate())
	return nil
}

// Close stops playback.
func (d *Device) Close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}

// pcmReader adapts the engine to oto's io.Reader pull model.
type pcmReader struct {
	gen backend.Generator
	buf []int16
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / 2
	if frames == 0 {
		return 0, nil
	}

	if len(r.buf) < frames {
		r.buf = make([]int16, frames)
	}
	samples := r.buf[:frames]

	r.gen.Generate(samples)
	backend.EncodePCM16LE(p[:frames*2], samples)
	return frames * 2, nil
}
