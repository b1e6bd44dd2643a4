//go:build sdl2

// Package sdl2 streams audio through SDL2's queueing API. Building it
// requires the SDL2 development libraries; default builds use a stub that
// reports the backend as unavailable.
package sdl2

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/torvik/gotaudio/gotaudio/backend"
)

// queueDepth is how many device buffers we keep queued ahead of playback.
const queueDepth = 4

// Device implements backend.Device on an SDL2 audio device.
type Device struct {
	cfg  backend.Config
	dev  sdl.AudioDeviceID
	stop chan struct{}
	done chan struct{}
}

func New(cfg backend.Config) *Device {
	return &Device{cfg: cfg}
}

// Start opens a mono 16 bit device and feeds it from a pump goroutine.
func (d *Device) Start(gen backend.Generator) error {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("failed to initialize SDL2 audio: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(gen.HostRate()),
		Format:   sdl.AUDIO_S16SYS,
		Channels: 1,
		Samples:  uint16(d.cfg.Frames()),
	}

	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return fmt.Errorf("failed to open SDL2 audio device: %w", err)
	}

	d.dev = dev
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	sdl.PauseAudioDevice(dev, false)
	go d.pump(gen)

	slog.Info("sdl2 audio device started", "sample_rate", gen.HostRate())
	return nil
}

// pump keeps queueDepth buffers queued ahead of the hardware.
func (d *Device) pump(gen backend.Generator) {
	defer close(d.done)

	frames := d.cfg.Frames()
	samples := make([]int16, frames)
	raw := make([]byte, frames*2)
	target := uint32(frames * 2 * queueDepth)

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if sdl.GetQueuedAudioSize(d.dev) >= target {
			time.Sleep(2 * time.Millisecond)
			continue
		}

		gen.Generate(samples)
		backend.EncodePCM16LE(raw, samples)
		if err := sdl.QueueAudio(d.dev, raw); err != nil {
			slog.Error("failed to queue audio", "error", err)
			return
		}
	}
}

// Close stops the pump and releases the device.
func (d *Device) Close() error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	<-d.done
	d.stop = nil

	sdl.CloseAudioDevice(d.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}
