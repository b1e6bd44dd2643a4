//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/torvik/gotaudio/gotaudio/backend"
)

// Device stub for when SDL2 is not available.
type Device struct{}

func New(cfg backend.Config) *Device {
	return &Device{}
}

// Start returns an error indicating SDL2 is not available.
func (d *Device) Start(gen backend.Generator) error {
	return fmt.Errorf("SDL2 backend not available - build with -tags sdl2 to enable")
}

// Close does nothing.
func (d *Device) Close() error {
	return nil
}
