package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/torvik/gotaudio/gotaudio"
	"github.com/torvik/gotaudio/gotaudio/backend"
	"github.com/torvik/gotaudio/gotaudio/backend/headless"
	"github.com/torvik/gotaudio/gotaudio/backend/oto"
	"github.com/torvik/gotaudio/gotaudio/backend/sdl2"
)

// serviceTick is the game's heartbeat: PC speaker scripts consume one
// divisor per tick.
const serviceTick = time.Second / 120

func main() {
	app := cli.NewApp()
	app.Name = "gotaudio"
	app.Description = "Demo player for the God of Thunder audio core"
	app.Usage = "gotaudio [options] [VOC file]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "voc",
			Usage: "Path to a VOC sound file to play",
		},
		cli.BoolFlag{
			Name:  "tone",
			Usage: "Play an OPL2 test note instead of a sample",
		},
		cli.BoolFlag{
			Name:  "pc-speaker",
			Usage: "Play a PC speaker test scale",
		},
		cli.IntFlag{
			Name:  "rate",
			Usage: "Host sample rate in Hz",
			Value: 44100,
		},
		cli.IntFlag{
			Name:  "buffer",
			Usage: "Device buffer size in frames",
			Value: backend.DefaultBufferFrames,
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Use the SDL2 audio backend (requires a -tags sdl2 build)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Mix without an audio device and report signal stats",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runPlayer

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running player", "error", err)
		os.Exit(1)
	}
}

func runPlayer(c *cli.Context) error {
	if c.Bool("debug") {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))
	}

	vocPath := c.String("voc")
	if vocPath == "" && c.NArg() > 0 {
		vocPath = c.Args().Get(0)
	}
	if vocPath == "" && !c.Bool("tone") && !c.Bool("pc-speaker") {
		cli.ShowAppHelp(c)
		return errors.New("nothing to play: pass a VOC file, --tone or --pc-speaker")
	}

	engine := gotaudio.New(uint32(c.Int("rate")))
	defer engine.Shutdown()

	cfg := backend.Config{BufferFrames: c.Int("buffer")}

	if c.Bool("headless") {
		return runHeadless(engine, cfg, c, vocPath)
	}

	var device backend.Device
	if c.Bool("sdl2") {
		device = sdl2.New(cfg)
	} else {
		device = oto.New(cfg)
	}
	if err := device.Start(engine); err != nil {
		return fmt.Errorf("starting audio device: %w", err)
	}
	defer device.Close()

	switch {
	case c.Bool("tone"):
		return playTone(engine)
	case c.Bool("pc-speaker"):
		return playPCScale(engine)
	default:
		return playVOC(engine, vocPath)
	}
}

func playVOC(engine *gotaudio.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %v", path, err)
	}

	done := make(chan struct{})
	engine.SetSoundFinishedCallback(func() { close(done) })

	if err := engine.PlayVOC(data); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	slog.Info("Playing VOC", "path", path, "bytes", len(data))

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		return errors.New("timed out waiting for playback to finish")
	}
	return nil
}

// playTone keys a sustaining A4 on channel 0 for two seconds.
func playTone(engine *gotaudio.Engine) error {
	slog.Info("Playing OPL2 test note")

	for _, w := range testPatch() {
		engine.WriteOPL2(w[0], w[1])
	}

	time.Sleep(2 * time.Second)
	engine.WriteOPL2(0xB0, 0x06) // key off
	time.Sleep(500 * time.Millisecond)
	return nil
}

// testPatch is a simple sustaining two-operator voice keyed at 440 Hz.
func testPatch() [][2]byte {
	return [][2]byte{
		{0x20, 0x21}, {0x23, 0x21}, // EGT on, MULT 1
		{0x40, 0x18}, {0x43, 0x00}, // gentle modulation depth
		{0x60, 0xF4}, {0x63, 0xF4}, // fast attack, medium decay
		{0x80, 0x24}, {0x83, 0x24},
		{0xC0, 0x06},               // feedback 3
		{0xA0, 0x44}, {0xB0, 0x26}, // fnum 0x244, block 1, key on
	}
}

// playPCScale steps a short divisor scale at the 120 Hz service cadence.
func playPCScale(engine *gotaudio.Engine) error {
	slog.Info("Playing PC speaker scale")

	freqs := []int{262, 294, 330, 349, 392, 440, 494, 523}
	var script []uint16
	for _, f := range freqs {
		divisor := uint16(1193182 / f)
		for i := 0; i < 15; i++ { // 15 ticks = 125 ms per step
			script = append(script, divisor)
		}
	}
	engine.PlayPCScript(script)

	ticker := time.NewTicker(serviceTick)
	defer ticker.Stop()
	for engine.PCPlaying() {
		<-ticker.C
		engine.ServicePC()
	}
	time.Sleep(100 * time.Millisecond)
	return nil
}

// runHeadless mixes without a device, pumping the engine the way a
// single-threaded host would, and reports the peak level.
func runHeadless(engine *gotaudio.Engine, cfg backend.Config, c *cli.Context, vocPath string) error {
	device := headless.New(cfg)
	if err := device.Start(engine); err != nil {
		return err
	}
	defer device.Close()

	switch {
	case c.Bool("tone"):
		for _, w := range testPatch() {
			engine.WriteOPL2(w[0], w[1])
		}
	case c.Bool("pc-speaker"):
		engine.SetPCDivisor(2711)
	default:
		data, err := os.ReadFile(vocPath)
		if err != nil {
			return fmt.Errorf("reading %s: %v", vocPath, err)
		}
		if err := engine.PlayVOC(data); err != nil {
			return fmt.Errorf("decoding %s: %w", vocPath, err)
		}
	}

	var peak int16
	frames := 0
	for i := 0; i < int(engine.HostRate())*2/cfg.Frames(); i++ {
		for _, v := range device.Pump() {
			if v > peak {
				peak = v
			}
			frames++
		}
	}

	slog.Info("Headless run complete", "frames", frames, "peak", peak)
	return nil
}
