package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torvik/gotaudio/gotaudio/backend"
)

type rampGenerator struct {
	next int16
}

func (g *rampGenerator) Generate(out []int16) {
	for i := range out {
		out[i] = g.next
		g.next++
	}
}

func (g *rampGenerator) HostRate() uint32 { return 44100 }

func TestPumpPullsFromGenerator(t *testing.T) {
	d := New(backend.Config{BufferFrames: 8})
	require.NoError(t, d.Start(&rampGenerator{}))

	out := d.Pump()
	require.Len(t, out, 8)
	assert.Equal(t, int16(0), out[0])
	assert.Equal(t, int16(7), out[7])

	out = d.Pump()
	assert.Equal(t, int16(8), out[0])
}

func TestPumpBeforeStart(t *testing.T) {
	d := New(backend.Config{})
	assert.Nil(t, d.Pump())
}

func TestCloseDetaches(t *testing.T) {
	d := New(backend.Config{})
	require.NoError(t, d.Start(&rampGenerator{}))
	require.NoError(t, d.Close())
	assert.Nil(t, d.Pump())
}
