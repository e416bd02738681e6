package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstTickUsesPlaceholderDelta(t *testing.T) {
	c := NewClock()
	assert.Equal(t, time.Second/30, c.Delta(), "delta before any tick")

	c.tick(time.Unix(100, 0))
	assert.Equal(t, time.Second/30, c.Delta(), "first tick has no previous frame")
	assert.Equal(t, time.Second/30, c.Elapsed())
}

func TestDeltaMeasuresFrameGap(t *testing.T) {
	c := NewClock()
	start := time.Unix(100, 0)
	c.tick(start)
	c.tick(start.Add(16 * time.Millisecond))

	assert.Equal(t, 16*time.Millisecond, c.Delta())
	assert.Equal(t, start.Add(16*time.Millisecond), c.FrameStart())
}

func TestElapsedAccumulates(t *testing.T) {
	c := NewClock()
	start := time.Unix(100, 0)
	c.tick(start)
	c.tick(start.Add(10 * time.Millisecond))
	c.tick(start.Add(30 * time.Millisecond))

	want := time.Second/30 + 10*time.Millisecond + 20*time.Millisecond
	assert.Equal(t, want, c.Elapsed())
	assert.InDelta(t, 0.020, c.DeltaSeconds(), 1e-9)
}

func TestFrameStartPanicsBeforeFirstTick(t *testing.T) {
	c := NewClock()
	assert.Panics(t, func() { c.FrameStart() })
}
