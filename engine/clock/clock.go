// package clock tracks per-frame timing for the engine loop. The engine ticks one Clock
// at the start of every redraw; systems read deltas and elapsed time from it.
package clock

import "time"

// initialDelta is reported for the very first frame, when no previous
// frame start exists to measure against.
const initialDelta = time.Second / 30

// Clock holds frame timing state. Create with NewClock and advance with Tick
// once per frame; all accessors refer to the most recent tick.
type Clock struct {
	delta      time.Duration
	elapsed    time.Duration
	frameStart time.Time
}

// NewClock creates a Clock that has not seen a frame yet. Delta reports a
// 1/30 s placeholder until the first Tick.
//
// Returns:
//   - *Clock: the newly created clock
func NewClock() *Clock {
	return &Clock{
		delta: initialDelta,
	}
}

// Tick marks the start of a new frame, updating delta, elapsed time, and the
// frame start timestamp. Call exactly once per redraw.
func (c *Clock) Tick() {
	c.tick(time.Now())
}

func (c *Clock) tick(now time.Time) {
	if c.frameStart.IsZero() {
		// the initial delta is arbitrary, there is no previous frame to measure
		c.delta = initialDelta
	} else {
		c.delta = now.Sub(c.frameStart)
	}
	c.elapsed += c.delta
	c.frameStart = now
}

// Delta returns the time between the two most recent ticks.
//
// Returns:
//   - time.Duration: time since the last frame
func (c *Clock) Delta() time.Duration {
	return c.delta
}

// DeltaSeconds returns Delta as seconds.
//
// Returns:
//   - float64: seconds since the last frame
func (c *Clock) DeltaSeconds() float64 {
	return c.delta.Seconds()
}

// Elapsed returns the total time accumulated across all ticks.
//
// Returns:
//   - time.Duration: total running duration
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// ElapsedSeconds returns Elapsed as seconds.
//
// Returns:
//   - float64: total running duration in seconds
func (c *Clock) ElapsedSeconds() float64 {
	return c.elapsed.Seconds()
}

// FrameStart returns the timestamp of the most recent tick. Panics if called
// before the first Tick; reading a frame start with no frame running is an
// integration bug.
//
// Returns:
//   - time.Time: the instant the current frame began
func (c *Clock) FrameStart() time.Time {
	if c.frameStart.IsZero() {
		panic("clock: FrameStart called before first tick")
	}
	return c.frameStart
}
