package profiler

import "time"

// FPSCounter computes frames per second over windows of at least one
// second. The zero value is ready to use.
type FPSCounter struct {
	fps        float64
	frameCount int
	lastTime   time.Time
}

// Tick counts a frame at now. It reports true when the rate was updated.
func (c *FPSCounter) Tick(now time.Time) bool {
	if c.lastTime.IsZero() {
		c.lastTime = now
	}
	c.frameCount++

	elapsed := now.Sub(c.lastTime).Seconds()
	if elapsed < 1.0 {
		return false
	}
	c.fps = float64(c.frameCount) / elapsed
	c.frameCount = 0
	c.lastTime = now
	return true
}

// FPS returns the rate of the last completed window.
func (c *FPSCounter) FPS() float64 {
	return c.fps
}
