package sim

import "math"

// ImpulseClock is a repeating timer advanced by elapsed tick time.
type ImpulseClock struct {
	period  float64
	elapsed float64
	fires   int
}

func NewImpulseClock(period float32) *ImpulseClock {
	return &ImpulseClock{period: float64(period)}
}

// Advance adds dt and reports whether the period was crossed. A long tick fires
// once; the time past the last whole period carries over.
func (c *ImpulseClock) Advance(dt float32) bool {
	c.elapsed += float64(dt)
	if c.elapsed < c.period {
		return false
	}
	c.elapsed = math.Mod(c.elapsed, c.period)
	c.fires++
	return true
}

func (c *ImpulseClock) Elapsed() float64 { return c.elapsed }
func (c *ImpulseClock) Period() float64  { return c.period }
func (c *ImpulseClock) Fires() int       { return c.fires }
