package world

import "time"

// GameTime is the server's monotonic game clock in milliseconds since boot.
// Attack cooldowns and respawn deadlines compare against it; wall-clock time
// is never used for gameplay decisions.
type GameTime int64

// Clock supplies the current game time. Injected so tests can drive time
// explicitly.
type Clock interface {
	Now() GameTime
}

// TickClock is the production clock: game time advances with the tick loop.
// Single-goroutine access (game loop).
type TickClock struct {
	now GameTime
}

func NewTickClock() *TickClock {
	return &TickClock{}
}

func (c *TickClock) Now() GameTime {
	return c.now
}

// Advance moves game time forward by one tick's duration.
func (c *TickClock) Advance(dt time.Duration) {
	c.now += GameTime(dt.Milliseconds())
}

// ManualClock is a test clock set directly.
type ManualClock struct {
	Time GameTime
}

func (c *ManualClock) Now() GameTime { return c.Time }
