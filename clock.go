package tetragl

import (
	"fmt"
	"math"
	"time"
)

// Clock tracks the time elapsed since the first rendered frame and the time between frames.
type Clock struct {
	now     func() time.Time
	start   time.Time
	last    time.Time
	elapsed float64 // Seconds since the first tick
	delta   time.Duration
	ticks   int
}

// NewClock returns a Clock reading the current time from now; nil uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Tick samples the clock. The first tick sets the start time, so Time reports 0 and Delta reports
// 0 until the second tick.
func (clock *Clock) Tick() {

	t := clock.now()

	if clock.ticks == 0 {
		clock.start = t
	} else {
		clock.delta = t.Sub(clock.last)
	}

	clock.last = t
	clock.elapsed = t.Sub(clock.start).Seconds()
	clock.ticks++

}

// Time returns the seconds elapsed between the first and the latest tick.
func (clock *Clock) Time() float32 {
	return float32(clock.elapsed)
}

// Delta returns the time between the two latest ticks.
func (clock *Clock) Delta() time.Duration {
	return clock.delta
}

// Ticks returns how many times Tick has been called.
func (clock *Clock) Ticks() int {
	return clock.ticks
}

// Format returns the elapsed time as "mm:ss:cc", where cc are hundredths of a second.
func (clock *Clock) Format() string {
	hundredths := int(math.Floor(math.Mod(clock.elapsed, 1) * 100))
	if hundredths >= 100 {
		hundredths = 0
	}
	seconds := int(math.Floor(clock.elapsed)) % 60
	minutes := int(math.Floor(clock.elapsed / 60))
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, hundredths)
}
