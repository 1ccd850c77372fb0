package consumer

import "time"

// Ticker abstracts time.Ticker so scheduling can be driven by tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock provides the time functions the consumer depends on.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// RealClock implements Clock with the time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker starts a ticker firing every d.
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (r *realTicker) C() <-chan time.Time {
	return r.ticker.C
}

func (r *realTicker) Stop() {
	r.ticker.Stop()
}

// ManualTicker is a Ticker whose ticks are sent by the caller.
type ManualTicker struct {
	Ticks chan time.Time
}

// NewManualTicker creates a ManualTicker with an unbuffered channel.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{Ticks: make(chan time.Time)}
}

// C returns the tick channel.
func (m *ManualTicker) C() <-chan time.Time {
	return m.Ticks
}

// Stop does nothing; the channel belongs to the caller.
func (m *ManualTicker) Stop() {}

// ManualClock is a Clock that hands out one ManualTicker and a fixed time.
type ManualClock struct {
	Time   time.Time
	Ticker *ManualTicker
}

// Now returns the fixed time.
func (m *ManualClock) Now() time.Time {
	return m.Time
}

// NewTicker returns the clock's ManualTicker, ignoring d.
func (m *ManualClock) NewTicker(time.Duration) Ticker {
	return m.Ticker
}
