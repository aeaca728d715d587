package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/match3duel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Tickers it hands out only fire when Tick is called.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// NewTicker registers a ticker that fires on Tick
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick advances the clock by d and delivers one tick to every live ticker.
// Each delivery blocks until the ticker's reader receives it or the ticker
// is stopped. Returns the number of ticks delivered.
func (c *MockClock) Tick(d time.Duration) int {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current
	live := c.tickers[:0]
	for _, t := range c.tickers {
		if !t.isStopped() {
			live = append(live, t)
		}
	}
	c.tickers = live
	targets := append([]*MockTicker(nil), live...)
	c.mu.Unlock()

	delivered := 0
	for _, t := range targets {
		if t.fire(now) {
			delivered++
		}
	}
	return delivered
}

// ActiveTickers returns how many tickers have not been stopped
func (c *MockClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

// MockTicker is the ticker returned by MockClock
type MockTicker struct {
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

func (t *MockTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

func (t *MockTicker) fire(now time.Time) bool {
	select {
	case t.ch <- now:
		return true
	case <-t.stopped:
		return false
	}
}

func (t *MockTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
