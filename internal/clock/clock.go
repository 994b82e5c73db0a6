// Package clock supplies the current calendar day to code that must be
// deterministic under test.
package clock

import (
	"sync"
	"time"

	"fintrack/internal/core"
)

type Clock interface {
	Now() time.Time
	Today() core.Date
}

// System reads the wall clock in the given location (UTC when nil).
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.Location)
}

func (s System) Today() core.Date {
	return core.DateOf(s.Now())
}

// Fixed always reports the same instant until moved.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(d core.Date) *Fixed {
	return &Fixed{now: d.Time}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Today() core.Date {
	return core.DateOf(f.Now())
}

// Advance moves the clock forward by n days.
func (f *Fixed) Advance(days int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.AddDate(0, 0, days)
}

func (f *Fixed) Set(d core.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = d.Time
}
