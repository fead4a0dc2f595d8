package testingx

import (
	"sync"
	"time"
)

// TimeDeterministic is a replacement for time.Now where the first call returns
// the zero time and each following call returns a time one second later. Observers
// that take a TimeNow func use it to produce stable timestamps and durations.
//
// It's safe to use this struct from multiple goroutine contexts.
type TimeDeterministic struct {
	mu    sync.Mutex
	next  time.Time
	ticks int
}

// NewTimeDeterministic creates a new instance starting at zeroTime. The zero
// value of TimeDeterministic starts at the time of the first Now call.
func NewTimeDeterministic(zeroTime time.Time) *TimeDeterministic {
	return &TimeDeterministic{next: zeroTime}
}

// Now implements time.Now.
func (td *TimeDeterministic) Now() time.Time {
	td.mu.Lock()
	defer td.mu.Unlock()
	if td.next.IsZero() {
		td.next = time.Now()
	}
	now := td.next
	td.next = td.next.Add(time.Second)
	td.ticks++
	return now
}

// Ticks returns the number of Now calls so far.
func (td *TimeDeterministic) Ticks() int {
	td.mu.Lock()
	defer td.mu.Unlock()
	return td.ticks
}
