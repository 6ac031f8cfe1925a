// Package clock provides time abstractions for production and testing
package clock

import "time"

// SystemClock provides production time implementation using the standard library
type SystemClock struct{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant. Used to build reproducible fixtures.
type FixedClock struct {
	At time.Time
}

// After returns a channel that sends the fixed time after the specified duration
func (c FixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	time.AfterFunc(d, func() { ch <- c.At })
	return ch
}

// Now returns the fixed time
func (c FixedClock) Now() time.Time {
	return c.At
}
