// Package clock abstracts time so schedule math and timers can be driven by tests.
package clock

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped the timer.
	Stop() bool
}

// Clock is the time source used by schedulers and the creation wizard.
type Clock interface {
	Now() time.Time
	NowUTC() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock delegates to the time package.
type RealClock struct{}

func (RealClock) Now() time.Time    { return time.Now() }
func (RealClock) NowUTC() time.Time { return time.Now().UTC() }
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
