package interview

import "time"

// Clock is the controller's time source. Tests substitute a manual clock so
// the greeting delay and the elapsed counter can be driven deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
