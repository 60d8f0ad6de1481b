// internal/scheduler/clock.go
package scheduler

import "time"

// Timer matches the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts now + delayed execution so tests can drive scheduled
// steps without waiting wall-clock hours.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}

func NewRealClock() Clock { return realClock{} }
