package editor

import "time"

// Timer is the part of *time.Timer the session needs.
type Timer interface {
	Stop() bool
}

// Clock schedules debounce callbacks. Tests replace it with a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
