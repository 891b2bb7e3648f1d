package util

import "time"

// Clock abstracts wall time so expiry and cancel deadlines are testable.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
