package service

import "time"

// Clock abstracts the time source so expiry windows can be tested without
// waiting for them.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
