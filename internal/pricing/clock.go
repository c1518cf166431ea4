package pricing

import "time"

// SystemClock implements domain.Clock with the wall clock.
type SystemClock struct{}

// NewSystemClock creates the wall clock (DI constructor).
func NewSystemClock() SystemClock { return SystemClock{} }

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
