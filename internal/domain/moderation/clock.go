package moderation

import "time"

// Clock interface for time operations (supports testing)
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual system time
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock implements Clock for testing
type FixedClock struct {
	CurrentTime time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}
