package acquisition

import (
	"time"

	"github.com/sweeney/motodash/internal/gps"
)

// Clock latches the receiver's date and time once and then runs from the
// local monotonic clock.
type Clock struct {
	offset   time.Duration
	base     time.Time
	syncedAt time.Time
	synced   bool
}

// NewClock creates a clock showing GPS time shifted by offset.
func NewClock(offset time.Duration) Clock {
	return Clock{offset: offset}
}

// Sync latches the GPS time the first time both date and time are valid.
func (c *Clock) Sync(fix gps.Fix, now time.Time) bool {
	if c.synced {
		return false
	}
	utc, ok := fix.UTC()
	if !ok {
		return false
	}
	c.base = utc.Add(c.offset)
	c.syncedAt = now
	c.synced = true
	return true
}

// Now returns the local time of day, if synced.
func (c *Clock) Now(now time.Time) (time.Time, bool) {
	if !c.synced {
		return time.Time{}, false
	}
	return c.base.Add(now.Sub(c.syncedAt)), true
}
