// Package openprice captures the daily baseline ("open") prices.
package openprice

import (
	"sync"
	"time"
)

// DailyTrigger fires once per calendar day at a fixed wall-clock time in a
// fixed location. It does not sleep: callers poll Due from their own loop.
type DailyTrigger struct {
	mu     sync.Mutex
	hour   int
	minute int
	loc    *time.Location
	next   time.Time
}

// NewDailyTrigger arms a trigger for hour:minute in loc, first firing at the
// next occurrence strictly after now.
func NewDailyTrigger(hour, minute int, loc *time.Location, now time.Time) *DailyTrigger {
	if loc == nil {
		loc = time.Local
	}
	t := &DailyTrigger{hour: hour, minute: minute, loc: loc}
	t.next = t.nextAfter(now)
	return t
}

// Due reports whether the scheduled instant has been reached. When it has,
// the trigger re-arms for the following day. A window missed by more than a
// day fires once, not once per missed day.
func (t *DailyTrigger) Due(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Before(t.next) {
		return false
	}
	t.next = t.nextAfter(now)
	return true
}

// Next returns the instant the trigger will fire.
func (t *DailyTrigger) Next() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// nextAfter computes the first hour:minute strictly after now. Built from the
// calendar date rather than adding 24h so DST transitions keep wall time.
func (t *DailyTrigger) nextAfter(now time.Time) time.Time {
	local := now.In(t.loc)
	y, m, d := local.Date()
	candidate := time.Date(y, m, d, t.hour, t.minute, 0, 0, t.loc)
	if !candidate.After(local) {
		candidate = time.Date(y, m, d+1, t.hour, t.minute, 0, 0, t.loc)
	}
	return candidate
}
