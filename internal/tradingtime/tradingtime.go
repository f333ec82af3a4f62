// Package tradingtime decides whether the exchange is in a continuous trading session.
package tradingtime

import "time"

// Session is an intraday window. Both ends are inclusive at minute granularity,
// so the whole End minute (e.g. 11:30:59) is still open.
type Session struct {
	Start Clock
	End   Clock
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// DefaultSessions are the A-share morning and afternoon sessions.
var DefaultSessions = []Session{
	{Start: Clock{Hour: 9, Minute: 30}, End: Clock{Hour: 11, Minute: 30}},
	{Start: Clock{Hour: 13, Minute: 0}, End: Clock{Hour: 15, Minute: 0}},
}

// Predicate reports whether polling should happen at t.
type Predicate interface {
	IsOpen(t time.Time) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(t time.Time) bool

func (f PredicateFunc) IsOpen(t time.Time) bool {
	return f(t)
}

// Always returns a predicate with a fixed answer.
func Always(open bool) Predicate {
	return PredicateFunc(func(time.Time) bool { return open })
}

// Calendar evaluates sessions Monday to Friday in a fixed location.
// Exchange holidays are not modelled.
type Calendar struct {
	Location *time.Location
	Sessions []Session
}

// NewCalendar creates a calendar with the default sessions. A nil location means time.Local.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}

	return &Calendar{
		Location: loc,
		Sessions: DefaultSessions,
	}
}

// IsOpen reports whether t falls inside a session on a weekday.
func (c *Calendar) IsOpen(t time.Time) bool {
	local := t.In(c.Location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minute := local.Hour()*60 + local.Minute()

	for _, s := range c.Sessions {
		if minute >= s.Start.minutes() && minute <= s.End.minutes() {
			return true
		}
	}

	return false
}

// IsTradingTime evaluates t against the default sessions in t's own location.
func IsTradingTime(t time.Time) bool {
	return NewCalendar(t.Location()).IsOpen(t)
}
