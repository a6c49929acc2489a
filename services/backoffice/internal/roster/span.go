package roster

import (
	"time"
)

// Reconciler evaluates calendar days in a fixed location.
type Reconciler struct {
	loc *time.Location
}

func NewReconciler(loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{loc: loc}
}

// Location returns the location calendar days are evaluated in.
func (r *Reconciler) Location() *time.Location {
	return r.loc
}

// Start parses the shift start.
func (r *Reconciler) Start(s Shift) (time.Time, error) {
	t, ok := parseTimestamp(s.StartsAt, r.loc)
	if !ok {
		return time.Time{}, &ParseError{ShiftID: s.ID, Field: "start", Value: s.StartsAt}
	}
	return t, nil
}

// End parses the shift end.
func (r *Reconciler) End(s Shift) (time.Time, error) {
	t, ok := parseTimestamp(s.EndsAt, r.loc)
	if !ok {
		return time.Time{}, &ParseError{ShiftID: s.ID, Field: "end", Value: s.EndsAt}
	}
	return t, nil
}

// IsOvernight is true iff the end falls on another calendar day than the start
// and the end is strictly after the start. Unparsable timestamps are never overnight.
func (r *Reconciler) IsOvernight(s Shift) bool {
	start, err := r.Start(s)
	if err != nil {
		return false
	}
	end, err := r.End(s)
	if err != nil {
		return false
	}
	return end.After(start) && !sameDay(start, end)
}

// SpanDays counts calendar days from start to end, start day included, never below 1.
func (r *Reconciler) SpanDays(s Shift) int {
	start, err := r.Start(s)
	if err != nil {
		return 1
	}
	end, err := r.End(s)
	if err != nil {
		return 1
	}
	days := dayDifference(end, start) + 1
	if days < 1 {
		return 1
	}
	return days
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayDifference counts midnights between the calendar days of a and b.
// Dates are compared in UTC so DST transitions do not skew the count.
func dayDifference(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(da.Sub(db).Hours() / 24)
}
