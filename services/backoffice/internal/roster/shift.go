package roster

import (
	"fmt"
	"strings"
	"time"
)

// StaffRef identifies a staff member assigned to a shift.
type StaffRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Shift is a scheduled work period. Timestamps are kept as received so that
// one malformed record degrades on its own instead of failing a whole payload.
type Shift struct {
	ID       string     `json:"id"`
	StartsAt string     `json:"startTime"`
	EndsAt   string     `json:"endTime"`
	Manager  *StaffRef  `json:"manager,omitempty"`
	Staff    []StaffRef `json:"staff"`
	Note     string     `json:"note"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseError reports a timestamp that none of the accepted layouts could read.
type ParseError struct {
	ShiftID string
	Field   string
	Value   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("shift %s: cannot parse %s %q", e.ShiftID, e.Field, e.Value)
}

// parseTimestamp reads a timestamp in loc. Layouts without an offset are
// interpreted in loc; layouts with one are converted to it.
func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// TimeRange is the textual "HH:MM–HH:MM" label used to group shifts into rows.
// An unparsable end renders as "?".
func (r *Reconciler) TimeRange(s Shift) string {
	start, ok := parseTimestamp(s.StartsAt, r.loc)
	if !ok {
		return "?–?"
	}
	end, ok := parseTimestamp(s.EndsAt, r.loc)
	if !ok {
		return start.Format("15:04") + "–?"
	}
	return start.Format("15:04") + "–" + end.Format("15:04")
}
