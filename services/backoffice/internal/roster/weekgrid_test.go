package roster

import (
	"testing"
	"time"
)

func shift(id, start, end string) Shift {
	return Shift{ID: id, StartsAt: start, EndsAt: end}
}

func visibleCount(grid WeekGrid, shiftID string) int {
	n := 0
	for _, row := range grid.Rows {
		for _, cell := range row.Visible() {
			for _, s := range cell.Shifts {
				if s.ID == shiftID {
					n++
				}
			}
		}
	}
	return n
}

func assertFullWidth(t *testing.T, grid WeekGrid) {
	t.Helper()
	for _, row := range grid.Rows {
		cols := 0
		for _, cell := range row.Visible() {
			cols += cell.ColSpan
		}
		if cols != DaysPerWeek {
			t.Errorf("row %d spans %d columns, want %d", row.Index, cols, DaysPerWeek)
		}
	}
}

func TestBuildWeekGridSharedRow(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("mon", "2024-01-01T09:00:00Z", "2024-01-01T17:00:00Z"),
		shift("wed", "2024-01-03T09:00:00Z", "2024-01-03T17:00:00Z"),
	})

	if len(grid.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(grid.Rows))
	}
	row := grid.Rows[0]
	if row.TimeRange != "09:00–17:00" {
		t.Errorf("TimeRange = %q", row.TimeRange)
	}
	if got := len(row.Cells[Monday].Shifts); got != 1 {
		t.Errorf("Monday shifts = %d, want 1", got)
	}
	if got := len(row.Cells[Wednesday].Shifts); got != 1 {
		t.Errorf("Wednesday shifts = %d, want 1", got)
	}
	if len(grid.Spans) != 0 {
		t.Errorf("spans = %d, want 0", len(grid.Spans))
	}
	if got := len(row.Visible()); got != DaysPerWeek {
		t.Errorf("visible cells = %d, want %d", got, DaysPerWeek)
	}
}

func TestBuildWeekGridOvernight(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("night", "2024-01-01T18:00:00Z", "2024-01-02T06:00:00Z"),
		shift("day", "2024-01-01T09:00:00Z", "2024-01-01T17:00:00Z"),
	})

	if len(grid.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(grid.Rows))
	}
	if grid.Rows[0].TimeRange != "09:00–17:00" {
		t.Errorf("row 0 = %q, want the earlier range first", grid.Rows[0].TimeRange)
	}
	if len(grid.Spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(grid.Spans))
	}

	span := grid.Spans[0]
	if span.StartDay != Monday || span.EndDay != Tuesday {
		t.Errorf("span days = %s..%s, want Monday..Tuesday", span.StartDay, span.EndDay)
	}
	if span.Days != 2 || span.ColSpan != 2 || span.Continues {
		t.Errorf("span = %+v", span)
	}
	if got := grid.Rows[1].Cells[Monday].ColSpan; got != 2 {
		t.Errorf("Monday colspan = %d, want 2", got)
	}
	if !grid.Rows[1].Cells[Tuesday].Suppressed {
		t.Error("Tuesday lies under Monday's span and should be suppressed")
	}
	if got := visibleCount(grid, "night"); got != 1 {
		t.Errorf("visible cells for night shift = %d, want 1", got)
	}
	assertFullWidth(t, grid)
}

func TestBuildWeekGridThreeDaySpan(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("long", "2024-01-01T20:00:00Z", "2024-01-03T04:00:00Z"),
	})

	row := grid.Rows[0]
	if !row.Cells[Tuesday].Suppressed {
		t.Error("Tuesday should be suppressed")
	}
	if !row.Cells[Wednesday].Suppressed {
		t.Error("Wednesday is covered by the span and should be suppressed")
	}
	if row.Cells[Monday].ColSpan != 3 {
		t.Errorf("Monday colspan = %d, want 3", row.Cells[Monday].ColSpan)
	}
	if got := len(row.Visible()); got != DaysPerWeek-2 {
		t.Errorf("visible cells = %d, want %d", got, DaysPerWeek-2)
	}
	assertFullWidth(t, grid)
}

func TestBuildWeekGridChainedSpans(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("mon", "2024-01-01T18:00:00Z", "2024-01-02T06:00:00Z"),
		shift("tue", "2024-01-02T18:00:00Z", "2024-01-03T06:00:00Z"),
	})

	if len(grid.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(grid.Rows))
	}
	row := grid.Rows[0]
	if got := row.Cells[Monday].ColSpan; got != 3 {
		t.Errorf("Monday colspan = %d, want 3", got)
	}
	if !row.Cells[Tuesday].Suppressed || !row.Cells[Wednesday].Suppressed {
		t.Error("Tuesday and Wednesday should be covered by Monday's cell")
	}
	if got := len(row.Cells[Monday].Shifts); got != 2 {
		t.Errorf("Monday cell shifts = %d, want 2", got)
	}
	for _, id := range []string{"mon", "tue"} {
		if got := visibleCount(grid, id); got != 1 {
			t.Errorf("shift %s rendered %d times, want 1", id, got)
		}
	}
	assertFullWidth(t, grid)
}

func TestBuildWeekGridShiftOnEndDayFolded(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("long", "2024-01-01T20:00:00Z", "2024-01-03T04:00:00Z"),
		shift("wed", "2024-01-03T20:00:00Z", "2024-01-04T04:00:00Z"),
	})

	row := grid.Rows[0]
	if got := row.Cells[Monday].ColSpan; got != 4 {
		t.Errorf("Monday colspan = %d, want 4", got)
	}
	for _, d := range []Weekday{Tuesday, Wednesday, Thursday} {
		cell := row.Cells[d]
		if !cell.Suppressed || len(cell.Shifts) != 0 {
			t.Errorf("%s = %+v, want suppressed and empty", d, cell)
		}
	}
	for _, id := range []string{"long", "wed"} {
		if got := visibleCount(grid, id); got != 1 {
			t.Errorf("shift %s rendered %d times, want 1", id, got)
		}
	}
	assertFullWidth(t, grid)
}

func TestBuildWeekGridWeekBoundary(t *testing.T) {
	tests := []struct {
		name       string
		shift      Shift
		startDay   Weekday
		endDay     Weekday
		days       int
		colSpan    int
		suppressed []Weekday
	}{
		{
			name:     "sundayIntoMonday",
			shift:    shift("sun", "2024-01-07T22:00:00Z", "2024-01-08T06:00:00Z"),
			startDay: Sunday,
			endDay:   Monday,
			days:     2,
			colSpan:  1,
		},
		{
			name:       "saturdayIntoNextMonday",
			shift:      shift("sat", "2024-01-06T22:00:00Z", "2024-01-08T02:00:00Z"),
			startDay:   Saturday,
			endDay:     Monday,
			days:       3,
			colSpan:    2,
			suppressed: []Weekday{Sunday},
		},
	}

	r := utcReconciler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := r.BuildWeekGrid([]Shift{tt.shift})
			if len(grid.Spans) != 1 {
				t.Fatalf("spans = %d, want 1", len(grid.Spans))
			}
			span := grid.Spans[0]
			if span.StartDay != tt.startDay || span.EndDay != tt.endDay {
				t.Errorf("span days = %s..%s, want %s..%s", span.StartDay, span.EndDay, tt.startDay, tt.endDay)
			}
			if span.Days != tt.days || span.ColSpan != tt.colSpan {
				t.Errorf("span = %+v", span)
			}
			if !span.Continues {
				t.Error("span should continue into next week")
			}

			row := grid.Rows[0]
			if row.Cells[Monday].Suppressed {
				t.Error("this week's Monday must not be touched by a wrapped span")
			}
			for _, d := range tt.suppressed {
				if !row.Cells[d].Suppressed {
					t.Errorf("%s should be suppressed", d)
				}
			}
			if !row.Cells[tt.startDay].Continues {
				t.Error("start cell should be marked as continuing")
			}
			if got := visibleCount(grid, tt.shift.ID); got != 1 {
				t.Errorf("visible cells = %d, want 1", got)
			}
			assertFullWidth(t, grid)
		})
	}
}

func TestBuildWeekGridOverflowAndUnplaced(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("a", "2024-01-01T06:00:00Z", "2024-01-01T14:00:00Z"),
		shift("b", "2024-01-01T14:00:00Z", "2024-01-01T22:00:00Z"),
		shift("c", "2024-01-01T22:00:00Z", "2024-01-02T06:00:00Z"),
		shift("bad", "not a date", "2024-01-02T06:00:00Z"),
	})

	if len(grid.Rows) != VisibleRows {
		t.Errorf("rows = %d, want %d", len(grid.Rows), VisibleRows)
	}
	if len(grid.Overflow) != 1 || grid.Overflow[0].ID != "c" {
		t.Errorf("overflow = %v, want [c]", grid.Overflow)
	}
	if len(grid.Unplaced) != 1 || grid.Unplaced[0].ID != "bad" {
		t.Errorf("unplaced = %v, want [bad]", grid.Unplaced)
	}
	if len(grid.Spans) != 0 {
		t.Errorf("overflowing shift should not produce a span, got %d", len(grid.Spans))
	}
}

func TestBuildWeekGridMalformedEnd(t *testing.T) {
	r := utcReconciler()
	grid := r.BuildWeekGrid([]Shift{
		shift("broken", "2024-01-02T18:00:00Z", "??"),
	})

	if len(grid.Spans) != 0 {
		t.Errorf("spans = %d, want 0", len(grid.Spans))
	}
	if len(grid.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(grid.Rows))
	}
	cell := grid.Rows[0].Cells[Tuesday]
	if len(cell.Shifts) != 1 || cell.ColSpan != 1 {
		t.Errorf("cell = %+v, want one shift with colspan 1", cell)
	}
}

func TestBuildWeekGridNoDoubleRender(t *testing.T) {
	r := utcReconciler()
	shifts := []Shift{
		shift("n1", "2024-01-01T22:00:00Z", "2024-01-02T06:00:00Z"),
		shift("n2", "2024-01-03T22:00:00Z", "2024-01-04T06:00:00Z"),
		shift("n3", "2024-01-05T22:00:00Z", "2024-01-06T06:00:00Z"),
		shift("n4", "2024-01-07T22:00:00Z", "2024-01-08T06:00:00Z"),
		shift("d1", "2024-01-02T10:00:00Z", "2024-01-02T18:00:00Z"),
	}
	grid := r.BuildWeekGrid(shifts)

	for _, s := range shifts {
		if got := visibleCount(grid, s.ID); got != 1 {
			t.Errorf("shift %s rendered %d times, want 1", s.ID, got)
		}
	}
	assertFullWidth(t, grid)
}

func TestWeekOf(t *testing.T) {
	r := utcReconciler()
	tests := []struct {
		name string
		at   time.Time
	}{
		{name: "wednesday", at: time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)},
		{name: "monday", at: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "sundayNight", at: time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC)},
	}

	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := r.WeekOf(tt.at)
			if !start.Equal(wantStart) || !end.Equal(wantEnd) {
				t.Errorf("WeekOf() = %s..%s, want %s..%s", start, end, wantStart, wantEnd)
			}
		})
	}
}
