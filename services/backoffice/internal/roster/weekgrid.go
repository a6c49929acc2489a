package roster

import (
	"sort"
	"time"
)

// Weekday indexes grid columns, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

const (
	DaysPerWeek = 7
	// VisibleRows is the number of slot rows the week view renders.
	VisibleRows = 2
)

var weekdayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < 0 || int(d) >= DaysPerWeek {
		return "Unknown"
	}
	return weekdayNames[d]
}

func weekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % DaysPerWeek)
}

// Span describes how an overnight shift is laid out across day columns.
type Span struct {
	Shift    Shift   `json:"shift"`
	StartDay Weekday `json:"startDay"`
	EndDay   Weekday `json:"endDay"`
	Row      int     `json:"row"`
	Days     int     `json:"spanDays"`
	ColSpan  int     `json:"colSpan"`
	// Continues is set when the shift runs past the last displayed column.
	Continues bool `json:"continues"`
}

// Cell is one (day, row) position of the grid.
type Cell struct {
	Day        Weekday `json:"day"`
	Row        int     `json:"row"`
	Shifts     []Shift `json:"shifts"`
	ColSpan    int     `json:"colSpan"`
	Suppressed bool    `json:"suppressed"`
	Continues  bool    `json:"continues"`
}

// GridRow groups the shifts sharing one time range.
type GridRow struct {
	Index     int               `json:"index"`
	TimeRange string            `json:"timeRange"`
	Cells     [DaysPerWeek]Cell `json:"cells"`
}

// Visible returns the cells to render, skipping suppressed ones.
func (r GridRow) Visible() []Cell {
	out := make([]Cell, 0, DaysPerWeek)
	for _, c := range r.Cells {
		if !c.Suppressed {
			out = append(out, c)
		}
	}
	return out
}

// WeekGrid is the derived layout of one week of shifts.
type WeekGrid struct {
	Rows  []GridRow `json:"rows"`
	Spans []Span    `json:"spans"`
	// Overflow holds shifts whose time range got a row past VisibleRows.
	Overflow []Shift `json:"overflow,omitempty"`
	// Unplaced holds shifts whose start could not be parsed.
	Unplaced []Shift `json:"unplaced,omitempty"`
}

type placed struct {
	shift Shift
	start time.Time
	label string
}

// BuildWeekGrid buckets the shifts of one week into day columns and slot rows
// and lays overnight shifts out as single spanning blocks.
func (r *Reconciler) BuildWeekGrid(shifts []Shift) WeekGrid {
	grid := WeekGrid{}

	items := make([]placed, 0, len(shifts))
	for _, s := range shifts {
		start, err := r.Start(s)
		if err != nil {
			grid.Unplaced = append(grid.Unplaced, s)
			continue
		}
		items = append(items, placed{shift: s, start: start, label: r.TimeRange(s)})
	}

	// Rows follow the time of day their range starts at, so they stay stable across the week.
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := clock(items[i].start), clock(items[j].start)
		if ci != cj {
			return ci < cj
		}
		if items[i].label != items[j].label {
			return items[i].label < items[j].label
		}
		return items[i].start.Before(items[j].start)
	})

	rowOf := map[string]int{}
	for _, it := range items {
		if _, ok := rowOf[it.label]; !ok {
			rowOf[it.label] = len(rowOf)
		}
	}

	rowCount := len(rowOf)
	if rowCount > VisibleRows {
		rowCount = VisibleRows
	}
	grid.Rows = make([]GridRow, rowCount)
	for label, idx := range rowOf {
		if idx < rowCount {
			grid.Rows[idx].Index = idx
			grid.Rows[idx].TimeRange = label
		}
	}
	for i := range grid.Rows {
		for d := 0; d < DaysPerWeek; d++ {
			grid.Rows[i].Cells[d] = Cell{Day: Weekday(d), Row: i, ColSpan: 1}
		}
	}

	for _, it := range items {
		row := rowOf[it.label]
		if row >= VisibleRows {
			grid.Overflow = append(grid.Overflow, it.shift)
			continue
		}

		day := weekdayOf(it.start)
		cell := &grid.Rows[row].Cells[day]
		cell.Shifts = append(cell.Shifts, it.shift)

		if !r.IsOvernight(it.shift) {
			continue
		}

		days := r.SpanDays(it.shift)
		span := Span{
			Shift:     it.shift,
			StartDay:  day,
			EndDay:    Weekday((int(day) + days - 1) % DaysPerWeek),
			Row:       row,
			Days:      days,
			ColSpan:   min(days, DaysPerWeek-int(day)),
			Continues: int(day)+days > DaysPerWeek,
		}
		grid.Spans = append(grid.Spans, span)
	}

	for _, span := range grid.Spans {
		start := &grid.Rows[span.Row].Cells[span.StartDay]
		if span.ColSpan > start.ColSpan {
			start.ColSpan = span.ColSpan
		}
		start.Continues = start.Continues || span.Continues
	}

	for i := range grid.Rows {
		coverRow(&grid.Rows[i])
	}

	return grid
}

// coverRow suppresses every cell lying under an earlier cell's column span.
// A covered cell's shifts move into the covering cell, and a span starting
// there stretches the covering cell, so visible column spans always add up
// to DaysPerWeek.
func coverRow(row *GridRow) {
	cover, end := 0, 0
	for d := 0; d < DaysPerWeek; d++ {
		cell := &row.Cells[d]
		if d >= end {
			cover, end = d, d+cell.ColSpan
			continue
		}

		owner := &row.Cells[cover]
		owner.Shifts = append(owner.Shifts, cell.Shifts...)
		owner.Continues = owner.Continues || cell.Continues
		end = max(end, d+cell.ColSpan)
		owner.ColSpan = min(end, DaysPerWeek) - cover

		cell.Shifts = nil
		cell.ColSpan = 0
		cell.Continues = false
		cell.Suppressed = true
	}
}

func clock(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// WeekOf returns the Monday 00:00 that starts the week containing t and the
// following Monday 00:00, both in the reconciler's location.
func (r *Reconciler) WeekOf(t time.Time) (time.Time, time.Time) {
	t = t.In(r.loc)
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
	monday := day.AddDate(0, 0, -int(weekdayOf(day)))
	return monday, monday.AddDate(0, 0, DaysPerWeek)
}
