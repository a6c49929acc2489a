package backoffice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/backoffice/pkg/enums/linestatus"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/roster"
)

type lineView struct {
	ID          string          `json:"id"`
	DishName    string          `json:"dishName"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"statusLabel"`
}

type orderView struct {
	ID            string          `json:"id"`
	ReservationID string          `json:"reservationId"`
	StaffID       string          `json:"staffId"`
	Status        string          `json:"status"`
	Lines         []lineView      `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	BillableTotal decimal.Decimal `json:"billableTotal"`
	AllDelivered  bool            `json:"allDelivered"`
	CanSettle     bool            `json:"canSettle"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func newOrderView(order billing.Order) orderView {
	lines := make([]lineView, 0, len(order.Lines))
	for _, line := range order.Lines {
		label := line.Status
		if status := linestatus.ByName(line.Status); status != nil {
			label = status.Label()
		}
		lines = append(lines, lineView{
			ID:          line.ID,
			DishName:    line.DishName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Total:       billing.LineTotal(line),
			Status:      line.Status,
			StatusLabel: label,
		})
	}

	return orderView{
		ID:            order.ID,
		ReservationID: order.ReservationID,
		StaffID:       order.StaffID,
		Status:        billing.DeriveStatus(order),
		Lines:         lines,
		Total:         billing.OrderTotal(order),
		BillableTotal: billing.BillableTotal(order),
		AllDelivered:  order.AllDelivered(),
		CanSettle:     billing.CanSettle(order),
		UpdatedAt:     order.UpdatedAt,
	}
}

type shiftView struct {
	roster.Shift
	TimeRange string `json:"timeRange"`
	Overnight bool   `json:"overnight"`
	SpanDays  int    `json:"spanDays"`
}

func newShiftView(r *roster.Reconciler, s roster.Shift) shiftView {
	return shiftView{
		Shift:     s,
		TimeRange: r.TimeRange(s),
		Overnight: r.IsOvernight(s),
		SpanDays:  r.SpanDays(s),
	}
}

// weekView is the payload of the week endpoints and the roster page.
type weekView struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Days     []weekDayHeader `json:"days"`
	Grid     roster.WeekGrid `json:"grid"`
	PrevDate string          `json:"prevDate"`
	NextDate string          `json:"nextDate"`
}

type weekDayHeader struct {
	Weekday roster.Weekday `json:"weekday"`
	Name    string         `json:"name"`
	Date    string         `json:"date"`
}

func newWeekView(from, to time.Time, grid roster.WeekGrid) weekView {
	days := make([]weekDayHeader, 0, roster.DaysPerWeek)
	for d := 0; d < roster.DaysPerWeek; d++ {
		day := from.AddDate(0, 0, d)
		days = append(days, weekDayHeader{
			Weekday: roster.Weekday(d),
			Name:    roster.Weekday(d).String(),
			Date:    day.Format(dateLayout),
		})
	}
	return weekView{
		From:     from,
		To:       to,
		Days:     days,
		Grid:     grid,
		PrevDate: from.AddDate(0, 0, -roster.DaysPerWeek).Format(dateLayout),
		NextDate: to.Format(dateLayout),
	}
}
