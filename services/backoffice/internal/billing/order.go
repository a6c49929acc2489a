package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/backoffice/pkg/enums/linestatus"
)

// Line is one dish entry of an order.
type Line struct {
	ID        string          `json:"id"`
	DishName  string          `json:"dishName"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Status    string          `json:"status"`
}

// Order is a customer's tab of lines, tied to a reservation.
type Order struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	StaffID       string    `json:"staffId"`
	Status        string    `json:"status"`
	Lines         []Line    `json:"lines"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LineTotal is unit price times quantity.
func LineTotal(line Line) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// OrderTotal sums LineTotal over every line of the order.
func OrderTotal(order Order) decimal.Decimal {
	total := decimal.Zero
	for _, line := range order.Lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// FindLine returns the line with the given id.
func (o Order) FindLine(id string) (Line, bool) {
	for _, line := range o.Lines {
		if line.ID == id {
			return line, true
		}
	}
	return Line{}, false
}

// DistinctLineCount counts lines by id, not by quantity.
func (o Order) DistinctLineCount() int {
	seen := make(map[string]struct{}, len(o.Lines))
	for _, line := range o.Lines {
		seen[line.ID] = struct{}{}
	}
	return len(seen)
}

// AllDelivered reports whether every line carries the delivered label.
// An order without lines is vacuously delivered.
func (o Order) AllDelivered() bool {
	for _, line := range o.Lines {
		if !linestatus.IsDelivered(line.Status) {
			return false
		}
	}
	return true
}

// CanSettle is the payment gate: an order cannot be paid while any
// non-cancelled line is still undelivered, nor when nothing is billable.
func CanSettle(order Order) bool {
	billable := 0
	for _, line := range order.Lines {
		if linestatus.IsCancelled(line.Status) {
			continue
		}
		if !linestatus.IsDelivered(line.Status) {
			return false
		}
		billable++
	}
	return billable > 0
}

// BillableTotal sums the lines that are not cancelled.
func BillableTotal(order Order) decimal.Decimal {
	total := decimal.Zero
	for _, line := range order.Lines {
		if linestatus.IsCancelled(line.Status) {
			continue
		}
		total = total.Add(LineTotal(line))
	}
	return total
}

// ValidateSettlement returns ErrNotSettleable when CanSettle does not hold.
func ValidateSettlement(order Order) error {
	if !CanSettle(order) {
		return invalid(ErrNotSettleable, order.ID)
	}
	return nil
}

// DeriveStatus computes the display status implied by the line statuses.
// Orders without lines keep the status reported by the API.
func DeriveStatus(order Order) string {
	if len(order.Lines) == 0 {
		return order.Status
	}

	var pending, prepared, delivered, cancelled int
	for _, line := range order.Lines {
		status := linestatus.ByName(line.Status)
		switch {
		case status == nil:
			pending++
		case *status == linestatus.Statuses.Cancelled:
			cancelled++
		case *status == linestatus.Statuses.Delivered:
			delivered++
		case *status == linestatus.Statuses.Prepared:
			prepared++
		default:
			pending++
		}
	}

	switch {
	case cancelled == len(order.Lines):
		return linestatus.Statuses.Cancelled.Code()
	case pending > 0:
		return linestatus.Statuses.Pending.Code()
	case prepared > 0:
		return linestatus.Statuses.Prepared.Code()
	case delivered > 0:
		return linestatus.Statuses.Delivered.Code()
	}
	return order.Status
}
