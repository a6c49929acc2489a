package billing

import (
	"github.com/shopspring/decimal"
)

// Selection picks a quantity of one line for a split.
type Selection struct {
	LineID   string `json:"lineId"`
	Quantity int    `json:"quantity"`
}

// SplitRequest is the payload the remote API expects for a split.
type SplitRequest struct {
	OrderID string      `json:"orderId"`
	Lines   []Selection `json:"lines"`
}

// SplitPlan is a validated split with the totals shown next to it.
type SplitPlan struct {
	Request        SplitRequest    `json:"request"`
	OriginalTotal  decimal.Decimal `json:"originalTotal"`
	SelectedTotal  decimal.Decimal `json:"selectedTotal"`
	RemainderTotal decimal.Decimal `json:"remainderTotal"`
}

// ValidateSplit checks a selection against the order it splits and builds the
// request to submit. Repeated line ids are summed before range checks.
func ValidateSplit(order Order, selections []Selection) (SplitPlan, error) {
	if len(selections) == 0 {
		return SplitPlan{}, ErrEmptySelection
	}

	picked := NewLineSelection()
	for _, sel := range selections {
		picked.Add(sel.LineID, sel.Quantity)
	}
	merged := picked.Selections()

	lines := make([]Line, 0, len(merged))
	for _, sel := range merged {
		line, ok := order.FindLine(sel.LineID)
		if !ok {
			return SplitPlan{}, invalid(ErrUnknownLine, sel.LineID)
		}
		lines = append(lines, line)
	}

	// Covering every line empties the source order whatever the quantities.
	if picked.Len() >= order.DistinctLineCount() {
		return SplitPlan{}, ErrWouldEmptySourceOrder
	}

	selected := decimal.Zero
	for i, sel := range merged {
		line := lines[i]
		if sel.Quantity <= 0 || sel.Quantity > line.Quantity {
			return SplitPlan{}, invalid(ErrQuantityOutOfRange, sel.LineID)
		}
		selected = selected.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}

	total := OrderTotal(order)
	return SplitPlan{
		Request: SplitRequest{
			OrderID: order.ID,
			Lines:   merged,
		},
		OriginalTotal:  total,
		SelectedTotal:  selected,
		RemainderTotal: total.Sub(selected),
	}, nil
}
