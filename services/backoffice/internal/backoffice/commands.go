package backoffice

import (
	"context"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
)

const (
	CmdSplitOrder  = "split-order"
	CmdMergeOrders = "merge-orders"
	CmdDeleteOrder = "delete-order"
	CmdDeleteLine  = "delete-order-line"
	CmdSettleOrder = "settle-order"
	CmdCreateShift = "create-shift"
	CmdUpdateShift = "update-shift"
	CmdDeleteShift = "delete-shift"
)

var (
	ordersStale = []query.Key{{Collection: query.Orders}}
	shiftsStale = []query.Key{{Collection: query.Shifts}}
)

// remoteCommand adapts one data access call to flow.Command.
type remoteCommand struct {
	name string
	run  func(ctx context.Context) (any, error)
	keys []query.Key
}

func (c *remoteCommand) Name() string { return c.name }

func (c *remoteCommand) Execute(ctx context.Context) (any, error) {
	return c.run(ctx)
}

func (c *remoteCommand) Invalidates() []query.Key { return c.keys }

func splitCommand(da *OrderDataAccess, plan billing.SplitPlan) flow.Command {
	return &remoteCommand{
		name: CmdSplitOrder,
		run: func(ctx context.Context) (any, error) {
			return da.Split(ctx, plan.Request)
		},
		keys: ordersStale,
	}
}

func mergeCommand(da *OrderDataAccess, req billing.MergeRequest) flow.Command {
	return &remoteCommand{
		name: CmdMergeOrders,
		run: func(ctx context.Context) (any, error) {
			return da.Merge(ctx, req)
		},
		keys: ordersStale,
	}
}

func deleteOrderCommand(da *OrderDataAccess, orderID string) flow.Command {
	return &remoteCommand{
		name: CmdDeleteOrder,
		run: func(ctx context.Context) (any, error) {
			return nil, da.DeleteOrder(ctx, orderID)
		},
		keys: ordersStale,
	}
}

func deleteLineCommand(da *OrderDataAccess, orderID, lineID string) flow.Command {
	return &remoteCommand{
		name: CmdDeleteLine,
		run: func(ctx context.Context) (any, error) {
			return nil, da.DeleteLine(ctx, orderID, lineID)
		},
		keys: ordersStale,
	}
}

func settleCommand(da *OrderDataAccess, req PaymentRequest) flow.Command {
	return &remoteCommand{
		name: CmdSettleOrder,
		run: func(ctx context.Context) (any, error) {
			return da.Settle(ctx, req)
		},
		keys: ordersStale,
	}
}

func createShiftCommand(da *ShiftDataAccess, in ShiftInput) flow.Command {
	return &remoteCommand{
		name: CmdCreateShift,
		run: func(ctx context.Context) (any, error) {
			return da.CreateShift(ctx, in)
		},
		keys: shiftsStale,
	}
}

func updateShiftCommand(da *ShiftDataAccess, id string, in ShiftInput) flow.Command {
	return &remoteCommand{
		name: CmdUpdateShift,
		run: func(ctx context.Context) (any, error) {
			return da.UpdateShift(ctx, id, in)
		},
		keys: shiftsStale,
	}
}

func deleteShiftCommand(da *ShiftDataAccess, id string) flow.Command {
	return &remoteCommand{
		name: CmdDeleteShift,
		run: func(ctx context.Context) (any, error) {
			return nil, da.DeleteShift(ctx, id)
		},
		keys: shiftsStale,
	}
}
