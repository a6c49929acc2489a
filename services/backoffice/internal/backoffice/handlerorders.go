package backoffice

import (
	"context"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
)

const maxMergeFetch = 4

type splitPayload struct {
	Lines []billing.Selection `json:"lines"`
}

// mergePayload names the orders to merge, or with All every order of the
// reservation except the Exclude ones.
type mergePayload struct {
	OrderIDs []string `json:"orderIds"`
	All      bool     `json:"all"`
	Exclude  []string `json:"exclude"`
}

type settlePayload struct {
	Method string `json:"method"`
}

func (h *Handler) ListReservationOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListReservationOrders")
	defer finish()

	reservationID := chi.URLParam(r, "id")
	orders, err := h.orders.ListByReservation(r.Context(), reservationID)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}
	aqm.RespondCollection(w, views, "order")
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	aqm.RespondSuccess(w, newOrderView(order))
}

// PreviewSplit validates a selection and returns the totals without submitting.
func (h *Handler) PreviewSplit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PreviewSplit")
	defer finish()

	var payload splitPayload
	if err := decodeBody(r, &payload); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	plan, err := billing.ValidateSplit(order, payload.Lines)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	aqm.RespondSuccess(w, plan)
}

func (h *Handler) SplitOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SplitOrder")
	defer finish()
	ctx := r.Context()

	var payload splitPayload
	if err := decodeBody(r, &payload); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	orderID := chi.URLParam(r, "id")
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	var plan billing.SplitPlan
	outcome, err := h.submit(ctx, flow.SplitKey(orderID), func() (flow.Command, error) {
		p, err := billing.ValidateSplit(order, payload.Lines)
		if err != nil {
			return nil, err
		}
		plan = p
		return splitCommand(h.orders, p), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	h.log(r).Info("order split", "order_id", orderID, "command_id", outcome.ID.String())
	aqm.Respond(w, http.StatusCreated, map[string]interface{}{
		"plan":   plan,
		"orders": outcome.Result,
	}, nil)
}

func (h *Handler) MergeOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MergeOrders")
	defer finish()
	ctx := r.Context()

	var payload mergePayload
	if err := decodeBody(r, &payload); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	reservationID := chi.URLParam(r, "id")
	candidates, err := h.mergeCandidates(ctx, reservationID, payload)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	outcome, err := h.submit(ctx, flow.MergeKey(reservationID), func() (flow.Command, error) {
		req, err := billing.ValidateMerge(reservationID, candidates)
		if err != nil {
			return nil, err
		}
		return mergeCommand(h.orders, req), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	h.log(r).Info("orders merged", "reservation_id", reservationID, "orders", len(candidates))
	aqm.Respond(w, http.StatusCreated, outcome.Result, nil)
}

// mergeCandidates resolves the ticked orders. Explicit ids that name fewer
// than two orders fail before any order is fetched.
func (h *Handler) mergeCandidates(ctx context.Context, reservationID string, payload mergePayload) ([]billing.Order, error) {
	set := billing.NewSelectionSet()

	if payload.All {
		orders, err := h.orders.ListByReservation(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		set.SelectAll(orders)
		for _, id := range payload.Exclude {
			if set.Contains(id) {
				set.Toggle(id)
			}
		}
		if set.Len() < 2 {
			return nil, billing.ErrInsufficientOrders
		}
		return set.Filter(orders), nil
	}

	for _, id := range payload.OrderIDs {
		set.Select(id)
	}
	if set.Len() < 2 {
		return nil, billing.ErrInsufficientOrders
	}
	return h.loadOrders(ctx, set.IDs())
}

// loadOrders fetches the merge candidates concurrently, keeping the request order.
func (h *Handler) loadOrders(ctx context.Context, ids []string) ([]billing.Order, error) {
	orders := make([]billing.Order, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxMergeFetch)
	for i, id := range ids {
		g.Go(func() error {
			order, err := h.orders.GetOrder(gctx, id)
			if err != nil {
				return err
			}
			orders[i] = order
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()

	orderID := chi.URLParam(r, "id")
	_, err := h.submit(r.Context(), "order:"+orderID, func() (flow.Command, error) {
		return deleteOrderCommand(h.orders, orderID), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteOrderLine(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrderLine")
	defer finish()

	orderID := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineID")
	_, err := h.submit(r.Context(), "order:"+orderID, func() (flow.Command, error) {
		return deleteLineCommand(h.orders, orderID, lineID), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettleOrder refuses to pay while any non-cancelled line is undelivered.
func (h *Handler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SettleOrder")
	defer finish()
	ctx := r.Context()

	var payload settlePayload
	if err := decodeBody(r, &payload); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	method := strings.ToLower(strings.TrimSpace(payload.Method))
	if method == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Payment method is required")
		return
	}

	orderID := chi.URLParam(r, "id")
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	outcome, err := h.submit(ctx, "order:"+orderID, func() (flow.Command, error) {
		if err := billing.ValidateSettlement(order); err != nil {
			return nil, err
		}
		return settleCommand(h.orders, PaymentRequest{
			OrderID: orderID,
			Method:  method,
			Amount:  billing.BillableTotal(order),
		}), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	aqm.Respond(w, http.StatusCreated, outcome.Result, nil)
}
