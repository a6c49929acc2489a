package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/telemetry"
	aqmtemplate "github.com/aquamarinepk/aqm/template"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/billing"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/roster"
)

const MaxBodyBytes = 1 << 20

// HandlerDeps groups the collaborators of the back-office handler.
type HandlerDeps struct {
	Client      *remote.Client
	Cache       *query.Cache
	Invalidator flow.Invalidator
	Publisher   events.Publisher
	// CommandLog, when set, receives command outcomes instead of Publisher.
	CommandLog  events.Publisher
	Templates   *aqmtemplate.Manager
	Reconciler  *roster.Reconciler
	// Source identifies this instance in published events.
	Source      string
}

type Handler struct {
	orders     *OrderDataAccess
	shifts     *ShiftDataAccess
	flows      *flow.Registry
	reconciler *roster.Reconciler
	tmplMgr    *aqmtemplate.Manager
	audit      *AuditLogger
	notifier   *CommandNotifier
	logger     aqm.Logger
	config     *aqm.Config
	tlm        *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	reconciler := deps.Reconciler
	if reconciler == nil {
		reconciler = roster.NewReconciler(nil)
	}

	invalidator := deps.Invalidator
	if invalidator == nil {
		invalidator = query.NewBroadcaster(deps.Cache, nil, deps.Source, logger)
	}

	commands := deps.Publisher
	if deps.CommandLog != nil {
		commands = deps.CommandLog
	}

	h := &Handler{
		orders:     NewOrderDataAccess(deps.Client, deps.Cache),
		shifts:     NewShiftDataAccess(deps.Client, deps.Cache),
		reconciler: reconciler,
		tmplMgr:    deps.Templates,
		audit:      NewAuditLogger(logger),
		notifier:   NewCommandNotifier(commands, deps.Source, logger),
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
	}
	h.flows = flow.NewRegistry(invalidator, h.observe, logger)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reservations/{id}", func(r chi.Router) {
		r.Get("/orders", h.ListReservationOrders)
		r.Post("/merge", h.MergeOrders)
	})

	r.Route("/orders/{id}", func(r chi.Router) {
		r.Get("/", h.GetOrder)
		r.Delete("/", h.DeleteOrder)
		r.Post("/split/preview", h.PreviewSplit)
		r.Post("/split", h.SplitOrder)
		r.Delete("/lines/{lineID}", h.DeleteOrderLine)
		r.Post("/settle", h.SettleOrder)
	})

	r.Route("/shifts", func(r chi.Router) {
		r.Get("/", h.ListShifts)
		r.Post("/", h.CreateShift)
		r.Get("/week", h.ShiftWeek)
		r.Put("/{id}", h.UpdateShift)
		r.Delete("/{id}", h.DeleteShift)
	})

	r.Get("/roster/week", h.RosterWeek)
	r.Get("/flows", h.ListFlows)
}

// Shutdown closes every open flow. Responses still in flight are discarded.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.flows.CloseAll()
	return nil
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

// ListFlows reports the flows this instance is tracking.
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListFlows")
	defer finish()

	aqm.RespondSuccess(w, h.flows.Snapshots())
}

// submit runs one command through the flow registered under key.
func (h *Handler) submit(ctx context.Context, key string, build func() (flow.Command, error)) (flow.Outcome, error) {
	f, err := h.flows.Acquire(key)
	if err != nil {
		return flow.Outcome{}, err
	}
	defer h.flows.Release(f)

	// A retry of a failed flow keeps the failure attached until validation.
	selectFn := f.Select
	if f.State() == flow.Failed {
		selectFn = f.Reselect
	}
	if err := selectFn(); err != nil {
		return flow.Outcome{}, err
	}
	if err := f.Validate(build); err != nil {
		return flow.Outcome{}, err
	}
	return f.Submit(ctx)
}

func (h *Handler) observe(ctx context.Context, outcome flow.Outcome) {
	h.audit.LogOutcome(ctx, outcome)
	h.notifier.Notify(ctx, outcome)
}

// respondFailure maps an error to the response the UI shows next to the action.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case billing.IsValidation(err):
		aqm.RespondError(w, http.StatusUnprocessableEntity, remote.UserMessage(err))
	case errors.Is(err, flow.ErrBusy):
		aqm.RespondError(w, http.StatusConflict, "Another submission for this item is in progress.")
	case errors.Is(err, flow.ErrClosed):
		aqm.RespondError(w, http.StatusServiceUnavailable, "Service is shutting down.")
	default:
		h.log(r).Error("remote operation failed", "error", err)
		aqm.RespondError(w, remote.StatusOf(err), remote.UserMessage(err))
	}
}

func decodeBody(r *http.Request, dest any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}
