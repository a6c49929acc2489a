package backoffice

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
)

const dateLayout = "2006-01-02"

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListShifts")
	defer finish()

	from, to, err := h.rangeFromQuery(r)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	shifts, err := h.shifts.ListShifts(r.Context(), from, to)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	views := make([]shiftView, 0, len(shifts))
	for _, s := range shifts {
		views = append(views, newShiftView(h.reconciler, s))
	}
	aqm.RespondCollection(w, views, "shift")
}

// ShiftWeek returns the week grid for the week containing ?date=.
func (h *Handler) ShiftWeek(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShiftWeek")
	defer finish()

	week, err := h.loadWeek(r)
	if err != nil {
		if isBadDate(err) {
			aqm.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondFailure(w, r, err)
		return
	}
	if len(week.Grid.Overflow) > 0 {
		h.log(r).Info("shifts beyond visible rows", "count", len(week.Grid.Overflow))
	}
	aqm.RespondSuccess(w, week)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateShift")
	defer finish()

	in, ok := h.decodeShiftInput(w, r)
	if !ok {
		return
	}

	key := "shift:new:" + uuid.NewString()
	outcome, err := h.submit(r.Context(), key, func() (flow.Command, error) {
		return createShiftCommand(h.shifts, in), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	aqm.Respond(w, http.StatusCreated, outcome.Result, nil)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateShift")
	defer finish()

	in, ok := h.decodeShiftInput(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	outcome, err := h.submit(r.Context(), "shift:"+id, func() (flow.Command, error) {
		return updateShiftCommand(h.shifts, id, in), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	aqm.RespondSuccess(w, outcome.Result)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteShift")
	defer finish()

	id := chi.URLParam(r, "id")
	_, err := h.submit(r.Context(), "shift:"+id, func() (flow.Command, error) {
		return deleteShiftCommand(h.shifts, id), nil
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeShiftInput checks the fields the form cannot submit without.
// Overlaps and staffing rules are checked by the API.
func (h *Handler) decodeShiftInput(w http.ResponseWriter, r *http.Request) (ShiftInput, bool) {
	var in ShiftInput
	if err := decodeBody(r, &in); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return in, false
	}
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	if in.StartTime == "" || in.EndTime == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Start and end time are required")
		return in, false
	}
	if strings.TrimSpace(in.ManagerID) == "" {
		aqm.RespondError(w, http.StatusBadRequest, "A manager is required")
		return in, false
	}
	return in, true
}

type badDateError struct {
	param string
	value string
}

func (e *badDateError) Error() string {
	return "Invalid " + e.param + " date: expected YYYY-MM-DD"
}

func isBadDate(err error) bool {
	var bad *badDateError
	return errors.As(err, &bad)
}

// rangeFromQuery reads ?from= and ?to= as dates, defaulting to the current week.
func (h *Handler) rangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	loc := h.reconciler.Location()
	from, to := h.reconciler.WeekOf(time.Now())

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, &badDateError{param: "from", value: raw}
		}
		from = t
		to = from.AddDate(0, 0, 7)
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, &badDateError{param: "to", value: raw}
		}
		to = t
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, &badDateError{param: "to", value: r.URL.Query().Get("to")}
	}
	return from, to, nil
}

func (h *Handler) loadWeek(r *http.Request) (weekView, error) {
	at := time.Now().In(h.reconciler.Location())
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, h.reconciler.Location())
		if err != nil {
			return weekView{}, &badDateError{param: "week", value: raw}
		}
		at = t
	}

	from, to := h.reconciler.WeekOf(at)
	shifts, err := h.shifts.ListShifts(r.Context(), from, to)
	if err != nil {
		return weekView{}, err
	}
	return newWeekView(from, to, h.reconciler.BuildWeekGrid(shifts)), nil
}
