package backoffice

import (
	"net/http"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
)

// RosterWeek renders the week grid page.
func (h *Handler) RosterWeek(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RosterWeek")
	defer finish()

	data := map[string]interface{}{
		"Title":    "Roster",
		"Template": "week",
	}

	week, err := h.loadWeek(r)
	switch {
	case err == nil:
		data["Week"] = week
	case isBadDate(err):
		w.WriteHeader(http.StatusBadRequest)
		data["Error"] = err.Error()
	default:
		h.log(r).Error("cannot load week", "error", err)
		w.WriteHeader(remote.StatusOf(err))
		data["Error"] = remote.UserMessage(err)
	}

	h.renderTemplate(w, r, "week.html", "base.html", data)
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, templateName, layout string, data map[string]interface{}) {
	if h.tmplMgr == nil {
		h.log(r).Error("template manager not configured", "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tmpl, err := h.tmplMgr.Get(templateName)
	if err != nil {
		h.log(r).Error("error loading template", "error", err, "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, layout, data); err != nil {
		h.log(r).Error("error rendering template", "error", err, "layout", layout)
	}
}
