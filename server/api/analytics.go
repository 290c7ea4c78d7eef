package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// dailyBriefing returns the daily snapshot. The SLA sweep runs first so the
// briefing reflects (and notifies) any deadlines that lapsed since the last
// read; the sweep is idempotent so repeated briefings cost nothing extra.
func (h *Handlers) dailyBriefing(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	breached, err := h.Engine.SweepSLA(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(breached) > 0 {
		h.Logger.Warn("verification SLA breaches detected", slog.Int("count", len(breached)))
	}

	b, err := h.Analytics.DailyBriefing(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) productivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	p, err := h.Analytics.ProductivityWindow(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
