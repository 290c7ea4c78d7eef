package api

import (
	"net/http"

	"minuteman/store"
)

func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	notifications, err := h.Store.ListNotifications(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if notifications == nil {
		notifications = []*store.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// markNotificationRead is scoped to the caller's own notifications; marking
// someone else's returns 404 rather than leaking that the id exists.
func (h *Handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.Store.MarkNotificationRead(r.Context(), r.PathValue("id"), user.ID); err != nil {
		writeLifecycleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
