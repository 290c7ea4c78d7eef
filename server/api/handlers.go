// Package api implements the Minuteman REST handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"minuteman/analytics"
	"minuteman/extract"
	"minuteman/lifecycle"
	"minuteman/store"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Store     *store.Store
	Engine    *lifecycle.Engine
	Analytics *analytics.Reader
	Extractor extract.Extractor
	Logger    *slog.Logger
	Version   string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("GET /api/teams", h.listTeams)

	mux.HandleFunc("POST /api/meetings/process", h.processMeeting)
	mux.HandleFunc("GET /api/meetings", h.listMeetings)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/my", h.myTasks)
	mux.HandleFunc("GET /api/tasks/queue", h.taskQueue)
	mux.HandleFunc("GET /api/tasks/review", h.reviewQueue)
	mux.HandleFunc("GET /api/tasks/pending-verification", h.pendingVerification)
	mux.HandleFunc("POST /api/tasks/capture", h.captureTask)
	mux.HandleFunc("POST /api/tasks/plan-tomorrow", h.planTomorrow)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.completeTask)
	mux.HandleFunc("POST /api/tasks/{id}/submit", h.submitTask)
	mux.HandleFunc("POST /api/tasks/{id}/verify", h.verifyTask)
	mux.HandleFunc("POST /api/tasks/{id}/approve-manager", h.approveManager)

	mux.HandleFunc("GET /api/workcycles", h.listWorkCycles)
	mux.HandleFunc("POST /api/workcycles", h.createWorkCycle)
	mux.HandleFunc("GET /api/workcycles/{id}/tasks", h.workCycleTasks)
	mux.HandleFunc("POST /api/workcycles/{id}/snapshot", h.snapshotWorkCycle)
	mux.HandleFunc("GET /api/workcycles/{id}/snapshots", h.listSnapshots)

	mux.HandleFunc("GET /api/bundles", h.listBundles)
	mux.HandleFunc("POST /api/bundles", h.createBundle)
	mux.HandleFunc("GET /api/bundles/{id}/tasks", h.bundleTasks)

	mux.HandleFunc("GET /api/analytics/briefing", h.dailyBriefing)
	mux.HandleFunc("GET /api/analytics/productivity", h.productivity)

	mux.HandleFunc("GET /api/notifications", h.listNotifications)
	mux.HandleFunc("PATCH /api/notifications/{id}/read", h.markNotificationRead)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLifecycleError maps engine and store errors to HTTP status codes.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "task was modified concurrently, retry")
	case errors.Is(err, lifecycle.ErrAdminOnly):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrNotAssignee), errors.Is(err, lifecycle.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrNotPendingApproval), errors.Is(err, lifecycle.ErrNotSubmitted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// caller returns the authenticated user, failing the request when absent.
func (h *Handlers) caller(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no authenticated user")
		return nil, false
	}
	return user, true
}

// admin returns the authenticated user when it has the admin flag.
func (h *Handlers) admin(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user, ok := h.caller(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		writeError(w, http.StatusForbidden, "admin privileges required")
		return nil, false
	}
	return user, true
}

// --- Users / teams ---

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []*store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handlers) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.ListTeams(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if teams == nil {
		teams = []*store.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// --- Status ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

// StatusHandler returns the status handler function for external registration.
func (h *Handlers) StatusHandler() http.HandlerFunc {
	return h.status
}
