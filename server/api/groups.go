package api

import (
	"encoding/json"
	"net/http"

	"minuteman/store"
)

// --- Work cycles ---

func (h *Handlers) listWorkCycles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	cycles, err := h.Store.ListWorkCycles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cycles == nil {
		cycles = []*store.WorkCycle{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

// createWorkCycleRequest is the body accepted by POST /api/workcycles.
type createWorkCycleRequest struct {
	Name     string `json:"name"`
	Goal     string `json:"goal,omitempty"`
	StartsOn string `json:"starts_on,omitempty"`
	EndsOn   string `json:"ends_on,omitempty"`
}

func (h *Handlers) createWorkCycle(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.admin(w, r)
	if !ok {
		return
	}
	var req createWorkCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	wc := &store.WorkCycle{
		Name:      req.Name,
		Goal:      req.Goal,
		StartsOn:  req.StartsOn,
		EndsOn:    req.EndsOn,
		CreatedBy: admin.ID,
	}
	if err := h.Store.CreateWorkCycle(r.Context(), wc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, wc)
}

func (h *Handlers) workCycleTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.Store.GetWorkCycle(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	h.writeTaskList(w, r, store.TaskFilter{WorkCycleID: id})
}

func (h *Handlers) snapshotWorkCycle(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	sn, err := h.Engine.SnapshotWorkCycle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

func (h *Handlers) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.Store.GetWorkCycle(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	snapshots, err := h.Store.ListSnapshots(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []*store.ProgressSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// --- Bundles ---

func (h *Handlers) listBundles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	bundles, err := h.Store.ListBundles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bundles == nil {
		bundles = []*store.BundleGroup{}
	}
	writeJSON(w, http.StatusOK, bundles)
}

// createBundleRequest is the body accepted by POST /api/bundles.
type createBundleRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) createBundle(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	b := &store.BundleGroup{Name: req.Name, CreatedBy: user.ID}
	if err := h.Store.CreateBundle(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) bundleTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.Store.GetBundle(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	h.writeTaskList(w, r, store.TaskFilter{BundleID: id})
}
