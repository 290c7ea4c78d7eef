package api

import (
	"encoding/json"
	"net/http"

	"minuteman/lifecycle"
	"minuteman/store"
)

// --- Task listings ---

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := store.TaskFilter{}
	if s := q.Get("status"); s != "" {
		st, err := store.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = &st
	}
	if a := q.Get("assignee_id"); a != "" {
		filter.AssigneeID = a
	}
	if m := q.Get("meeting_id"); m != "" {
		filter.MeetingID = m
	}
	h.writeTaskList(w, r, filter)
}

func (h *Handlers) myTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.writeTaskList(w, r, store.TaskFilter{AssigneeID: user.ID})
}

// taskQueue lists approved, unfinished tasks in priority order.
func (h *Handlers) taskQueue(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	approved := true
	done := store.StatusDone
	h.writeTaskList(w, r, store.TaskFilter{
		IsApproved:      &approved,
		NotStatus:       &done,
		OrderByPriority: true,
	})
}

// reviewQueue lists low-confidence tasks awaiting a priority decision.
func (h *Handlers) reviewQueue(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	needsReview := true
	h.writeTaskList(w, r, store.TaskFilter{NeedsPriorityReview: &needsReview})
}

// pendingVerification lists submitted tasks awaiting a verdict.
func (h *Handlers) pendingVerification(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	status := store.StatusSubmitted
	h.writeTaskList(w, r, store.TaskFilter{Status: &status})
}

func (h *Handlers) writeTaskList(w http.ResponseWriter, r *http.Request, filter store.TaskFilter) {
	tasks, err := h.Store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []*store.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	t, err := h.Store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	if t.AssigneeID != user.ID && !user.IsAdmin {
		writeError(w, http.StatusForbidden, "not allowed to view this task")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- Task creation ---

// createTaskRequest is the body accepted by POST /api/tasks.
type createTaskRequest struct {
	Description      string `json:"description"`
	MeetingID        string `json:"meeting_id"`
	AssigneeUsername string `json:"assignee_username"`
	DueDate          string `json:"due_date,omitempty"`
	Priority         int    `json:"priority,omitempty"`
	EffortTag        string `json:"effort_tag,omitempty"`
	StoryPoints      int    `json:"story_points,omitempty"`
}

// createTask handles manual task entry by an admin. Manual creation never
// passes through the approval gate.
func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Description == "" || req.AssigneeUsername == "" {
		writeError(w, http.StatusBadRequest, "description and assignee_username required")
		return
	}
	if req.MeetingID != "" {
		if _, err := h.Store.GetMeeting(r.Context(), req.MeetingID); err != nil {
			writeLifecycleError(w, err)
			return
		}
	}

	assignee, err := h.Store.GetOrCreateUser(r.Context(), req.AssigneeUsername, h.lazyPasswordHash())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	t := &store.Task{
		MeetingID:   req.MeetingID,
		AssigneeID:  assignee.ID,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		EffortTag:   req.EffortTag,
		StoryPoints: req.StoryPoints,
	}
	if err := h.Engine.CreateManual(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// captureRequest is the body accepted by POST /api/tasks/capture.
type captureRequest struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
}

func (h *Handlers) captureTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}
	t, err := h.Engine.Capture(r.Context(), user, req.Text, req.Assignee)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// --- Task transitions ---

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req lifecycle.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Engine.Update(r.Context(), r.PathValue("id"), user, req)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) completeTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	t, err := h.Engine.Complete(r.Context(), r.PathValue("id"), user)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// submitRequest is the body accepted by POST /api/tasks/{id}/submit.
type submitRequest struct {
	Notes string `json:"submission_notes,omitempty"`
	URL   string `json:"submission_url,omitempty"`
}

func (h *Handlers) submitTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	t, err := h.Engine.Submit(r.Context(), r.PathValue("id"), user, req.Notes, req.URL)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// verifyRequest is the body accepted by POST /api/tasks/{id}/verify.
type verifyRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"verification_notes,omitempty"`
}

func (h *Handlers) verifyTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Engine.Verify(r.Context(), r.PathValue("id"), user, req.Approved, req.Notes)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) approveManager(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	t, err := h.Engine.ApproveManager(r.Context(), r.PathValue("id"), user)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) planTomorrow(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	planned, err := h.Engine.PlanTomorrow(r.Context(), user)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	if planned == nil {
		planned = []*store.Task{}
	}
	writeJSON(w, http.StatusOK, planned)
}
