package lifecycle

import (
	"context"
	"fmt"

	"minuteman/store"
)

// ApproveManager releases a task from the manager-approval gate. Legal only
// while the task is exactly in Manager Approval Pending; the assignee is
// notified.
func (e *Engine) ApproveManager(ctx context.Context, taskID string, caller *store.User) (*store.Task, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != store.StatusApprovalPending {
		return nil, ErrNotPendingApproval
	}

	t.Status = store.StatusToDo
	t.IsApproved = true
	if err := e.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	if err := e.notify(ctx, t.AssigneeID, t.ID,
		fmt.Sprintf("Task approved by manager: %s", t.Description)); err != nil {
		return nil, err
	}
	return t, nil
}

// Submit marks the caller's task as finished work awaiting verification.
// Only the assignee may submit.
func (e *Engine) Submit(ctx context.Context, taskID string, caller *store.User, notes, url string) (*store.Task, error) {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != caller.ID {
		return nil, ErrNotAssignee
	}

	now := e.now().UTC()
	deadline := now.Add(verificationWindow)
	t.SubmittedAt = &now
	t.SubmissionNotes = notes
	t.SubmissionURL = url
	t.Progress = 100
	t.Status = store.StatusSubmitted
	t.VerificationDeadlineAt = &deadline
	if err := e.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	if err := e.notifyAdmins(ctx, t.ID,
		fmt.Sprintf("%s submitted a task for verification: %s", caller.Username, t.Description)); err != nil {
		return nil, err
	}
	return t, nil
}

// Verify resolves a submitted task. Admin only; the task must have been
// submitted. Approval completes the task; rejection sends it back to Doing
// with progress reset to 50 and the submission cleared, and the feedback
// reaches the assignee.
func (e *Engine) Verify(ctx context.Context, taskID string, caller *store.User, approved bool, notes string) (*store.Task, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.SubmittedAt == nil {
		return nil, ErrNotSubmitted
	}

	now := e.now().UTC()
	t.VerificationNotes = notes
	if approved {
		t.Status = store.StatusDone
		t.VerifiedAt = &now
		t.VerifiedBy = caller.ID
		if err := e.store.UpdateTask(ctx, t); err != nil {
			return nil, err
		}
		if err := e.notify(ctx, t.AssigneeID, t.ID,
			fmt.Sprintf("Your submission was verified: %s", t.Description)); err != nil {
			return nil, err
		}
		return t, nil
	}

	t.Status = store.StatusDoing
	t.SubmittedAt = nil
	t.Progress = 50
	if err := e.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your submission was rejected: %s", t.Description)
	if notes != "" {
		msg += " — " + notes
	}
	if err := e.notify(ctx, t.AssigneeID, t.ID, msg); err != nil {
		return nil, err
	}
	return t, nil
}

// Complete marks a task Done directly. The assignee or an admin may do this.
func (e *Engine) Complete(ctx context.Context, taskID string, caller *store.User) (*store.Task, error) {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != caller.ID && !caller.IsAdmin {
		return nil, ErrForbidden
	}
	t.Status = store.StatusDone
	t.Progress = 100
	if err := e.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateRequest is a partial task update. Nil fields are left untouched.
type UpdateRequest struct {
	Description     *string `json:"description,omitempty"`
	Status          *string `json:"status,omitempty"`
	Priority        *int    `json:"priority,omitempty"`
	Progress        *int    `json:"progress,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
	EffortTag       *string `json:"effort_tag,omitempty"`
	StoryPoints     *int    `json:"story_points,omitempty"`
	IsBlocked       *bool   `json:"is_blocked,omitempty"`
	BlockerReason   *string `json:"blocker_reason,omitempty"`
	IsPotentialRisk *bool   `json:"is_potential_risk,omitempty"`
	RiskReason      *string `json:"risk_reason,omitempty"`
	NeedsReview     *bool   `json:"needs_priority_review,omitempty"`
	BundleID        *string `json:"bundle_id,omitempty"`
	WorkCycleID     *string `json:"workcycle_id,omitempty"`
}

// Update applies a general partial update. The assignee or an admin may
// update; status strings outside the closed set are rejected before any
// mutation; setting progress to 100 forces the status to Done.
func (e *Engine) Update(ctx context.Context, taskID string, caller *store.User, req UpdateRequest) (*store.Task, error) {
	var status store.Status
	if req.Status != nil {
		var err error
		status, err = store.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
	}

	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != caller.ID && !caller.IsAdmin {
		return nil, ErrForbidden
	}

	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Progress != nil {
		t.Progress = *req.Progress
	}
	if req.DueDate != nil {
		t.DueDate = *req.DueDate
	}
	if req.EffortTag != nil {
		t.EffortTag = *req.EffortTag
	}
	if req.StoryPoints != nil {
		t.StoryPoints = *req.StoryPoints
	}
	if req.IsBlocked != nil {
		t.IsBlocked = *req.IsBlocked
	}
	if req.BlockerReason != nil {
		t.BlockerReason = *req.BlockerReason
	}
	if req.IsPotentialRisk != nil {
		t.IsPotentialRisk = *req.IsPotentialRisk
	}
	if req.RiskReason != nil {
		t.RiskReason = *req.RiskReason
	}
	if req.NeedsReview != nil {
		t.NeedsPriorityReview = *req.NeedsReview
	}
	if req.BundleID != nil {
		t.BundleID = *req.BundleID
	}
	if req.WorkCycleID != nil {
		t.WorkCycleID = *req.WorkCycleID
	}

	// Setting full progress completes the task as a side effect.
	if req.Progress != nil && *req.Progress >= 100 {
		t.Progress = 100
		t.Status = store.StatusDone
	}

	if err := e.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
