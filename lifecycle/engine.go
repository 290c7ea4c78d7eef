// Package lifecycle implements the task workflow engine: creation-time
// enrichment, state transitions, and the periodic sweeps, together with
// their notification side effects.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minuteman/extract"
	"minuteman/store"
)

// Transition precondition and authorization errors. Handlers map these to
// HTTP status codes; none of them leave a partial mutation behind.
var (
	ErrNotPendingApproval = errors.New("task is not pending manager approval")
	ErrNotSubmitted       = errors.New("task has not been submitted")
	ErrNotAssignee        = errors.New("task does not belong to the caller")
	ErrAdminOnly          = errors.New("admin privileges required")
	ErrForbidden          = errors.New("not allowed to update this task")
)

// reviewConfidenceThreshold is the extraction confidence below which a
// draft's priority is overridden and flagged for human review.
const reviewConfidenceThreshold = 0.7

// reviewFallbackPriority replaces the extracted priority for low-confidence
// drafts.
const reviewFallbackPriority = 4

// verificationWindow is how long an admin has to verify a submitted task
// before it counts as an SLA breach.
const verificationWindow = 24 * time.Hour

// effortHours maps an effort tag to the hours reserved ahead of the due
// date when deriving the suggested focus time.
var effortHours = map[string]int{
	"small":  1,
	"medium": 3,
	"large":  6,
}

// Engine applies workflow rules to tasks. All operations are single
// synchronous read-modify-write transactions against the store; a lost
// write race surfaces as store.ErrConflict.
type Engine struct {
	store    *store.Store
	now      func() time.Time
	announce func(*store.Notification)
}

// New creates an Engine over the given store.
func New(st *store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// SetClock overrides the engine's time source. For tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetAnnouncer wires a hook invoked after every notification is persisted,
// used by the server to push live events.
func (e *Engine) SetAnnouncer(fn func(*store.Notification)) { e.announce = fn }

// CreateFromDraft enriches an extracted task draft and persists it.
//
// Low-confidence drafts are forced to the fallback priority and flagged for
// priority review. The suggested focus time is the due date's midnight
// minus the effort-tag hours; it stays unset when either input is missing.
// Drafts with story points above 8 or a "large" effort tag are created
// straight into manager approval instead of To Do.
func (e *Engine) CreateFromDraft(ctx context.Context, meetingID, assigneeID string, d extract.TaskDraft) (*store.Task, error) {
	t := &store.Task{
		MeetingID:       meetingID,
		AssigneeID:      assigneeID,
		Description:     d.Description,
		Priority:        d.Priority,
		EffortTag:       d.EffortTag,
		Confidence:      d.Confidence,
		StoryPoints:     d.StoryPoints,
		DueDate:         d.DueDate,
		IsPotentialRisk: d.IsPotentialRisk,
		RiskReason:      d.RiskReason,
	}

	if d.Confidence < reviewConfidenceThreshold {
		t.Priority = reviewFallbackPriority
		t.NeedsPriorityReview = true
	}
	t.SuggestedFocusTime = suggestedFocusTime(d.DueDate, d.EffortTag)

	if d.StoryPoints > 8 || d.EffortTag == "large" {
		t.Status = store.StatusApprovalPending
	} else {
		t.Status = store.StatusToDo
	}

	if err := e.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateManual persists a manually entered task. Manual creation bypasses
// the approval gate entirely: the task always starts in To Do.
func (e *Engine) CreateManual(ctx context.Context, t *store.Task) error {
	t.Status = store.StatusToDo
	t.IsApproved = false
	return e.store.CreateTask(ctx, t)
}

// Capture records a quick free-text task into the capture inbox. When no
// named assignee resolves to an existing user, the task is assigned to the
// requester.
func (e *Engine) Capture(ctx context.Context, requester *store.User, text, assignee string) (*store.Task, error) {
	assigneeID := requester.ID
	if assignee != "" {
		if u, err := e.store.GetUserByUsername(ctx, assignee); err == nil {
			assigneeID = u.ID
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	t := &store.Task{
		AssigneeID:  assigneeID,
		Description: text,
		Status:      store.StatusCaptureInbox,
	}
	if err := e.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// suggestedFocusTime derives the focus slot from a YYYY-MM-DD due date and
// an effort tag. Either input missing or unparsable leaves it undefined.
func suggestedFocusTime(dueDate, effortTag string) *time.Time {
	hours, ok := effortHours[effortTag]
	if !ok || dueDate == "" {
		return nil
	}
	due, err := time.ParseInLocation("2006-01-02", dueDate, time.UTC)
	if err != nil {
		return nil
	}
	ft := due.Add(-time.Duration(hours) * time.Hour)
	return &ft
}

// notify persists a notification and invokes the announce hook.
func (e *Engine) notify(ctx context.Context, userID, taskID, message string) error {
	n := &store.Notification{UserID: userID, TaskID: taskID, Message: message}
	if err := e.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	if e.announce != nil {
		e.announce(n)
	}
	return nil
}

// notifyAdmins sends the same notification to every admin user.
func (e *Engine) notifyAdmins(ctx context.Context, taskID, message string) error {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if !u.IsAdmin {
			continue
		}
		if err := e.notify(ctx, u.ID, taskID, message); err != nil {
			return err
		}
	}
	return nil
}
