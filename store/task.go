// Package store defines the Minuteman entity models and their SQLite persistence.
package store

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a lost optimistic-concurrency race: the task row
	// changed between read and write.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidStatus marks a status string outside the closed set.
	ErrInvalidStatus = errors.New("invalid status")
)

// Status represents the workflow state of a task. The set is closed;
// anything else is rejected at the boundary.
type Status string

const (
	StatusCaptureInbox    Status = "Capture Inbox"
	StatusToDo            Status = "To Do"
	StatusApprovalPending Status = "Manager Approval Pending"
	StatusDoing           Status = "Doing"
	StatusPlannedTomorrow Status = "Planned for Tomorrow"
	StatusSubmitted       Status = "Submitted"
	StatusDone            Status = "Done"
)

// ParseStatus validates a status string against the closed set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCaptureInbox, StatusToDo, StatusApprovalPending,
		StatusDoing, StatusPlannedTomorrow, StatusSubmitted, StatusDone:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidStatus)
}

// Task is the central mutable entity: an action item extracted from a
// meeting (or entered manually) and tracked through its lifecycle.
type Task struct {
	ID          string `json:"id"`
	MeetingID   string `json:"meeting_id"`
	AssigneeID  string `json:"assignee_id"`
	Description string `json:"description"`
	Status      Status `json:"status"`

	Priority            int     `json:"priority"`
	EffortTag           string  `json:"effort_tag,omitempty"` // small, medium, large
	Confidence          float64 `json:"confidence"`
	NeedsPriorityReview bool    `json:"needs_priority_review"`
	IsApproved          bool    `json:"is_approved"`
	Progress            int     `json:"progress"` // 0..100
	StoryPoints         int     `json:"story_points"`

	IsBlocked       bool   `json:"is_blocked"`
	BlockerReason   string `json:"blocker_reason,omitempty"`
	IsPotentialRisk bool   `json:"is_potential_risk"`
	RiskReason      string `json:"risk_reason,omitempty"`

	DueDate            string     `json:"due_date,omitempty"` // YYYY-MM-DD
	SuggestedFocusTime *time.Time `json:"suggested_focus_time,omitempty"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	SubmissionNotes string     `json:"submission_notes,omitempty"`
	SubmissionURL   string     `json:"submission_url,omitempty"`

	VerifiedAt             *time.Time `json:"verified_at,omitempty"`
	VerifiedBy             string     `json:"verified_by,omitempty"`
	VerificationNotes      string     `json:"verification_notes,omitempty"`
	VerificationDeadlineAt *time.Time `json:"verification_deadline_at,omitempty"`
	SLABreached            bool       `json:"sla_breached"`

	BundleID    string `json:"bundle_id,omitempty"`
	WorkCycleID string `json:"workcycle_id,omitempty"`

	// Version is the optimistic-concurrency counter; UpdateTask only
	// commits when the stored version still matches.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter controls which tasks ListTasks returns.
type TaskFilter struct {
	Status              *Status
	AssigneeID          string
	MeetingID           string
	BundleID            string
	WorkCycleID         string
	NeedsPriorityReview *bool
	IsApproved          *bool
	Submitted           *bool // true: submitted_at set; false: not set
	NotStatus           *Status
	CreatedAfter        *time.Time
	OrderByPriority     bool
	Limit               int
}
