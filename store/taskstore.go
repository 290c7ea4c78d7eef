package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const taskCols = `id, meeting_id, assignee_id, description, status, priority, effort_tag,
	confidence, needs_priority_review, is_approved, progress, story_points,
	is_blocked, blocker_reason, is_potential_risk, risk_reason,
	due_date, suggested_focus_time,
	submitted_at, submission_notes, submission_url,
	verified_at, verified_by, verification_notes, verification_deadline_at, sla_breached,
	bundle_id, workcycle_id, version, created_at, updated_at`

// CreateTask persists a new task and sets its ID, Version, CreatedAt, and
// UpdatedAt.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	t.ID = newID()
	t.Version = 1
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskCols+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.MeetingID, t.AssigneeID, t.Description, string(t.Status), t.Priority, t.EffortTag,
		t.Confidence, boolInt(t.NeedsPriorityReview), boolInt(t.IsApproved), t.Progress, t.StoryPoints,
		boolInt(t.IsBlocked), t.BlockerReason, boolInt(t.IsPotentialRisk), t.RiskReason,
		t.DueDate, nullTime(t.SuggestedFocusTime),
		nullTime(t.SubmittedAt), t.SubmissionNotes, t.SubmissionURL,
		nullTime(t.VerifiedAt), t.VerifiedBy, t.VerificationNotes, nullTime(t.VerificationDeadlineAt), boolInt(t.SLABreached),
		t.BundleID, t.WorkCycleID, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// UpdateTask saves changes to an existing task. The write commits only if
// the stored version still equals t.Version; on success the version is
// incremented and UpdatedAt refreshed. A stale version returns ErrConflict.
func (s *Store) UpdateTask(ctx context.Context, t *Task) error {
	prev := t.Version
	t.Version = prev + 1
	t.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			meeting_id=?, assignee_id=?, description=?, status=?, priority=?, effort_tag=?,
			confidence=?, needs_priority_review=?, is_approved=?, progress=?, story_points=?,
			is_blocked=?, blocker_reason=?, is_potential_risk=?, risk_reason=?,
			due_date=?, suggested_focus_time=?,
			submitted_at=?, submission_notes=?, submission_url=?,
			verified_at=?, verified_by=?, verification_notes=?, verification_deadline_at=?, sla_breached=?,
			bundle_id=?, workcycle_id=?, version=?, updated_at=?
		WHERE id=? AND version=?`,
		t.MeetingID, t.AssigneeID, t.Description, string(t.Status), t.Priority, t.EffortTag,
		t.Confidence, boolInt(t.NeedsPriorityReview), boolInt(t.IsApproved), t.Progress, t.StoryPoints,
		boolInt(t.IsBlocked), t.BlockerReason, boolInt(t.IsPotentialRisk), t.RiskReason,
		t.DueDate, nullTime(t.SuggestedFocusTime),
		nullTime(t.SubmittedAt), t.SubmissionNotes, t.SubmissionURL,
		nullTime(t.VerifiedAt), t.VerifiedBy, t.VerificationNotes, nullTime(t.VerificationDeadlineAt), boolInt(t.SLABreached),
		t.BundleID, t.WorkCycleID, t.Version, t.UpdatedAt,
		t.ID, prev,
	)
	if err != nil {
		t.Version = prev
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		t.Version = prev
		return err
	}
	if rows == 0 {
		t.Version = prev
		// Distinguish a missing row from a stale version.
		if _, getErr := s.GetTask(ctx, t.ID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res)
}

// ListTasks returns tasks matching the filter, newest first unless
// OrderByPriority is set.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + taskCols + ` FROM tasks WHERE 1=1`)
	args := []any{}

	if filter.Status != nil {
		q.WriteString(" AND status=?")
		args = append(args, string(*filter.Status))
	}
	if filter.NotStatus != nil {
		q.WriteString(" AND status<>?")
		args = append(args, string(*filter.NotStatus))
	}
	if filter.AssigneeID != "" {
		q.WriteString(" AND assignee_id=?")
		args = append(args, filter.AssigneeID)
	}
	if filter.MeetingID != "" {
		q.WriteString(" AND meeting_id=?")
		args = append(args, filter.MeetingID)
	}
	if filter.BundleID != "" {
		q.WriteString(" AND bundle_id=?")
		args = append(args, filter.BundleID)
	}
	if filter.WorkCycleID != "" {
		q.WriteString(" AND workcycle_id=?")
		args = append(args, filter.WorkCycleID)
	}
	if filter.NeedsPriorityReview != nil {
		q.WriteString(" AND needs_priority_review=?")
		args = append(args, boolInt(*filter.NeedsPriorityReview))
	}
	if filter.IsApproved != nil {
		q.WriteString(" AND is_approved=?")
		args = append(args, boolInt(*filter.IsApproved))
	}
	if filter.Submitted != nil {
		if *filter.Submitted {
			q.WriteString(" AND submitted_at IS NOT NULL")
		} else {
			q.WriteString(" AND submitted_at IS NULL")
		}
	}
	if filter.CreatedAfter != nil {
		q.WriteString(" AND created_at >= ?")
		args = append(args, *filter.CreatedAfter)
	}
	if filter.OrderByPriority {
		q.WriteString(" ORDER BY priority DESC, created_at ASC")
	} else {
		q.WriteString(" ORDER BY created_at DESC")
	}
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*Task, error) {
	var t Task
	var status string
	var needsReview, approved, blocked, risk, slaBreached int
	var focusTime, submittedAt, verifiedAt, deadline sql.NullTime

	err := row.Scan(
		&t.ID, &t.MeetingID, &t.AssigneeID, &t.Description, &status, &t.Priority, &t.EffortTag,
		&t.Confidence, &needsReview, &approved, &t.Progress, &t.StoryPoints,
		&blocked, &t.BlockerReason, &risk, &t.RiskReason,
		&t.DueDate, &focusTime,
		&submittedAt, &t.SubmissionNotes, &t.SubmissionURL,
		&verifiedAt, &t.VerifiedBy, &t.VerificationNotes, &deadline, &slaBreached,
		&t.BundleID, &t.WorkCycleID, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = Status(status)
	t.NeedsPriorityReview = needsReview != 0
	t.IsApproved = approved != 0
	t.IsBlocked = blocked != 0
	t.IsPotentialRisk = risk != 0
	t.SLABreached = slaBreached != 0

	if focusTime.Valid {
		t.SuggestedFocusTime = &focusTime.Time
	}
	if submittedAt.Valid {
		t.SubmittedAt = &submittedAt.Time
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	if deadline.Valid {
		t.VerificationDeadlineAt = &deadline.Time
	}
	return &t, nil
}
