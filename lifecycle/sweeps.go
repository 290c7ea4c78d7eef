package lifecycle

import (
	"context"
	"fmt"

	"minuteman/store"
)

// SweepSLA flags every submitted task whose verification deadline has
// passed without a verdict. The sla_breached flag makes the sweep
// idempotent: a task already flagged is skipped, so it produces exactly one
// notification no matter how often the sweep runs. Returns the tasks newly
// flagged.
func (e *Engine) SweepSLA(ctx context.Context) ([]*store.Task, error) {
	status := store.StatusSubmitted
	tasks, err := e.store.ListTasks(ctx, store.TaskFilter{Status: &status})
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	var breached []*store.Task
	for _, t := range tasks {
		if t.VerificationDeadlineAt == nil || !t.VerificationDeadlineAt.Before(now) {
			continue
		}
		if t.VerifiedAt != nil || t.SLABreached {
			continue
		}
		t.SLABreached = true
		if err := e.store.UpdateTask(ctx, t); err != nil {
			return nil, err
		}
		if err := e.notifyAdmins(ctx, t.ID,
			fmt.Sprintf("Verification SLA breached: %s", t.Description)); err != nil {
			return nil, err
		}
		breached = append(breached, t)
	}
	return breached, nil
}

// PlanTomorrow rolls the caller's unfinished work forward: every task of
// theirs in To Do or Doing with progress under 100 is moved to Planned for
// Tomorrow, and its due date is pushed to tomorrow unless it is already
// later. A later due date is never pulled backward.
func (e *Engine) PlanTomorrow(ctx context.Context, caller *store.User) ([]*store.Task, error) {
	tomorrow := e.now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	var planned []*store.Task
	for _, status := range []store.Status{store.StatusToDo, store.StatusDoing} {
		st := status
		tasks, err := e.store.ListTasks(ctx, store.TaskFilter{Status: &st, AssigneeID: caller.ID})
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if t.Progress >= 100 {
				continue
			}
			t.Status = store.StatusPlannedTomorrow
			if t.DueDate == "" || t.DueDate < tomorrow {
				t.DueDate = tomorrow
			}
			if err := e.store.UpdateTask(ctx, t); err != nil {
				return nil, err
			}
			planned = append(planned, t)
		}
	}
	return planned, nil
}

// SnapshotWorkCycle records the remaining effort in a work cycle: the
// story-point sum and count of its tasks not yet Done. Append-only.
func (e *Engine) SnapshotWorkCycle(ctx context.Context, workCycleID string) (*store.ProgressSnapshot, error) {
	if _, err := e.store.GetWorkCycle(ctx, workCycleID); err != nil {
		return nil, err
	}
	tasks, err := e.store.ListTasks(ctx, store.TaskFilter{WorkCycleID: workCycleID})
	if err != nil {
		return nil, err
	}

	sn := &store.ProgressSnapshot{WorkCycleID: workCycleID}
	for _, t := range tasks {
		if t.Status == store.StatusDone {
			continue
		}
		sn.RemainingPoints += t.StoryPoints
		sn.RemainingTasks++
	}
	if err := e.store.CreateSnapshot(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}
