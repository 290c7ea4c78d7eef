// Package analytics computes read-side aggregates over the entity store.
// Nothing here is cached; every call recomputes from current data.
package analytics

import (
	"context"
	"sort"
	"time"

	"minuteman/store"
)

// Reader computes analytics over the store.
type Reader struct {
	store *store.Store
	now   func() time.Time
}

// NewReader creates a Reader over the given store.
func NewReader(st *store.Store) *Reader {
	return &Reader{store: st, now: time.Now}
}

// SetClock overrides the reader's time source. For tests.
func (r *Reader) SetClock(now func() time.Time) { r.now = now }

// TaskRef is a compact task reference used in briefing lists.
type TaskRef struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// Briefing is the daily snapshot an admin starts the day with.
type Briefing struct {
	Date            string    `json:"date"`
	CompletedToday  int       `json:"completed_today"`
	BlockedCount    int       `json:"blocked_count"`
	BlockedTasks    []TaskRef `json:"blocked_tasks"`
	RiskCount       int       `json:"risk_count"`
	RiskTasks       []TaskRef `json:"risk_tasks"`
	HighPriority    []TaskRef `json:"high_priority"`
	OverdueCount    int       `json:"overdue_count"`
	OverdueTasks    []TaskRef `json:"overdue_tasks"`
	PendingApproval int       `json:"pending_approval"`
	SLABreached     int       `json:"sla_breached"`
}

// DailyBriefing assembles the briefing from the current task set.
func (r *Reader) DailyBriefing(ctx context.Context) (*Briefing, error) {
	tasks, err := r.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	today := now.Format("2006-01-02")
	b := &Briefing{
		Date:         today,
		BlockedTasks: []TaskRef{},
		RiskTasks:    []TaskRef{},
		HighPriority: []TaskRef{},
		OverdueTasks: []TaskRef{},
	}

	var highPriority []*store.Task
	for _, t := range tasks {
		done := t.Status == store.StatusDone

		if done && t.UpdatedAt.Format("2006-01-02") == today {
			b.CompletedToday++
		}
		if t.IsBlocked && !done {
			b.BlockedCount++
			if len(b.BlockedTasks) < 3 {
				b.BlockedTasks = append(b.BlockedTasks, TaskRef{ID: t.ID, Description: t.Description, Reason: t.BlockerReason})
			}
		}
		if t.IsPotentialRisk && !done {
			b.RiskCount++
			if len(b.RiskTasks) < 3 {
				b.RiskTasks = append(b.RiskTasks, TaskRef{ID: t.ID, Description: t.Description, Reason: t.RiskReason})
			}
		}
		if t.Priority >= 8 && !done && t.IsApproved {
			highPriority = append(highPriority, t)
		}
		if t.DueDate != "" && t.DueDate < today && !done {
			b.OverdueCount++
			if len(b.OverdueTasks) < 3 {
				b.OverdueTasks = append(b.OverdueTasks, TaskRef{ID: t.ID, Description: t.Description, DueDate: t.DueDate})
			}
		}
		if t.Status == store.StatusApprovalPending {
			b.PendingApproval++
		}
		if t.Status == store.StatusSubmitted && t.VerifiedAt == nil &&
			t.VerificationDeadlineAt != nil && t.VerificationDeadlineAt.Before(now) {
			b.SLABreached++
		}
	}

	// Top 5 by priority, stable within equal priorities.
	sort.SliceStable(highPriority, func(i, j int) bool {
		return highPriority[i].Priority > highPriority[j].Priority
	})
	for _, t := range highPriority {
		if len(b.HighPriority) == 5 {
			break
		}
		b.HighPriority = append(b.HighPriority, TaskRef{
			ID:          t.ID,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
		})
	}

	return b, nil
}
