package analytics

import (
	"context"
	"math"

	"minuteman/store"
)

// Productivity summarizes output over a trailing window of days.
type Productivity struct {
	PeriodDays         int     `json:"period_days"`
	MeetingsHeld       int     `json:"meetings_held"`
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	CompletionRate     float64 `json:"completion_rate"`      // percent
	AvgCompletionHours float64 `json:"avg_completion_hours"` // mean over completed tasks
	BlockedTasks       int     `json:"blocked_tasks"`
	BlockerRate        float64 `json:"blocker_rate"` // percent
}

// ProductivityWindow computes productivity stats over the trailing `days`
// days. Rates are zero-safe: with no tasks in the window they are 0.
func (r *Reader) ProductivityWindow(ctx context.Context, days int) (*Productivity, error) {
	start := r.now().UTC().AddDate(0, 0, -days)

	meetings, err := r.store.CountMeetingsSince(ctx, start)
	if err != nil {
		return nil, err
	}
	tasks, err := r.store.ListTasks(ctx, store.TaskFilter{CreatedAfter: &start})
	if err != nil {
		return nil, err
	}

	p := &Productivity{PeriodDays: days, MeetingsHeld: meetings, TotalTasks: len(tasks)}

	var completionHours float64
	for _, t := range tasks {
		if t.Status == store.StatusDone {
			p.CompletedTasks++
			completionHours += t.UpdatedAt.Sub(t.CreatedAt).Hours()
		}
		if t.IsBlocked {
			p.BlockedTasks++
		}
	}

	if p.TotalTasks > 0 {
		p.CompletionRate = round1(float64(p.CompletedTasks) / float64(p.TotalTasks) * 100)
		p.BlockerRate = round1(float64(p.BlockedTasks) / float64(p.TotalTasks) * 100)
	}
	if p.CompletedTasks > 0 {
		p.AvgCompletionHours = round1(completionHours / float64(p.CompletedTasks))
	}
	return p, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
