package store

import "time"

// User is a participant or admin. Users may be created explicitly through
// registration or lazily when an extraction names an unknown assignee.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	TeamID       string    `json:"team_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Team is a named group users may belong to.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Meeting is a processed transcript session. Immutable after creation
// except for the summary text.
type Meeting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Summary     string    `json:"summary,omitempty"`
	ProcessedBy string    `json:"processed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkCycle is a time-boxed grouping of tasks (a sprint) with a goal.
type WorkCycle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal,omitempty"`
	StartsOn  string    `json:"starts_on,omitempty"` // YYYY-MM-DD
	EndsOn    string    `json:"ends_on,omitempty"`   // YYYY-MM-DD
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// BundleGroup is an arbitrary named grouping of tasks, independent of time.
type BundleGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a message addressed to a user, created as a side effect
// of lifecycle transitions.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressSnapshot is a point-in-time remaining-effort measurement for a
// work cycle. Snapshots are append-only and never mutated.
type ProgressSnapshot struct {
	ID              string    `json:"id"`
	WorkCycleID     string    `json:"workcycle_id"`
	RemainingPoints int       `json:"remaining_points"`
	RemainingTasks  int       `json:"remaining_tasks"`
	TakenAt         time.Time `json:"taken_at"`
}
