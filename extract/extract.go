// Package extract turns meeting transcripts into summaries and task drafts
// using a generative-AI backend.
package extract

import "context"

// TaskDraft is one action item proposed by the extractor. Fields beyond
// description and assignee are optional; the lifecycle engine fills in the
// rest at creation time.
type TaskDraft struct {
	Description     string  `json:"description"`
	Assignee        string  `json:"assignee"`
	DueDate         string  `json:"due_date,omitempty"` // YYYY-MM-DD
	Priority        int     `json:"priority,omitempty"` // 0..10
	EffortTag       string  `json:"effort_tag,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
	StoryPoints     int     `json:"story_points,omitempty"`
	IsPotentialRisk bool    `json:"is_potential_risk,omitempty"`
	RiskReason      string  `json:"risk_reason,omitempty"`
}

// Extraction is the structured result of analyzing one transcript.
type Extraction struct {
	Summary string      `json:"summary"`
	Tasks   []TaskDraft `json:"tasks"`
}

// Extractor analyzes meeting transcripts. Implementations call an external
// model; a failure is terminal for the request, no retries.
type Extractor interface {
	// Name returns the backend identifier (e.g., "gemini", "mock").
	Name() string

	// Extract produces a summary and task drafts from raw transcript text.
	Extract(ctx context.Context, title, transcript string) (*Extraction, error)

	// Transcribe converts an uploaded audio recording to plain text.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
