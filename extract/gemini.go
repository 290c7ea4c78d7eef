package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash-exp"
)

// GeminiConfig holds configuration for the Gemini extractor.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiExtractor implements Extractor using the Gemini generateContent API.
type GeminiExtractor struct {
	config GeminiConfig
}

// NewGeminiExtractor creates a new Gemini extractor with the given config.
func NewGeminiExtractor(cfg GeminiConfig) *GeminiExtractor {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &GeminiExtractor{config: cfg}
}

func (g *GeminiExtractor) Name() string { return "gemini" }

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inline_data,omitempty"`
}

type geminiBlobData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// geminiResponse is the response from the generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Extract asks the model for a summary and action items and parses the
// JSON it returns.
func (g *GeminiExtractor) Extract(ctx context.Context, title, transcript string) (*Extraction, error) {
	text, err := g.generate(ctx, []geminiPart{{Text: extractionPrompt(title, transcript)}})
	if err != nil {
		return nil, err
	}
	return ParseExtraction(text)
}

// Transcribe converts an audio recording to plain transcript text.
func (g *GeminiExtractor) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	parts := []geminiPart{
		{Text: "Transcribe this audio recording of a meeting to plain text. Output only the transcript text, no metadata."},
		{InlineData: &geminiBlobData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}
	text, err := g.generate(ctx, parts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// generate performs one non-streaming generateContent call and returns the
// concatenated text of the first candidate.
func (g *GeminiExtractor) generate(ctx context.Context, parts []geminiPart) (string, error) {
	data, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.config.BaseURL, g.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.config.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("gemini: unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("gemini: %s: %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}

	var textParts []string
	for _, p := range apiResp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textParts = append(textParts, p.Text)
		}
	}
	return strings.Join(textParts, ""), nil
}

func extractionPrompt(title, transcript string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that extracts meeting minutes and action items.\n\n")
	fmt.Fprintf(&b, "Meeting Title: %s\n\n", title)
	fmt.Fprintf(&b, "Meeting Transcript:\n%s\n\n", transcript)
	b.WriteString(`Produce a JSON object ONLY (no surrounding text) with two keys: "summary" and "tasks".
- "summary": a concise minutes-of-meeting paragraph (3-6 sentences) focusing on key decisions and outcomes.
- "tasks": an array of action items. Each must have "description" (string) and "assignee"
  (username or name, or "unassigned"), plus optional "due_date" (ISO date YYYY-MM-DD if obvious),
  "priority" (1-10 based on urgency), "effort_tag" ("small", "medium", or "large"),
  "confidence" (0.0-1.0 how confident you are this is a real task),
  "story_points" (integer estimate), and "is_potential_risk"/"risk_reason" when the
  transcript suggests the item may slip.
Ensure the output is valid JSON. If there are no tasks, return an empty array for "tasks".
Example output:
{"summary":"...","tasks":[{"description":"...","assignee":"alice","due_date":"2025-10-15","priority":5,"effort_tag":"medium","confidence":0.9}]}

Now analyze and output the JSON.`)
	return b.String()
}
