// Package mock provides a scripted extractor for testing.
package mock

import (
	"context"
	"fmt"

	"minuteman/extract"
)

// MockExtractor implements extract.Extractor for testing. It returns
// scripted extractions and can simulate backend failures.
type MockExtractor struct {
	extractions []*extract.Extraction
	idx         int

	// Err, when set, is returned by every call.
	Err error

	// Transcript is returned by Transcribe.
	Transcript string
}

// New creates a MockExtractor that cycles through the given extractions.
func New(extractions ...*extract.Extraction) *MockExtractor {
	return &MockExtractor{extractions: extractions}
}

// Name returns the backend identifier.
func (m *MockExtractor) Name() string { return "mock" }

// Extract returns the next scripted extraction, cycling through the queue.
func (m *MockExtractor) Extract(_ context.Context, _, _ string) (*extract.Extraction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.extractions) == 0 {
		return &extract.Extraction{Summary: "No decisions recorded."}, nil
	}
	e := m.extractions[m.idx%len(m.extractions)]
	m.idx++
	return e, nil
}

// Transcribe returns the scripted transcript.
func (m *MockExtractor) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Transcript != "" {
		return m.Transcript, nil
	}
	return fmt.Sprintf("transcript of %d bytes of audio", len(audio)), nil
}
