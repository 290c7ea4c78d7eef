package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"minuteman/analytics"
	"minuteman/store"
)

// maxAudioBytes caps uploaded audio recordings.
const maxAudioBytes = 32 << 20

var (
	lazyHashOnce sync.Once
	lazyHash     string
)

// lazyPasswordHash is the bcrypt hash given to users created lazily when an
// extraction names someone without an account. They reset it on first login
// via an admin.
func (h *Handlers) lazyPasswordHash() string {
	lazyHashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			panic(err)
		}
		lazyHash = string(b)
	})
	return lazyHash
}

// processMeetingResponse is the body returned by POST /api/meetings/process.
type processMeetingResponse struct {
	Meeting  *store.Meeting `json:"meeting"`
	Tasks    []*store.Task  `json:"tasks"`
	Blockers []string       `json:"blockers"`
}

// processMeeting runs the full pipeline: transcript (or transcribed audio)
// through the extractor, then meeting + task creation. Extraction is
// all-or-nothing: a failed or unparsable model call creates no records.
func (h *Handlers) processMeeting(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.admin(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	title := r.FormValue("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	date := r.FormValue("date")
	if date == "" {
		date = time.Now().UTC().Format(time.RFC3339)
	}
	transcript := r.FormValue("transcript")

	if transcript == "" {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "provide transcript text or upload an audio file")
			return
		}
		defer file.Close()
		audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "read audio: "+err.Error())
			return
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "audio/mpeg"
		}
		transcript, err = h.Extractor.Transcribe(r.Context(), audio, mimeType)
		if err != nil {
			h.Logger.Error("audio transcription failed", slog.Any("err", err))
			writeError(w, http.StatusBadGateway, "audio transcription failed: "+err.Error())
			return
		}
	}
	if strings.TrimSpace(transcript) == "" {
		writeError(w, http.StatusBadRequest, "no transcript text available after processing")
		return
	}

	extraction, err := h.Extractor.Extract(r.Context(), title, transcript)
	if err != nil {
		h.Logger.Error("extraction failed", slog.String("title", title), slog.Any("err", err))
		writeError(w, http.StatusBadGateway, "transcript analysis failed: "+err.Error())
		return
	}

	meeting := &store.Meeting{
		Title:       title,
		Date:        date,
		Summary:     extraction.Summary,
		ProcessedBy: admin.ID,
	}
	if err := h.Store.CreateMeeting(r.Context(), meeting); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tasks := []*store.Task{}
	for _, draft := range extraction.Tasks {
		if draft.Description == "" {
			continue
		}
		assigneeName := strings.TrimSpace(draft.Assignee)
		if assigneeName == "" || strings.EqualFold(assigneeName, "unassigned") {
			assigneeName = "unassigned"
		}
		assignee, err := h.Store.GetOrCreateUser(r.Context(), assigneeName, h.lazyPasswordHash())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		t, err := h.Engine.CreateFromDraft(r.Context(), meeting.ID, assignee.ID, draft)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		tasks = append(tasks, t)
	}

	h.Logger.Info("meeting processed",
		slog.String("meeting_id", meeting.ID),
		slog.Int("tasks", len(tasks)),
	)

	writeJSON(w, http.StatusCreated, processMeetingResponse{
		Meeting:  meeting,
		Tasks:    tasks,
		Blockers: analytics.DetectBlockers(transcript),
	})
}

func (h *Handlers) listMeetings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	meetings, err := h.Store.ListMeetings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if meetings == nil {
		meetings = []*store.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}
