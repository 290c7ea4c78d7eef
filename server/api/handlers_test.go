package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"minuteman/analytics"
	"minuteman/extract"
	"minuteman/extract/mock"
	"minuteman/lifecycle"
	"minuteman/server/api"
	"minuteman/store"
)

// --- Test helpers ---

type testAPI struct {
	mux       *http.ServeMux
	store     *store.Store
	engine    *lifecycle.Engine
	extractor *mock.MockExtractor
}

func newTestAPI(t *testing.T, extractions ...*extract.Extraction) *testAPI {
	t.Helper()
	f, err := os.CreateTemp("", "minuteman-api-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ex := mock.New(extractions...)
	engine := lifecycle.New(st)
	h := &api.Handlers{
		Store:     st,
		Engine:    engine,
		Analytics: analytics.NewReader(st),
		Extractor: ex,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version:   "test",
	}
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testAPI{mux: mux, store: st, engine: engine, extractor: ex}
}

func (a *testAPI) user(t *testing.T, username string, admin bool) *store.User {
	t.Helper()
	u := &store.User{Username: username, PasswordHash: "x", IsAdmin: admin}
	if err := a.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser %s: %v", username, err)
	}
	return u
}

// do performs a request as the given user. The auth middleware lives a layer
// up, so the user is injected into the context directly.
func (a *testAPI) do(t *testing.T, u *store.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if u != nil {
		req = req.WithContext(api.ContextWithUser(req.Context(), u))
	}
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	return rr
}

func decodeTask(t *testing.T, rr *httptest.ResponseRecorder) *store.Task {
	t.Helper()
	var task store.Task
	if err := json.NewDecoder(rr.Body).Decode(&task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return &task
}

func decodeTasks(t *testing.T, rr *httptest.ResponseRecorder) []*store.Task {
	t.Helper()
	var tasks []*store.Task
	if err := json.NewDecoder(rr.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	return tasks
}

// --- Task endpoints ---

func TestCreateTask_AdminOnly(t *testing.T) {
	a := newTestAPI(t)
	worker := a.user(t, "worker", false)

	rr := a.do(t, worker, http.MethodPost, "/api/tasks",
		`{"description":"x","assignee_username":"worker"}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("non-admin create: %d, want 403", rr.Code)
	}
}

func TestCreateTask(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)

	rr := a.do(t, admin, http.MethodPost, "/api/tasks",
		`{"description":"Order new laptops","assignee_username":"facilities","priority":5,"story_points":13}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d: %s", rr.Code, rr.Body.String())
	}
	task := decodeTask(t, rr)
	if task.Status != store.StatusToDo {
		t.Errorf("manual task status = %q, want To Do even at 13 points", task.Status)
	}

	// The named assignee was created on the fly.
	u, err := a.store.GetUserByUsername(context.Background(), "facilities")
	if err != nil {
		t.Fatalf("assignee not created: %v", err)
	}
	if task.AssigneeID != u.ID {
		t.Errorf("AssigneeID = %q, want %q", task.AssigneeID, u.ID)
	}
}

func TestCreateTask_UnknownMeeting(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)

	rr := a.do(t, admin, http.MethodPost, "/api/tasks",
		`{"description":"x","assignee_username":"y","meeting_id":"nope"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown meeting: %d, want 404", rr.Code)
	}
}

func TestCaptureTask(t *testing.T) {
	a := newTestAPI(t)
	worker := a.user(t, "worker", false)

	rr := a.do(t, worker, http.MethodPost, "/api/tasks/capture",
		`{"text":"call the vendor back"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("capture: %d: %s", rr.Code, rr.Body.String())
	}
	task := decodeTask(t, rr)
	if task.Status != store.StatusCaptureInbox {
		t.Errorf("Status = %q, want Capture Inbox", task.Status)
	}
	if task.AssigneeID != worker.ID {
		t.Errorf("AssigneeID = %q, want requester", task.AssigneeID)
	}
}

func TestGetTask_Visibility(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)
	other := a.user(t, "other", false)

	created := a.do(t, admin, http.MethodPost, "/api/tasks",
		`{"description":"private work","assignee_username":"worker"}`)
	task := decodeTask(t, created)

	if rr := a.do(t, worker, http.MethodGet, "/api/tasks/"+task.ID, ""); rr.Code != http.StatusOK {
		t.Errorf("assignee get: %d, want 200", rr.Code)
	}
	if rr := a.do(t, admin, http.MethodGet, "/api/tasks/"+task.ID, ""); rr.Code != http.StatusOK {
		t.Errorf("admin get: %d, want 200", rr.Code)
	}
	if rr := a.do(t, other, http.MethodGet, "/api/tasks/"+task.ID, ""); rr.Code != http.StatusForbidden {
		t.Errorf("stranger get: %d, want 403", rr.Code)
	}
	if rr := a.do(t, admin, http.MethodGet, "/api/tasks/nonexistent", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing task: %d, want 404", rr.Code)
	}
}

func TestUpdateTask_InvalidStatus(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)

	created := a.do(t, admin, http.MethodPost, "/api/tasks",
		`{"description":"w","assignee_username":"boss"}`)
	task := decodeTask(t, created)

	rr := a.do(t, admin, http.MethodPatch, "/api/tasks/"+task.ID, `{"status":"Weird State"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid status: %d, want 400", rr.Code)
	}
}

func TestSubmitVerifyFlow(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	created := a.do(t, admin, http.MethodPost, "/api/tasks",
		`{"description":"ship it","assignee_username":"worker"}`)
	task := decodeTask(t, created)

	// Verifying before submission conflicts.
	rr := a.do(t, admin, http.MethodPost, "/api/tasks/"+task.ID+"/verify", `{"approved":true}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("verify unsubmitted: %d, want 409", rr.Code)
	}

	// Only the assignee may submit.
	rr = a.do(t, admin, http.MethodPost, "/api/tasks/"+task.ID+"/submit", `{}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("admin submit: %d, want 403", rr.Code)
	}

	rr = a.do(t, worker, http.MethodPost, "/api/tasks/"+task.ID+"/submit",
		`{"submission_notes":"done","submission_url":"https://example.com/pr/7"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: %d: %s", rr.Code, rr.Body.String())
	}
	submitted := decodeTask(t, rr)
	if submitted.Status != store.StatusSubmitted || submitted.Progress != 100 {
		t.Errorf("submitted = %q/%d", submitted.Status, submitted.Progress)
	}

	// The pending-verification queue is admin only and now has one entry.
	rr = a.do(t, worker, http.MethodGet, "/api/tasks/pending-verification", "")
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker pending-verification: %d, want 403", rr.Code)
	}
	rr = a.do(t, admin, http.MethodGet, "/api/tasks/pending-verification", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("pending-verification: %d", rr.Code)
	}
	if pending := decodeTasks(t, rr); len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}

	// Reject, then the task is back in Doing at half progress.
	rr = a.do(t, admin, http.MethodPost, "/api/tasks/"+task.ID+"/verify",
		`{"approved":false,"verification_notes":"needs tests"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify reject: %d: %s", rr.Code, rr.Body.String())
	}
	rejected := decodeTask(t, rr)
	if rejected.Status != store.StatusDoing || rejected.Progress != 50 {
		t.Errorf("rejected = %q/%d, want Doing/50", rejected.Status, rejected.Progress)
	}
}

func TestApproveManagerFlow(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	task, err := a.engine.CreateFromDraft(context.Background(),
		"", worker.ID, extract.TaskDraft{Description: "rebuild billing", Confidence: 0.9, StoryPoints: 13})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if task.Status != store.StatusApprovalPending {
		t.Fatalf("draft status = %q", task.Status)
	}

	rr := a.do(t, worker, http.MethodPost, "/api/tasks/"+task.ID+"/approve-manager", "")
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker approve: %d, want 403", rr.Code)
	}

	rr = a.do(t, admin, http.MethodPost, "/api/tasks/"+task.ID+"/approve-manager", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: %d: %s", rr.Code, rr.Body.String())
	}

	rr = a.do(t, admin, http.MethodPost, "/api/tasks/"+task.ID+"/approve-manager", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("second approve: %d, want 409", rr.Code)
	}
}

func TestTaskQueues(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	ctx := context.Background()
	drafts := []extract.TaskDraft{
		{Description: "low confidence", Confidence: 0.3, Priority: 2},
		{Description: "solid plan", Confidence: 0.9, Priority: 6},
	}
	for _, d := range drafts {
		if _, err := a.engine.CreateFromDraft(ctx, "", worker.ID, d); err != nil {
			t.Fatalf("CreateFromDraft: %v", err)
		}
	}

	// Review queue holds only the low-confidence task.
	rr := a.do(t, admin, http.MethodGet, "/api/tasks/review", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("review: %d", rr.Code)
	}
	review := decodeTasks(t, rr)
	if len(review) != 1 || review[0].Description != "low confidence" {
		t.Errorf("review queue = %+v", review)
	}

	// My-tasks view works for any user.
	rr = a.do(t, worker, http.MethodGet, "/api/tasks/my", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("my tasks: %d", rr.Code)
	}
	if mine := decodeTasks(t, rr); len(mine) != 2 {
		t.Errorf("my tasks = %d, want 2", len(mine))
	}

	// Full listing is admin only.
	rr = a.do(t, worker, http.MethodGet, "/api/tasks", "")
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker list all: %d, want 403", rr.Code)
	}
	rr = a.do(t, admin, http.MethodGet, "/api/tasks?status=To+Do", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list by status: %d", rr.Code)
	}
	if rr := a.do(t, admin, http.MethodGet, "/api/tasks?status=bogus", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bogus status filter: %d, want 400", rr.Code)
	}
}

func TestPlanTomorrow(t *testing.T) {
	a := newTestAPI(t)
	worker := a.user(t, "worker", false)

	ctx := context.Background()
	task := &store.Task{AssigneeID: worker.ID, Description: "unfinished", Status: store.StatusToDo}
	if err := a.store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	rr := a.do(t, worker, http.MethodPost, "/api/tasks/plan-tomorrow", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("plan-tomorrow: %d: %s", rr.Code, rr.Body.String())
	}
	planned := decodeTasks(t, rr)
	if len(planned) != 1 || planned[0].Status != store.StatusPlannedTomorrow {
		t.Errorf("planned = %+v", planned)
	}
}

// --- Meetings ---

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestProcessMeeting(t *testing.T) {
	a := newTestAPI(t, &extract.Extraction{
		Summary: "The budget was approved.",
		Tasks: []extract.TaskDraft{
			{Description: "Send the recap", Assignee: "alice", Confidence: 0.9, Priority: 3, EffortTag: "small"},
			{Description: "", Assignee: "bob"},
			{Description: "Fix the pipeline", Assignee: "unassigned", Confidence: 0.5},
		},
	})
	admin := a.user(t, "boss", true)

	body, contentType := multipartBody(t, map[string]string{
		"title":      "Budget Review",
		"transcript": "Boss: budget approved.\nAlice: I'm stuck on the pipeline issue.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/meetings/process", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithUser(req.Context(), admin))
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("process: %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Meeting  *store.Meeting `json:"meeting"`
		Tasks    []*store.Task  `json:"tasks"`
		Blockers []string       `json:"blockers"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Meeting.Summary != "The budget was approved." {
		t.Errorf("Summary = %q", resp.Meeting.Summary)
	}
	// The empty-description draft was dropped.
	if len(resp.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(resp.Tasks))
	}
	// Low-confidence draft was flagged.
	if !resp.Tasks[1].NeedsPriorityReview || resp.Tasks[1].Priority != 4 {
		t.Errorf("low-confidence task = %+v", resp.Tasks[1])
	}
	if len(resp.Blockers) != 1 {
		t.Errorf("blockers = %v, want the stuck line", resp.Blockers)
	}

	// The "unassigned" collaborator exists now.
	ctx := context.Background()
	if _, err := a.store.GetUserByUsername(ctx, "unassigned"); err != nil {
		t.Errorf("unassigned user not created: %v", err)
	}
}

func TestProcessMeeting_ExtractionFailure(t *testing.T) {
	a := newTestAPI(t)
	a.extractor.Err = fmt.Errorf("model unavailable")
	admin := a.user(t, "boss", true)

	body, contentType := multipartBody(t, map[string]string{
		"title":      "Doomed Meeting",
		"transcript": "Some discussion.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/meetings/process", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithUser(req.Context(), admin))
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("failed extraction: %d, want 502", rr.Code)
	}
	// All or nothing: no meeting record was written.
	ctx := context.Background()
	meetings, err := a.store.ListMeetings(ctx)
	if err != nil {
		t.Fatalf("ListMeetings: %v", err)
	}
	if len(meetings) != 0 {
		t.Errorf("meetings = %d, want 0 after failed extraction", len(meetings))
	}
}

func TestProcessMeeting_MissingInputs(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)

	body, contentType := multipartBody(t, map[string]string{"transcript": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/meetings/process", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithUser(req.Context(), admin))
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing title: %d, want 400", rr.Code)
	}

	body, contentType = multipartBody(t, map[string]string{"title": "No Content"})
	req = httptest.NewRequest(http.MethodPost, "/api/meetings/process", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.ContextWithUser(req.Context(), admin))
	rr = httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("no transcript or file: %d, want 400", rr.Code)
	}
}

// --- Work cycles and bundles ---

func TestWorkCycleLifecycle(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	rr := a.do(t, worker, http.MethodPost, "/api/workcycles", `{"name":"Cycle 1"}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker create cycle: %d, want 403", rr.Code)
	}

	rr = a.do(t, admin, http.MethodPost, "/api/workcycles",
		`{"name":"Cycle 1","goal":"ship v2","starts_on":"2026-08-24","ends_on":"2026-09-06"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create cycle: %d: %s", rr.Code, rr.Body.String())
	}
	var wc store.WorkCycle
	if err := json.NewDecoder(rr.Body).Decode(&wc); err != nil {
		t.Fatalf("decode cycle: %v", err)
	}

	ctx := context.Background()
	task := &store.Task{AssigneeID: worker.ID, Description: "cycle work", Status: store.StatusToDo, StoryPoints: 5, WorkCycleID: wc.ID}
	if err := a.store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	rr = a.do(t, worker, http.MethodGet, "/api/workcycles/"+wc.ID+"/tasks", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("cycle tasks: %d", rr.Code)
	}
	if tasks := decodeTasks(t, rr); len(tasks) != 1 {
		t.Errorf("cycle tasks = %d, want 1", len(tasks))
	}

	rr = a.do(t, admin, http.MethodPost, "/api/workcycles/"+wc.ID+"/snapshot", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("snapshot: %d: %s", rr.Code, rr.Body.String())
	}
	var sn store.ProgressSnapshot
	if err := json.NewDecoder(rr.Body).Decode(&sn); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if sn.RemainingPoints != 5 || sn.RemainingTasks != 1 {
		t.Errorf("snapshot = %+v", sn)
	}

	rr = a.do(t, worker, http.MethodGet, "/api/workcycles/"+wc.ID+"/snapshots", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("snapshots: %d", rr.Code)
	}
}

func TestBundles(t *testing.T) {
	a := newTestAPI(t)
	worker := a.user(t, "worker", false)

	rr := a.do(t, worker, http.MethodPost, "/api/bundles", `{"name":"Onboarding"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create bundle: %d: %s", rr.Code, rr.Body.String())
	}
	var b store.BundleGroup
	if err := json.NewDecoder(rr.Body).Decode(&b); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if b.CreatedBy != worker.ID {
		t.Errorf("CreatedBy = %q, want creator", b.CreatedBy)
	}

	rr = a.do(t, worker, http.MethodGet, "/api/bundles/"+b.ID+"/tasks", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("bundle tasks: %d", rr.Code)
	}
	if tasks := decodeTasks(t, rr); len(tasks) != 0 {
		t.Errorf("bundle tasks = %d, want 0", len(tasks))
	}
}

// --- Analytics and notifications ---

func TestBriefingEndpoint_SweepsSLA(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	rr := a.do(t, worker, http.MethodGet, "/api/analytics/briefing", "")
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker briefing: %d, want 403", rr.Code)
	}

	// A submission past its deadline gets flagged by the briefing read.
	ctx := context.Background()
	task := &store.Task{AssigneeID: worker.ID, Description: "late work", Status: store.StatusDoing}
	if err := a.store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := a.engine.Submit(ctx, task.ID, worker, "", ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err := a.store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	past := got.SubmittedAt.Add(-48 * time.Hour)
	got.SubmittedAt = &past
	deadline := past.Add(24 * time.Hour)
	got.VerificationDeadlineAt = &deadline
	if err := a.store.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	rr = a.do(t, admin, http.MethodGet, "/api/analytics/briefing", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("briefing: %d: %s", rr.Code, rr.Body.String())
	}
	var b analytics.Briefing
	if err := json.NewDecoder(rr.Body).Decode(&b); err != nil {
		t.Fatalf("decode briefing: %v", err)
	}
	if b.SLABreached != 1 {
		t.Errorf("SLABreached = %d, want 1", b.SLABreached)
	}

	flagged, err := a.store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !flagged.SLABreached {
		t.Error("briefing read did not flag the breach")
	}
}

func TestProductivityEndpoint(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)

	rr := a.do(t, admin, http.MethodGet, "/api/analytics/productivity?days=30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("productivity: %d: %s", rr.Code, rr.Body.String())
	}
	var p analytics.Productivity
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.PeriodDays != 30 {
		t.Errorf("PeriodDays = %d, want 30", p.PeriodDays)
	}

	if rr := a.do(t, admin, http.MethodGet, "/api/analytics/productivity?days=-1", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("negative days: %d, want 400", rr.Code)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	admin := a.user(t, "boss", true)
	worker := a.user(t, "worker", false)

	// Approving a gated task notifies the assignee.
	ctx := context.Background()
	task, err := a.engine.CreateFromDraft(ctx, "", worker.ID,
		extract.TaskDraft{Description: "gated", Confidence: 0.9, EffortTag: "large"})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if _, err := a.engine.ApproveManager(ctx, task.ID, admin); err != nil {
		t.Fatalf("ApproveManager: %v", err)
	}

	rr := a.do(t, worker, http.MethodGet, "/api/notifications", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("notifications: %d", rr.Code)
	}
	var notifs []*store.Notification
	if err := json.NewDecoder(rr.Body).Decode(&notifs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}

	// Another user cannot mark it read.
	rr = a.do(t, admin, http.MethodPatch, "/api/notifications/"+notifs[0].ID+"/read", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("cross-user mark read: %d, want 404", rr.Code)
	}
	rr = a.do(t, worker, http.MethodPatch, "/api/notifications/"+notifs[0].ID+"/read", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("mark read: %d, want 204", rr.Code)
	}
}
