package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"minuteman/analytics"
	"minuteman/config"
	"minuteman/extract"
	"minuteman/extract/mock"
	"minuteman/lifecycle"
	"minuteman/store"
)

// newTestServer wires a full server over a temp SQLite store and a scripted
// extractor, with routes registered.
func newTestServer(t *testing.T, extractions ...*extract.Extraction) (*Server, *mock.MockExtractor) {
	t.Helper()
	f, err := os.CreateTemp("", "minuteman-server-*.db")
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

	cfg := config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-key-1234567890",
		},
	}
	ex := mock.New(extractions...)

	s := New(cfg, "test", nil)
	s.SetStore(st)
	s.SetEngine(lifecycle.New(st))
	s.SetAnalytics(analytics.NewReader(st))
	s.SetExtractor(ex)
	s.registerRoutes()
	return s, ex
}

// registerUser creates an account through the public register endpoint.
func registerUser(t *testing.T, s *Server, username, password string, admin bool) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q,"is_admin":%v}`, username, password, admin)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: %d: %s", username, rr.Code, rr.Body.String())
	}
}

// loginUser returns a bearer token for the given credentials.
func loginUser(t *testing.T, s *Server, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: %d: %s", username, rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp["token"]
}

// doJSON performs an authenticated request with an optional JSON body and
// returns the recorder.
func doJSON(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}
