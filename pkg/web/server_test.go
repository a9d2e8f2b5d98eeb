package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/forge-graph/pkg/analysis"
	"github.com/ritzau/forge-graph/pkg/command"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/pubsub"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

func gameSnapshot() *snapshot.Snapshot {
	snap := snapshot.New()
	snap.AddTypes(
		&project.TypeInfo{FullName: "Game.Character", BaseType: project.MonoBehaviourType},
		&project.TypeInfo{FullName: "Game.Weapon", BaseType: "System.Object"},
		&project.TypeInfo{
			FullName: "Game.Player", BaseType: "Game.Character",
			Fields: []project.FieldInfo{{Name: "gun", Type: "Game.Weapon"}},
		},
	)
	return snap
}

func newServer(snap *snapshot.Snapshot) *Server {
	return NewServer(command.NewDispatcher(snap, command.DefaultOptions()))
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, *command.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp command.Response
	if strings.HasPrefix(path, "/api/commands/") && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding %s: %v (%s)", path, err, rec.Body.String())
		}
	}
	return rec, &resp
}

func TestOperations(t *testing.T) {
	rec, _ := do(t, newServer(gameSnapshot()), "GET", "/api/operations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Operations []string `json:"operations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Operations) != 29 {
		t.Errorf("operations = %d, want 29", len(body.Operations))
	}
}

func TestCommand(t *testing.T) {
	s := newServer(gameSnapshot())

	rec, resp := do(t, s, "POST", "/api/commands/analyze_class", `{"type_name": "Player", "depth": 1}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, response = %+v", rec.Code, resp)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["nodeCount"] != float64(3) || result["graphType"] != "class_dependency" {
		t.Errorf("result = %v", resp.Result)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}

	rec, resp = do(t, s, "POST", "/api/commands/analyze_class", `{"type_name": "Player", "format": "mermaid"}`)
	if text, _ := resp.Result.(string); rec.Code != http.StatusOK || !strings.HasPrefix(text, "graph") {
		t.Errorf("mermaid result = %d %q", rec.Code, resp.Result)
	}

	rec, resp = do(t, s, "POST", "/api/commands/list_types", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Errorf("empty body: status = %d, response = %+v", rec.Code, resp)
	}
}

func TestCommand_Errors(t *testing.T) {
	s := newServer(gameSnapshot())
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantKind string
	}{
		{"unknown operation", "/api/commands/explode", "{}", http.StatusNotFound, command.ErrorNotFound},
		{"unknown type", "/api/commands/inspect_type", `{"type_name": "Nope"}`, http.StatusNotFound, command.ErrorNotFound},
		{"missing param", "/api/commands/inspect_type", "{}", http.StatusBadRequest, command.ErrorInvalidParams},
		{"body not an object", "/api/commands/list_types", "[1, 2]", http.StatusBadRequest, command.ErrorInvalidParams},
		{"malformed body", "/api/commands/list_types", "{", http.StatusBadRequest, command.ErrorInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, s, "POST", tt.path, tt.body)
			if rec.Code != tt.wantCode || resp.ErrorKind != tt.wantKind || resp.Success {
				t.Errorf("status = %d, kind = %q; want %d, %q", rec.Code, resp.ErrorKind, tt.wantCode, tt.wantKind)
			}
		})
	}
}

func TestCommand_NoProject(t *testing.T) {
	rec, resp := do(t, newServer(nil), "POST", "/api/commands/list_types", "{}")
	if rec.Code != http.StatusServiceUnavailable || resp.ErrorKind != command.ErrorInternal {
		t.Errorf("status = %d, kind = %q", rec.Code, resp.ErrorKind)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec, resp := do(t, newServer(gameSnapshot()), "GET", "/api/commands/list_types", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if resp.Success || resp.ErrorKind != command.ErrorInvalidParams || resp.Operation != "list_types" {
		t.Errorf("response = %+v", resp)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestRequestID(t *testing.T) {
	s := newServer(gameSnapshot())

	rec, _ := do(t, s, "GET", "/api/operations", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	req := httptest.NewRequest("GET", "/api/project", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want the client's id", got)
	}
}

type fakeReloader struct {
	runs int
	err  error
}

func (f *fakeReloader) Run(context.Context, analysis.RunOptions) error {
	f.runs++
	return f.err
}

func (f *fakeReloader) Generation() int { return f.runs }

func TestProject(t *testing.T) {
	s := newServer(gameSnapshot())

	rec, _ := do(t, s, "POST", "/api/project/reload", "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("reload without reloader = %d", rec.Code)
	}

	reloader := &fakeReloader{}
	s.SetReloader(reloader)
	rec, _ = do(t, s, "POST", "/api/project/reload", "")
	if rec.Code != http.StatusOK || reloader.runs != 1 {
		t.Fatalf("reload = %d, runs = %d", rec.Code, reloader.runs)
	}
	var info projectInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.Loaded || info.Generation != 1 || info.Stats == nil || info.Stats.Types != 3 {
		t.Errorf("project = %+v", info)
	}

	reloader.err = errors.New("types.yaml: bad yaml")
	if rec, _ = do(t, s, "POST", "/api/project/reload", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("failed reload = %d", rec.Code)
	}

	rec, _ = do(t, newServer(nil), "GET", "/api/project", "")
	if !strings.Contains(rec.Body.String(), `"loaded":false`) {
		t.Errorf("unloaded project = %s", rec.Body.String())
	}
}

func TestSubscribeProjectStatus(t *testing.T) {
	s := newServer(gameSnapshot())
	if err := s.Publisher().Publish(pubsub.TopicProjectStatus, pubsub.StateReady,
		pubsub.ProjectStatus{State: pubsub.StateReady, Generation: 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/project_status", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Type != pubsub.StateReady || !strings.Contains(string(event.Data), `"generation":3`) {
			t.Errorf("event = %+v", event)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", scanner.Err())
}

func TestSubscribeProjectStatus_ClientDisconnect(t *testing.T) {
	s := newServer(gameSnapshot())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/subscribe/project_status", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(rec, req)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler still streaming after the client disconnected")
	}
	if !strings.HasPrefix(rec.Body.String(), ": connected") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
