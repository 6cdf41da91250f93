package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mpatel/patminer/internal/pubsub"
	"github.com/mpatel/patminer/internal/skill"
	"github.com/mpatel/patminer/internal/store"
)

type stubSkill struct {
	id     string
	result skill.Result
	panics bool
}

func (s *stubSkill) Describe() skill.Descriptor {
	return skill.Descriptor{ID: s.id, Name: s.id, Description: "stub"}
}

func (s *stubSkill) Execute(ctx context.Context, input json.RawMessage) skill.Result {
	if s.panics {
		panic("stub exploded")
	}
	return s.result
}

func testServer(t *testing.T, skills ...skill.Skill) (*Server, *pubsub.Broker[skill.MiningRequest]) {
	t.Helper()

	registry := skill.NewRegistry()
	for _, s := range skills {
		registry.Register(s)
	}
	broker := pubsub.NewBroker[skill.MiningRequest]()
	mgr := store.NewManager(nil, nil)
	t.Cleanup(func() { mgr.Close() })

	return New(Config{
		Registry:     registry,
		Store:        mgr,
		Broker:       broker,
		AgentURL:     "http://localhost:8080",
		DefaultRepos: []string{"acme/web", "acme/api"},
	}), broker
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return w, decoded
}

func TestExecuteDispatch(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "analyze_patterns", result: skill.OK(map[string]any{"pattern_count": 0})})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/execute", `{"skill_id": "analyze_patterns", "input": {}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["success"] != true {
		t.Errorf("expected success envelope, got %v", body)
	}
}

func TestExecuteMissingSkillID(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "analyze_patterns", result: skill.OK(nil)})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/execute", `{"input": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing skill_id, got %d", w.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "skill_id") {
		t.Errorf("expected error naming skill_id, got %v", body)
	}
}

func TestExecuteUnknownSkill(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "analyze_patterns", result: skill.OK(nil)})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/execute", `{"skill_id": "nope"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown skill, got %d", w.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "nope") {
		t.Errorf("expected error naming the skill, got %v", body)
	}
}

func TestExecuteSkillFailureIs200(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "analyze_patterns", result: skill.Fail("missing required field: repositories")})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/execute", `{"skill_id": "analyze_patterns"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected skill-internal failure to still be 200, got %d", w.Code)
	}
	if body["success"] != false {
		t.Errorf("expected failure envelope, got %v", body)
	}
}

func TestExecuteRecoverFromPanic(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "boom", panics: true})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/execute", `{"skill_id": "boom"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with failure envelope after panic, got %d", w.Code)
	}
	if body["success"] != false {
		t.Errorf("expected failure envelope after panic, got %v", body)
	}
}

func TestExecuteInvalidBody(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	w, _ := doJSON(t, h, http.MethodPost, "/a2a/execute", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid body, got %d", w.Code)
	}
}

func TestCancelUnsupported(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodPost, "/a2a/cancel", `{"task_id": "t1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["success"] != false {
		t.Errorf("expected cancellation to report unsupported, got %v", body)
	}

	w, _ = doJSON(t, h, http.MethodPost, "/a2a/cancel", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing task_id, got %d", w.Code)
	}
}

func TestMineAsyncPublishes(t *testing.T) {
	srv, broker := testServer(t)
	h := srv.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requests := broker.Subscribe(ctx)

	w, body := doJSON(t, h, http.MethodPost, "/api/mine", `{"repositories": ["acme/web", "acme/api"], "pattern_type": "deployment"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if body["status"] != "mining_started" {
		t.Errorf("expected mining_started status, got %v", body)
	}
	analysisID, _ := body["analysis_id"].(string)
	if analysisID == "" {
		t.Fatal("expected a non-empty analysis id")
	}

	select {
	case req := <-requests:
		if req.AnalysisID != analysisID {
			t.Errorf("expected published request to carry analysis id %s, got %s", analysisID, req.AnalysisID)
		}
		if req.PatternType != "deployment" || len(req.Repos) != 2 {
			t.Errorf("unexpected published request: %+v", req)
		}
	default:
		t.Fatal("expected a mining request on the broker")
	}
}

func TestMineAsyncDefaultRepos(t *testing.T) {
	srv, broker := testServer(t)
	h := srv.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requests := broker.Subscribe(ctx)

	w, _ := doJSON(t, h, http.MethodPost, "/api/mine", `{}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with configured default repos, got %d", w.Code)
	}

	select {
	case req := <-requests:
		if len(req.Repos) != 2 {
			t.Errorf("expected configured repos, got %v", req.Repos)
		}
	default:
		t.Fatal("expected a mining request on the broker")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t,
		&stubSkill{id: "analyze_patterns", result: skill.OK(nil)},
		&stubSkill{id: "get_analysis_results", result: skill.OK(nil)},
	)
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body)
	}
	if body["skills_registered"] != float64(2) {
		t.Errorf("expected 2 skills registered, got %v", body["skills_registered"])
	}
	if body["store_mode"] != string(store.ModeFallback) {
		t.Errorf("expected fallback store mode, got %v", body["store_mode"])
	}
}

func TestAgentCardOrder(t *testing.T) {
	srv, _ := testServer(t,
		&stubSkill{id: "analyze_patterns"},
		&stubSkill{id: "compare_implementations"},
		&stubSkill{id: "get_pattern_recommendations"},
		&stubSkill{id: "get_analysis_results"},
	)
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodGet, "/.well-known/agent.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["version"] != Version {
		t.Errorf("expected version %s, got %v", Version, body["version"])
	}

	skills, _ := body["skills"].([]any)
	if len(skills) != 4 {
		t.Fatalf("expected 4 skill descriptors, got %d", len(skills))
	}
	wantOrder := []string{
		"analyze_patterns",
		"compare_implementations",
		"get_pattern_recommendations",
		"get_analysis_results",
	}
	for i, want := range wantOrder {
		desc, _ := skills[i].(map[string]any)
		if desc["id"] != want {
			t.Errorf("expected skill %d to be %s, got %v", i, want, desc["id"])
		}
	}
}

func TestRoot(t *testing.T) {
	srv, _ := testServer(t, &stubSkill{id: "analyze_patterns"})
	h := srv.Handler()

	w, body := doJSON(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["service"] != "patminer" {
		t.Errorf("expected service name, got %v", body)
	}
	endpoints, _ := body["endpoints"].(map[string]any)
	if endpoints["execute"] != "/a2a/execute" {
		t.Errorf("expected execute endpoint listed, got %v", endpoints)
	}
}
