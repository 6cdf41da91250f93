// Package server exposes the A2A execution boundary over HTTP: skill
// dispatch, cancellation, health, and the agent discovery document.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mpatel/patminer/internal/pubsub"
	"github.com/mpatel/patminer/internal/skill"
	"github.com/mpatel/patminer/internal/store"
)

// Version is the service version reported on the boundary endpoints.
const Version = "2.0.0"

// Server handles the A2A HTTP surface. Skill execution is synchronous;
// mining can additionally be triggered fire-and-forget through the broker,
// where a single runner consumes requests sequentially.
type Server struct {
	registry     *skill.Registry
	store        *store.Manager
	broker       *pubsub.Broker[skill.MiningRequest]
	agentURL     string
	defaultRepos []string
	logger       *slog.Logger
}

// Config holds the Server's collaborators.
type Config struct {
	Registry     *skill.Registry
	Store        *store.Manager
	Broker       *pubsub.Broker[skill.MiningRequest]
	AgentURL     string
	DefaultRepos []string
	Logger       *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry:     cfg.Registry,
		store:        cfg.Store,
		broker:       cfg.Broker,
		agentURL:     cfg.AgentURL,
		defaultRepos: cfg.DefaultRepos,
		logger:       logger,
	}
}

// Handler returns the HTTP handler for all boundary routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /a2a/execute", s.handleExecute)
	mux.HandleFunc("POST /a2a/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/mine", s.handleMineAsync)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return mux
}

type executeRequest struct {
	SkillID string          `json:"skill_id"`
	Input   json.RawMessage `json:"input"`
}

// handleExecute dispatches a skill by id. A missing skill_id is a validation
// error (400); an unknown id is a not-found error (404). A resolved skill
// always produces a well-formed envelope, so its result is returned with 200
// regardless of envelope success.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if req.SkillID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required field: skill_id"})
		return
	}

	sk, ok := s.registry.Resolve(req.SkillID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": fmt.Sprintf("skill not found: %s", req.SkillID)})
		return
	}

	result := s.execute(r, req, sk)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) execute(r *http.Request, req executeRequest, sk skill.Skill) (result skill.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("skill panicked", "skill_id", req.SkillID, "panic", rec)
			result = skill.Fail("execution failed: internal error")
		}
	}()
	return sk.Execute(r.Context(), req.Input)
}

type cancelRequest struct {
	TaskID string `json:"task_id"`
}

// handleCancel accepts cancellation requests but reports them as
// unsupported: there is no cancellation primitive for an in-flight mining
// run once started.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if req.TaskID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required field: task_id"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": false,
		"message": "task cancellation not supported",
	})
}

type mineRequest struct {
	Repositories      []string `json:"repositories"`
	PatternType       string   `json:"pattern_type"`
	CreateGithubIssue bool     `json:"create_github_issue"`
}

// handleMineAsync schedules a mining run as a detached task and returns
// immediately; results become available under the returned analysis id.
func (s *Server) handleMineAsync(w http.ResponseWriter, r *http.Request) {
	var req mineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	repos := req.Repositories
	if len(repos) == 0 {
		repos = s.defaultRepos
	}
	if len(repos) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no repositories requested or configured"})
		return
	}

	analysisID := uuid.NewString()
	s.broker.Publish(skill.MiningRequest{
		Repos:        repos,
		PatternType:  req.PatternType,
		CreateIssues: req.CreateGithubIssue,
		AnalysisID:   analysisID,
	})
	s.logger.Info("mining scheduled", "analysis_id", analysisID, "repos", len(repos))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "mining_started",
		"analysis_id": analysisID,
		"repositories_scheduled": repos,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":            "healthy",
		"service":           "patminer",
		"version":           Version,
		"skills_registered": len(s.registry.IDs()),
		"skills":            s.registry.IDs(),
		"store_mode":        string(s.store.Mode()),
	}
	if stats, err := s.store.Stats(r.Context()); err == nil {
		resp["stats"] = stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAgentCard publishes the agent discovery document, with skill
// descriptors in registration order.
func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "patminer",
		"description": "Cross-repository pattern discovery and code reuse analysis",
		"version":     Version,
		"url":         s.agentURL,
		"capabilities": map[string]any{
			"streaming":  false,
			"multimodal": false,
		},
		"skills": s.registry.Descriptors(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "patminer",
		"version": Version,
		"endpoints": map[string]string{
			"execute":    "/a2a/execute",
			"cancel":     "/a2a/cancel",
			"mine":       "/api/mine",
			"agent_card": "/.well-known/agent.json",
			"health":     "/health",
		},
		"skills_registered": len(s.registry.IDs()),
		"skills":            s.registry.IDs(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
