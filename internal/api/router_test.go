package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stablemind-ai/stablemind/internal/domain"
	"github.com/stablemind-ai/stablemind/internal/llm"
	"github.com/stablemind-ai/stablemind/internal/prompt"
	"github.com/stablemind-ai/stablemind/internal/rules"
	"github.com/stablemind-ai/stablemind/internal/service"
	"github.com/stablemind-ai/stablemind/internal/store"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) (*App, *service.AgentService) {
	t.Helper()

	dir := t.TempDir()
	logger := zap.NewNop()
	r := rules.Default()

	observations := store.NewFileObservationLog(dir)
	agent := service.NewAgentService(
		store.NewFilePersonaStore(dir),
		observations,
		store.NewFileEpisodeLog(dir),
		service.NewExtractService(r.Taxonomy, logger),
		service.NewEmotionService(logger),
		service.NewTraitService(logger),
		service.NewRuminationService(observations, store.NewFileDriftSink(dir), logger),
		prompt.NewBuilder(),
		llm.NewMockClient(),
		r,
		logger,
	)
	return NewApp(agent, logger), agent
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTurnEndpoint(t *testing.T) {
	app, agent := newTestApp(t)
	if err := agent.ResetSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ResetSession: %v", err)
	}

	body := bytes.NewBufferString(`{"message":"I got accepted into my dream school!!"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/turn", body)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result domain.StepResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if result.Turn != 1 {
		t.Errorf("turn = %d, want 1", result.Turn)
	}
	if len(result.Events) != 1 || result.Events[0] != "major_achievement" {
		t.Errorf("events = %v", result.Events)
	}
	if result.Text == "" {
		t.Error("empty reply text")
	}
}

func TestTurnEndpoint_UnknownSession(t *testing.T) {
	app, _ := newTestApp(t)

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/ghost/turn", body)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTurnEndpoint_EmptyMessage(t *testing.T) {
	app, agent := newTestApp(t)
	if err := agent.ResetSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ResetSession: %v", err)
	}

	body := bytes.NewBufferString(`{"message":""}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/turn", body)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStateAndBeliefsEndpoints(t *testing.T) {
	app, agent := newTestApp(t)
	if err := agent.ResetSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ResetSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/state", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}
	var persona domain.Persona
	if err := json.Unmarshal(rec.Body.Bytes(), &persona); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if persona.Identity.DisplayName == "" {
		t.Error("state response missing identity")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/beliefs", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("beliefs status = %d", rec.Code)
	}
}

func TestResetEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/reset", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// The session is usable right after reset.
	body := bytes.NewBufferString(`{"message":"hello"}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/turn", body)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn after reset status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	// Drive a request through the counting middleware first.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	app.Router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var metrics map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("parse metrics: %v", err)
	}
	if _, ok := metrics["request_count"]; !ok {
		t.Errorf("metrics missing request_count: %v", metrics)
	}
}
