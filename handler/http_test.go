package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axaysd/PMM-Agent/model"
	"github.com/axaysd/PMM-Agent/wizard"
)

type fakeValidator struct {
	calls int
	allow bool
	err   error
}

func (f *fakeValidator) Check(_ context.Context, _, _, _ string, _ model.QuestionKind) (bool, error) {
	f.calls++
	return f.allow, f.err
}

type fakeSink struct {
	responses []string // question ids in record order
	plans     map[string]string
	documents map[string]string
	err       error
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		plans:     make(map[string]string),
		documents: make(map[string]string),
	}
}

func (f *fakeSink) RecordResponse(_ context.Context, _ string, _ int, questionID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.responses = append(f.responses, questionID)
	return nil
}

func (f *fakeSink) SavePlan(_ context.Context, sessionID, plan string) error {
	f.plans[sessionID] = plan
	return nil
}

func (f *fakeSink) SaveDocumentRef(_ context.Context, sessionID, filename, _ string) error {
	f.documents[sessionID] = filename
	return nil
}

type fakePlanner struct {
	plan string
	err  error
}

func (f *fakePlanner) GeneratePlan(_ context.Context, _ string, _ map[string]string) (string, error) {
	return f.plan, f.err
}

type fakeChat struct{ reply string }

func (f *fakeChat) ProcessMessage(_ context.Context, _, _ string, _ int, _ map[string]string) (string, error) {
	return f.reply, nil
}

type fakeResearcher struct{ report string }

func (f *fakeResearcher) CompetitorResearch(_ context.Context, _ string, answers map[string]string) (string, error) {
	if len(answers) == 0 {
		return "", errors.New("no responses collected")
	}
	return f.report, nil
}

type fixture struct {
	mux        *http.ServeMux
	validator  *fakeValidator
	sink       *fakeSink
	planner    *fakePlanner
	researcher *fakeResearcher
}

func newFixture() *fixture {
	v := &fakeValidator{allow: true}
	sink := newFakeSink()
	planner := &fakePlanner{plan: "your personalized plan"}
	researcher := &fakeResearcher{report: "research report"}
	store := wizard.NewStore(v)
	api := NewAPI(store, sink, v, planner, &fakeChat{reply: "chat reply"}, researcher)
	return &fixture{
		mux:        api.Routes(),
		validator:  v,
		sink:       sink,
		planner:    planner,
		researcher: researcher,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestStartWorkflowMintsSessionID(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "started", out["status"])
	assert.NotEmpty(t, out["session_id"])
	question := out["question"].(map[string]any)
	assert.Equal(t, "company_name", question["id"])
}

func TestSubmitResponseFullFlow(t *testing.T) {
	f := newFixture()
	rec, _ := f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)

	answers := []string{"Acme", "We sell widgets", "SMBs", "First time", "Whole company"}
	for i, answer := range answers {
		rec, out := f.do(t, http.MethodPost, "/api/submit-response", map[string]string{
			"session_id": "s1",
			"response":   answer,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		if i < len(answers)-1 {
			assert.Equal(t, "continue_step", out["status"])
		} else {
			assert.Equal(t, "step_complete", out["status"])
			assert.Equal(t, "your personalized plan", out["plan"])
		}
	}

	// Answers were recorded in acceptance order and the plan was saved.
	assert.Equal(t, []string{
		"company_name", "company_description", "customer_description",
		"positioning_experience", "company_scope",
	}, f.sink.responses)
	assert.Equal(t, "your personalized plan", f.sink.plans["s1"])

	// The run advanced to Step 2.
	rec, out := f.do(t, http.MethodGet, "/api/workflow-state/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), out["current_step"])
	assert.Equal(t, []any{float64(1)}, out["completed_steps"])
	responses := out["responses"].(map[string]any)
	assert.Equal(t, "Acme", responses["company_name"])
	assert.NotContains(t, responses, "product_name")
}

func TestSubmitResponseRejection(t *testing.T) {
	f := newFixture()
	f.validator.allow = false
	f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{"session_id": "s1"})

	rec, out := f.do(t, http.MethodPost, "/api/submit-response", map[string]string{
		"session_id": "s1",
		"response":   "meh",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid_response", out["status"])
	assert.Contains(t, out["message"], "What is your company name?")
}

func TestSubmitResponseAfterComplete(t *testing.T) {
	f := newFixture()
	f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{"session_id": "s1"})
	for _, answer := range []string{"Acme", "We sell widgets", "SMBs", "First time", "Whole company"} {
		f.do(t, http.MethodPost, "/api/submit-response", map[string]string{"session_id": "s1", "response": answer})
	}

	rec, _ := f.do(t, http.MethodPost, "/api/submit-response", map[string]string{
		"session_id": "s1",
		"response":   "extra",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitResponseRecreatesLostSession(t *testing.T) {
	f := newFixture()
	// No start-workflow call: the session is recreated and started.
	rec, out := f.do(t, http.MethodPost, "/api/submit-response", map[string]string{
		"session_id": "ghost",
		"response":   "Acme",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "continue_step", out["status"])
}

func TestSubmitResponseFinalizationFallback(t *testing.T) {
	f := newFixture()
	f.planner.err = errors.New("model down")
	f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{"session_id": "s1"})

	var out map[string]any
	for _, answer := range []string{"Acme", "We sell widgets", "SMBs", "First time", "Whole company"} {
		_, out = f.do(t, http.MethodPost, "/api/submit-response", map[string]string{"session_id": "s1", "response": answer})
	}

	// Step 1 still completes with the deterministic fallback plan.
	assert.Equal(t, "step_complete", out["status"])
	assert.Contains(t, out["plan"], "Acme")
	assert.Contains(t, out["plan"], "Step 1: Context Gathering & Planning")

	rec, state := f.do(t, http.MethodGet, "/api/workflow-state/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), state["current_step"])
}

func TestValidateResponseFailClosed(t *testing.T) {
	f := newFixture()
	f.validator.err = errors.New("validator unreachable")

	rec, out := f.do(t, http.MethodPost, "/api/validate-response", map[string]string{
		"session_id":    "s1",
		"message":       "Acme",
		"question":      "What is your company name?",
		"question_type": "text",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["is_valid"])
}

func TestGeneratePlanFallback(t *testing.T) {
	f := newFixture()
	f.planner.err = errors.New("model down")

	rec, out := f.do(t, http.MethodPost, "/api/generate-plan", map[string]any{
		"session_id": "s1",
		"responses":  map[string]string{"company_name": "Acme"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["fallback"])
	assert.Contains(t, out["plan"], "Acme")
}

func TestWorkflowStateNotFound(t *testing.T) {
	f := newFixture()
	rec, _ := f.do(t, http.MethodGet, "/api/workflow-state/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkflowSteps(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodGet, "/api/workflow-steps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	steps := out["steps"].([]any)
	require.Len(t, steps, 11)
	assert.Equal(t, "Context Gathering & Planning", steps[0])
}

func TestStepQuestions(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodGet, "/api/step-questions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	questions := out["questions"].([]any)
	assert.Len(t, questions, 6)

	rec, out = f.do(t, http.MethodGet, "/api/step-questions/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out["questions"])
	assert.Equal(t, "Step 3 questions not yet implemented", out["message"])
}

func TestUploadPersonaDocument(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodPost, "/api/upload-persona-document", map[string]string{
		"session_id": "s1",
		"filename":   "personas.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Document uploaded successfully", out["message"])
	assert.Equal(t, "personas.pdf", f.sink.documents["s1"])
}

func TestCustomerResearchTodo(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodPost, "/api/get-customer-research-todo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out["todo_list"], "Customer Research Action Plan")
}

func TestConductCompetitorResearch(t *testing.T) {
	f := newFixture()
	rec, _ := f.do(t, http.MethodPost, "/api/conduct-competitor-research", map[string]string{"session_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.do(t, http.MethodPost, "/api/start-workflow", map[string]string{"session_id": "s1"})
	for _, answer := range []string{"Acme", "We sell widgets", "SMBs"} {
		f.do(t, http.MethodPost, "/api/submit-response", map[string]string{"session_id": "s1", "response": answer})
	}

	rec, out := f.do(t, http.MethodPost, "/api/conduct-competitor-research", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "research report", out["research_results"])
}

func TestChatRecreatesSession(t *testing.T) {
	f := newFixture()
	rec, out := f.do(t, http.MethodPost, "/api/chat", map[string]string{
		"session_id": "fresh",
		"message":    "hello",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chat reply", out["response"])
}

func TestChatMissingFields(t *testing.T) {
	f := newFixture()
	for _, body := range []map[string]string{
		{"session_id": "s1"},
		{"message": "hi"},
	} {
		rec, _ := f.do(t, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("body %v", body))
	}
}
