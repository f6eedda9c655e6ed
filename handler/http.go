// Package handler exposes the intake wizard over its two chat
// front-ends: the JSON HTTP API used by the web UI and a Telegram bot.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/axaysd/PMM-Agent/llm"
	"github.com/axaysd/PMM-Agent/model"
	"github.com/axaysd/PMM-Agent/wizard"
)

// Sink is the durable store for answers, plans and document references.
// *repo.FirebaseConnector implements it.
type Sink interface {
	wizard.ResponseSink
	SavePlan(ctx context.Context, sessionID, plan string) error
	SaveDocumentRef(ctx context.Context, sessionID, filename, url string) error
}

// ChatChannel is the free-form dialogue backend entered after Step 1.
type ChatChannel interface {
	ProcessMessage(ctx context.Context, sessionID, message string, step int, answers map[string]string) (string, error)
}

// Researcher runs the Step 2 automated competitor research.
type Researcher interface {
	CompetitorResearch(ctx context.Context, sessionID string, answers map[string]string) (string, error)
}

// API serves the wizard over HTTP.
type API struct {
	store      *wizard.Store
	sink       Sink
	validator  wizard.Validator
	planner    wizard.PlanGenerator
	chat       ChatChannel
	researcher Researcher
}

func NewAPI(store *wizard.Store, sink Sink, validator wizard.Validator, planner wizard.PlanGenerator, chat ChatChannel, researcher Researcher) *API {
	return &API{
		store:      store,
		sink:       sink,
		validator:  validator,
		planner:    planner,
		chat:       chat,
		researcher: researcher,
	}
}

// Routes returns the API's request mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/start-workflow", a.startWorkflow)
	mux.HandleFunc("POST /api/submit-response", a.submitResponse)
	mux.HandleFunc("POST /api/validate-response", a.validateResponse)
	mux.HandleFunc("POST /api/generate-plan", a.generatePlan)
	mux.HandleFunc("POST /api/chat", a.chatMessage)
	mux.HandleFunc("GET /api/workflow-state/{session_id}", a.workflowState)
	mux.HandleFunc("GET /api/workflow-steps", a.workflowSteps)
	mux.HandleFunc("GET /api/step-questions/{step}", a.stepQuestions)
	mux.HandleFunc("POST /api/upload-persona-document", a.uploadPersonaDocument)
	mux.HandleFunc("POST /api/get-customer-research-todo", a.customerResearchTodo)
	mux.HandleFunc("POST /api/conduct-competitor-research", a.conductCompetitorResearch)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (a *API) startWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	run := a.store.Create(req.SessionID)
	run.Lock()
	defer run.Unlock()

	question, err := run.Seq.Start()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("session_id", req.SessionID).Msg("workflow started")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "started",
		"current_step": 1,
		"session_id":   req.SessionID,
		"question":     question,
	})
}

func (a *API) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Response  string `json:"response"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	run := a.resumeRun(req.SessionID)
	run.Lock()
	defer run.Unlock()

	outcome, err := run.Seq.Submit(r.Context(), req.Response)
	switch {
	case errors.Is(err, model.ErrNotStarted):
		if _, err := run.Seq.Start(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		outcome, err = run.Seq.Submit(r.Context(), req.Response)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	case errors.Is(err, model.ErrSequenceClosed):
		writeError(w, http.StatusConflict, "step 1 is already complete for this session")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch outcome.Kind {
	case wizard.OutcomeRejected:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "invalid_response",
			"message":  "I need a bit more detail to work with. " + outcome.Question.Prompt,
			"question": outcome.Question,
		})
	case wizard.OutcomeNext:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "continue_step",
			"next_question": outcome.Question,
		})
	case wizard.OutcomeComplete:
		plan := a.finalize(r.Context(), run)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "step_complete",
			"next_step": 2,
			"message":   "Step 1 completed! Moving to Step 2: Customer Understanding & Persona Development",
			"plan":      plan,
		})
	}
}

// finalize records the run's answers and fetches the plan, falling back
// to the deterministic plan when a collaborator fails. Step 1 completes
// either way; the answers stay on the run for inspection and retry.
func (a *API) finalize(ctx context.Context, run *wizard.Run) string {
	plan, err := wizard.Finalize(ctx, run.Seq, a.sink, a.planner)
	if err != nil {
		log.Error().Err(err).Str("session_id", run.SessionID).Msg("finalization degraded to fallback plan")
		plan = llm.FallbackPlan(run.Seq.AnswerSet())
	} else if err := a.sink.SavePlan(ctx, run.SessionID, plan); err != nil {
		log.Error().Err(err).Str("session_id", run.SessionID).Msg("error saving plan")
	}
	run.FinishStep1(plan)
	return plan
}

// resumeRun fetches the session's run, recreating a lost one so a client
// that kept its session id across a restart can continue.
func (a *API) resumeRun(sessionID string) *wizard.Run {
	run, created := a.store.GetOrCreate(sessionID)
	if created {
		log.Warn().Str("session_id", sessionID).Msg("session not found, recreating")
	}
	return run
}

func (a *API) validateResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID    string `json:"session_id"`
		Message      string `json:"message"`
		Question     string `json:"question"`
		QuestionType string `json:"question_type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.Message == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	valid, err := a.validator.Check(r.Context(), req.SessionID, req.Message, req.Question, model.QuestionKind(req.QuestionType))
	if err != nil {
		log.Warn().Err(err).Str("session_id", req.SessionID).Msg("validator unavailable, reporting invalid")
		valid = false
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_valid": valid})
}

func (a *API) generatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string            `json:"session_id"`
		Responses map[string]string `json:"responses"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	answers := req.Responses
	if len(answers) == 0 {
		if run, ok := a.store.Get(req.SessionID); ok {
			run.Lock()
			answers = run.Seq.AnswerSet()
			run.Unlock()
		}
	}

	plan, err := a.planner.GeneratePlan(r.Context(), req.SessionID, answers)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("plan generation degraded to fallback")
		writeJSON(w, http.StatusOK, map[string]any{"plan": llm.FallbackPlan(answers), "fallback": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

func (a *API) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	run := a.resumeRun(req.SessionID)
	run.Lock()
	step := run.CurrentStep
	answers := run.Seq.AnswerSet()
	run.Unlock()

	reply, err := a.chat.ProcessMessage(r.Context(), req.SessionID, req.Message, step, answers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("workflow error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (a *API) workflowState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	run, ok := a.store.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	run.Lock()
	defer run.Unlock()
	completed := run.CompletedSteps
	if completed == nil {
		completed = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_step":    run.CurrentStep,
		"completed_steps": completed,
		"responses":       run.Seq.AnswerSet(),
		"is_complete":     run.Complete,
	})
}

func (a *API) workflowSteps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"steps": model.WorkflowSteps})
}

func (a *API) stepQuestions(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid step number")
		return
	}
	if step == 1 {
		writeJSON(w, http.StatusOK, map[string]any{"questions": model.Step1Questions()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": []model.Question{},
		"message":   fmt.Sprintf("Step %d questions not yet implemented", step),
	})
}

func (a *API) uploadPersonaDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Filename  string `json:"filename"`
		URL       string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "session ID and filename are required")
		return
	}

	if err := a.sink.SaveDocumentRef(r.Context(), req.SessionID, req.Filename, req.URL); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info().Str("session_id", req.SessionID).Str("filename", req.Filename).Msg("persona document uploaded")
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Document uploaded successfully",
		"filename": req.Filename,
	})
}

func (a *API) customerResearchTodo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"todo_list": llm.ResearchTodoList})
}

func (a *API) conductCompetitorResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	run, ok := a.store.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	run.Lock()
	answers := run.Seq.AnswerSet()
	run.Unlock()

	results, err := a.researcher.CompetitorResearch(r.Context(), req.SessionID, answers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"research_results": results})
}
