// Package wizard drives the Step 1 intake conversation: a fixed question
// list asked one at a time, each answer gated by an external validator,
// with dependent questions skipped when the answer they depend on does
// not match.
package wizard

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/axaysd/PMM-Agent/model"
)

// Validator judges a free-text answer against the question it answers.
// The question is identified by its prompt text and kind only.
type Validator interface {
	Check(ctx context.Context, sessionID, answer, prompt string, kind model.QuestionKind) (bool, error)
}

// Phase of one wizard run.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCollecting
	PhaseHandoff
)

// OutcomeKind classifies the result of a Submit call.
type OutcomeKind int

const (
	// OutcomeRejected means the answer was not accepted; the same
	// question must be asked again.
	OutcomeRejected OutcomeKind = iota
	// OutcomeNext means the answer was accepted and Question is the next
	// one to ask.
	OutcomeNext
	// OutcomeComplete means the fixed question list is exhausted and the
	// run has moved to Handoff.
	OutcomeComplete
)

type Outcome struct {
	Kind     OutcomeKind
	Question model.Question // valid for OutcomeRejected and OutcomeNext
}

// Response is one accepted answer, in acceptance order.
type Response struct {
	QuestionID string
	Answer     string
}

// Sequencer owns one run's question list, position and answer set. It is
// not safe for concurrent use; a run has exactly one writer.
type Sequencer struct {
	sessionID string
	questions []model.Question
	validator Validator

	phase    Phase
	position int
	answers  map[string]string
	accepted []Response
}

// NewSequencer builds a sequencer over questions. The slice is not copied;
// callers must not mutate it after this call.
func NewSequencer(sessionID string, questions []model.Question, v Validator) *Sequencer {
	return &Sequencer{
		sessionID: sessionID,
		questions: questions,
		validator: v,
		phase:     PhaseNotStarted,
		answers:   make(map[string]string),
	}
}

// Start begins the run and returns the first applicable question. It must
// be called exactly once, before any Submit.
func (s *Sequencer) Start() (model.Question, error) {
	if s.phase != PhaseNotStarted {
		return model.Question{}, model.ErrAlreadyStarted
	}
	s.phase = PhaseCollecting
	s.position = 0
	s.skipInapplicable()
	if s.position >= len(s.questions) {
		// A list whose every question depends on an unsatisfiable answer.
		s.phase = PhaseHandoff
		return model.Question{}, model.ErrNoQuestions
	}
	return s.questions[s.position], nil
}

// Submit validates and records an answer to the current question.
//
// Required questions reject a blank answer locally, without consulting
// the validator; optional questions accept a blank answer the same way.
// Any validator error counts as a rejection, so an indeterminate result
// can never advance the run.
func (s *Sequencer) Submit(ctx context.Context, answer string) (Outcome, error) {
	switch s.phase {
	case PhaseNotStarted:
		return Outcome{}, model.ErrNotStarted
	case PhaseHandoff:
		return Outcome{}, model.ErrSequenceClosed
	}

	q := s.questions[s.position]
	blank := strings.TrimSpace(answer) == ""

	switch {
	case blank && q.Required:
		return Outcome{Kind: OutcomeRejected, Question: q}, nil
	case blank:
		// Optional question, nothing to validate.
	default:
		ok, err := s.validator.Check(ctx, s.sessionID, answer, q.Prompt, q.Kind)
		if err != nil {
			log.Warn().Err(err).
				Str("session_id", s.sessionID).
				Str("question_id", q.ID).
				Msg("validator unavailable, rejecting answer")
			return Outcome{Kind: OutcomeRejected, Question: q}, nil
		}
		if !ok {
			return Outcome{Kind: OutcomeRejected, Question: q}, nil
		}
	}

	s.answers[q.ID] = answer
	s.accepted = append(s.accepted, Response{QuestionID: q.ID, Answer: answer})
	s.position++
	s.skipInapplicable()

	if s.position >= len(s.questions) {
		s.phase = PhaseHandoff
		return Outcome{Kind: OutcomeComplete}, nil
	}
	return Outcome{Kind: OutcomeNext, Question: s.questions[s.position]}, nil
}

// skipInapplicable advances position past every question whose dependency
// is unsatisfied. Bounded by the list length, so a malformed dependency
// chain cannot loop. Skipped questions never reach the validator and
// never enter the answer set.
func (s *Sequencer) skipInapplicable() {
	for s.position < len(s.questions) {
		dep := s.questions[s.position].Depends
		if dep == nil || s.answers[dep.DependsOnID] == dep.RequiredValue {
			return
		}
		log.Debug().
			Str("session_id", s.sessionID).
			Str("question_id", s.questions[s.position].ID).
			Msg("skipping inapplicable question")
		s.position++
	}
}

// Phase reports the run's current phase.
func (s *Sequencer) Phase() Phase { return s.phase }

// Current returns the question awaiting an answer. ok is false before
// Start and after Handoff.
func (s *Sequencer) Current() (q model.Question, ok bool) {
	if s.phase != PhaseCollecting || s.position >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[s.position], true
}

// AnswerSet returns a copy of the accepted answers keyed by question id.
func (s *Sequencer) AnswerSet() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Responses returns the accepted answers in acceptance order.
func (s *Sequencer) Responses() []Response {
	out := make([]Response, len(s.accepted))
	copy(out, s.accepted)
	return out
}
