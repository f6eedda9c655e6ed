package wizard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ResponseSink durably records one accepted answer.
type ResponseSink interface {
	RecordResponse(ctx context.Context, sessionID string, step int, questionID, answer string) error
}

// PlanGenerator produces the personalized plan from the Step 1 answers.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, sessionID string, answers map[string]string) (string, error)
}

// Finalize persists a completed run's answers in acceptance order and
// requests the personalized plan. The returned error reports sink or
// generator failure; the answer set is never discarded on failure, so the
// caller can show a fallback plan and still treat Step 1 as complete.
func Finalize(ctx context.Context, seq *Sequencer, sink ResponseSink, gen PlanGenerator) (string, error) {
	if seq.Phase() != PhaseHandoff {
		return "", fmt.Errorf("finalize called before handoff")
	}

	for _, resp := range seq.Responses() {
		if err := sink.RecordResponse(ctx, seq.sessionID, 1, resp.QuestionID, resp.Answer); err != nil {
			log.Error().Err(err).
				Str("session_id", seq.sessionID).
				Str("question_id", resp.QuestionID).
				Msg("response sink failed during finalization")
			return "", fmt.Errorf("recording %s: %w", resp.QuestionID, err)
		}
	}

	plan, err := gen.GeneratePlan(ctx, seq.sessionID, seq.AnswerSet())
	if err != nil {
		return "", fmt.Errorf("generating plan: %w", err)
	}
	return plan, nil
}
