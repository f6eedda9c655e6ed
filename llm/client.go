// Package llm implements the wizard's external collaborators — answer
// validation, plan generation, free-form chat and competitor research —
// on the OpenAI API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/axaysd/PMM-Agent/model"
)

// Client wraps one OpenAI chat model.
type Client struct {
	client openai.Client
	model  string
}

func NewClient(apiKey, modelName string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}
}

func (c *Client) complete(ctx context.Context, messages ...openai.ChatCompletionMessageParamUnion) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return completion.Choices[0].Message.Content, nil
}

// Check implements wizard.Validator. The model must answer VALID or
// INVALID; anything else, including a transport error, is treated as
// invalid so an unvalidated answer can never be accepted.
func (c *Client) Check(ctx context.Context, sessionID, answer, prompt string, kind model.QuestionKind) (bool, error) {
	text, err := c.complete(ctx, openai.UserMessage(validationPrompt(answer, prompt, kind)))
	if err != nil {
		return false, err
	}

	verdict := strings.ToUpper(strings.TrimSpace(text))
	log.Debug().
		Str("session_id", sessionID).
		Str("verdict", verdict).
		Msg("validator verdict")

	switch {
	case strings.Contains(verdict, "INVALID"):
		return false, nil
	case strings.Contains(verdict, "VALID"):
		return true, nil
	default:
		log.Warn().
			Str("session_id", sessionID).
			Str("verdict", verdict).
			Msg("validator returned unclear verdict, treating as invalid")
		return false, nil
	}
}

// GeneratePlan implements wizard.PlanGenerator.
func (c *Client) GeneratePlan(ctx context.Context, sessionID string, answers map[string]string) (string, error) {
	plan, err := c.complete(ctx, openai.UserMessage(planPrompt(answers)))
	if err != nil {
		return "", err
	}
	return plan, nil
}

// ProcessMessage is the free-form chat channel entered after the fixed
// question phase. The system prompt is chosen by workflow step and
// carries the collected answers as context.
func (c *Client) ProcessMessage(ctx context.Context, sessionID, message string, step int, answers map[string]string) (string, error) {
	reply, err := c.complete(ctx,
		openai.SystemMessage(stepContext(step, answers)),
		openai.UserMessage(message),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "I'm here to help with your positioning and messaging journey. How can I assist you?", nil
	}
	return reply, nil
}

// CompetitorResearch runs the Step 2 automated research over the Step 1
// answers, identifying ICP, buyers, influencers and users.
func (c *Client) CompetitorResearch(ctx context.Context, sessionID string, answers map[string]string) (string, error) {
	if len(answers) == 0 {
		return "", fmt.Errorf("no responses collected for session %s; complete Step 1 first", sessionID)
	}
	report, err := c.complete(ctx, openai.UserMessage(researchPrompt(answers)))
	if err != nil {
		return "", err
	}
	return report, nil
}
