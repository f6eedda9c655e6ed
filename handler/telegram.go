package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"

	"github.com/axaysd/PMM-Agent/llm"
	"github.com/axaysd/PMM-Agent/model"
	"github.com/axaysd/PMM-Agent/repo"
	"github.com/axaysd/PMM-Agent/wizard"
)

// TelegramHandler drives the same wizard core over a Telegram chat.
// Each Telegram user maps to one session.
type TelegramHandler struct {
	store      *wizard.Store
	sink       Sink
	planner    wizard.PlanGenerator
	chat       ChatChannel
	researcher Researcher
	files      *repo.FileService
}

func NewTelegramHandler(store *wizard.Store, sink Sink, planner wizard.PlanGenerator, chat ChatChannel, researcher Researcher, files *repo.FileService) *TelegramHandler {
	return &TelegramHandler{
		store:      store,
		sink:       sink,
		planner:    planner,
		chat:       chat,
		researcher: researcher,
		files:      files,
	}
}

func sessionIDForUser(userID int64) string {
	return fmt.Sprintf("tg-%d", userID)
}

// Handler is the bot's default update handler.
func (t *TelegramHandler) Handler(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sessionID := sessionIDForUser(update.Message.From.ID)

	log.Info().
		Str("session_id", sessionID).
		Str("username", update.Message.From.Username).
		Msg("telegram update")

	var text string
	switch {
	case update.Message.Document != nil:
		text = t.handleDocument(ctx, sessionID, update.Message.Document)
	case update.Message.Text == "/start":
		text = t.handleStart(sessionID, update.Message.From.FirstName)
	case update.Message.Text == "/help":
		text = helpText
	case update.Message.Text == "/todo":
		text = llm.ResearchTodoList
	case update.Message.Text == "/research":
		text = t.handleResearch(ctx, sessionID)
	default:
		text = t.handleMessage(ctx, sessionID, update.Message.Text)
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error sending message")
	}
}

const helpText = `I'm your PMM Assistant. I guide you through an 11-step positioning and messaging workflow.

Commands:
/start – Begin (or restart) the Step 1 intake questions.
/todo – See the Step 2 customer research checklist.
/research – Run automated competitor research on your answers.
/help – Show this message.

You can also upload a persona document at any time and I'll keep it on file.`

func (t *TelegramHandler) handleStart(sessionID, firstName string) string {
	run := t.store.Create(sessionID)
	run.Lock()
	defer run.Unlock()

	question, err := run.Seq.Start()
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error starting wizard")
		return "Something went wrong starting your session. Please try /start again."
	}

	name := firstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hey %s! I'm your PMM Assistant. Let's start with a few questions about your business.\n\n%s",
		name, renderQuestion(question))
}

func (t *TelegramHandler) handleMessage(ctx context.Context, sessionID, message string) string {
	run, ok := t.store.Get(sessionID)
	if !ok {
		return "Use /start to begin the positioning and messaging workflow."
	}
	run.Lock()
	defer run.Unlock()

	if run.Seq.Phase() != wizard.PhaseCollecting {
		step := run.CurrentStep
		answers := run.Seq.AnswerSet()
		reply, err := t.chat.ProcessMessage(ctx, sessionID, message, step, answers)
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("chat error")
			return "I'm here to help with your positioning and messaging journey. How can I assist you?"
		}
		return reply
	}

	outcome, err := run.Seq.Submit(ctx, message)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("submit error")
		return "Something went wrong. Please try again, or /start to restart."
	}

	switch outcome.Kind {
	case wizard.OutcomeRejected:
		return "I need a bit more detail to work with.\n\n" + renderQuestion(outcome.Question)
	case wizard.OutcomeNext:
		return renderQuestion(outcome.Question)
	default:
		plan, err := wizard.Finalize(ctx, run.Seq, t.sink, t.planner)
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("finalization degraded to fallback plan")
			plan = llm.FallbackPlan(run.Seq.AnswerSet())
		} else if err := t.sink.SavePlan(ctx, sessionID, plan); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("error saving plan")
		}
		run.FinishStep1(plan)
		return plan
	}
}

func (t *TelegramHandler) handleResearch(ctx context.Context, sessionID string) string {
	run, ok := t.store.Get(sessionID)
	if !ok {
		return "Use /start and complete the Step 1 questions first."
	}
	run.Lock()
	answers := run.Seq.AnswerSet()
	run.Unlock()

	report, err := t.researcher.CompetitorResearch(ctx, sessionID, answers)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("research error")
		return "I couldn't run the competitor research right now. Please try again later."
	}
	return report
}

func (t *TelegramHandler) handleDocument(ctx context.Context, sessionID string, doc *tgmodels.Document) string {
	url, err := t.files.ConvertFileIDToURL(ctx, doc.FileID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error resolving document URL")
		url = ""
	}
	if err := t.sink.SaveDocumentRef(ctx, sessionID, doc.FileName, url); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error saving document reference")
		return "I couldn't store your document. Please try uploading it again."
	}
	return fmt.Sprintf("Got it — I've kept %s on file for the persona research.", doc.FileName)
}

func renderQuestion(q model.Question) string {
	if q.Kind != model.KindSelect {
		return q.Prompt
	}
	var b strings.Builder
	b.WriteString(q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
	}
	b.WriteString("\n\nReply with one of the options above.")
	return b.String()
}
