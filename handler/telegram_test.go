package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axaysd/PMM-Agent/model"
	"github.com/axaysd/PMM-Agent/wizard"
)

func newTelegramFixture() (*TelegramHandler, *fakeSink, *fakeValidator) {
	v := &fakeValidator{allow: true}
	sink := newFakeSink()
	store := wizard.NewStore(v)
	h := NewTelegramHandler(store, sink, &fakePlanner{plan: "your personalized plan"},
		&fakeChat{reply: "chat reply"}, &fakeResearcher{report: "research report"}, nil)
	return h, sink, v
}

func TestTelegramWizardFlow(t *testing.T) {
	h, sink, _ := newTelegramFixture()
	ctx := context.Background()

	text := h.handleStart("tg-1", "Ada")
	assert.Contains(t, text, "Hey Ada!")
	assert.Contains(t, text, "What is your company name?")

	answers := []string{"Acme", "We sell widgets", "SMBs", "First time"}
	for _, answer := range answers {
		text = h.handleMessage(ctx, "tg-1", answer)
	}
	// Select questions list their options.
	assert.Contains(t, text, "whole company or a specific segment/product?")
	assert.Contains(t, text, "1. Whole company")
	assert.Contains(t, text, "2. Specific segment/product")

	text = h.handleMessage(ctx, "tg-1", "Whole company")
	assert.Equal(t, "your personalized plan", text)
	assert.Equal(t, "your personalized plan", sink.plans["tg-1"])
	require.Len(t, sink.responses, 5)

	// Handoff: further messages go to the chat channel.
	text = h.handleMessage(ctx, "tg-1", "what now?")
	assert.Equal(t, "chat reply", text)
}

func TestTelegramRejectionNudges(t *testing.T) {
	h, _, v := newTelegramFixture()
	v.allow = false

	h.handleStart("tg-1", "Ada")
	text := h.handleMessage(context.Background(), "tg-1", "meh")
	assert.Contains(t, text, "I need a bit more detail")
	assert.Contains(t, text, "What is your company name?")
}

func TestTelegramMessageWithoutSession(t *testing.T) {
	h, _, _ := newTelegramFixture()
	text := h.handleMessage(context.Background(), "tg-404", "hello")
	assert.Contains(t, text, "/start")
}

func TestRenderQuestion(t *testing.T) {
	q := model.Question{Prompt: "Pick one", Kind: model.KindSelect, Options: []string{"A", "B"}}
	text := renderQuestion(q)
	assert.Contains(t, text, "Pick one")
	assert.Contains(t, text, "1. A")
	assert.Contains(t, text, "2. B")

	plain := model.Question{Prompt: "Say something", Kind: model.KindText}
	assert.Equal(t, "Say something", renderQuestion(plain))
}

func TestSessionIDForUser(t *testing.T) {
	assert.Equal(t, "tg-42", sessionIDForUser(42))
}
