package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/axaysd/PMM-Agent/handler"
	"github.com/axaysd/PMM-Agent/llm"
	"github.com/axaysd/PMM-Agent/repo"
	"github.com/axaysd/PMM-Agent/wizard"
)

func main() {
	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY environment variable is required")
	}
	modelName := envOr("OPENAI_MODEL", "gpt-5-mini")

	firebaseConnector, err := repo.InitializeFirebase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing Firebase")
	}

	llmClient := llm.NewClient(apiKey, modelName)
	store := wizard.NewStore(llmClient)
	api := handler.NewAPI(store, firebaseConnector, llmClient, llmClient, llmClient, llmClient)

	addr := envOr("HOST", "0.0.0.0") + ":" + envOr("PORT", "8000")
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Routes(),
	}

	go func() {
		log.Info().Str("addr", addr).Msg("PMM Assistant listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// The Telegram front-end is optional; without a token only the HTTP
	// API runs.
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg := handler.NewTelegramHandler(
			store, firebaseConnector, llmClient, llmClient, llmClient,
			repo.NewFileService(token),
		)
		b, err := bot.New(token, bot.WithDefaultHandler(tg.Handler))
		if err != nil {
			log.Fatal().Err(err).Msg("error creating bot")
		}
		go b.Start(ctx)
		log.Info().Msg("Telegram bot started")
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down HTTP server")
	}
	log.Info().Msg("PMM Assistant stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
