// Command server runs the MindMate backend: an emotionally aware chat
// assistant API with JWT auth, an emotion-classified reply pipeline, and
// mood analytics.
//
// Startup order: env file, config, logging, tracing, database, model
// providers (with an optional fail-fast warmup), router, HTTP server with
// graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/mindmate-labs/go-mindmate-backend/docs"
	"github.com/mindmate-labs/go-mindmate-backend/internal/auth"
	"github.com/mindmate-labs/go-mindmate-backend/internal/config"
	httpapi "github.com/mindmate-labs/go-mindmate-backend/internal/http"
	"github.com/mindmate-labs/go-mindmate-backend/internal/ml"
	"github.com/mindmate-labs/go-mindmate-backend/internal/observability"
	"github.com/mindmate-labs/go-mindmate-backend/internal/repo"
	"github.com/mindmate-labs/go-mindmate-backend/internal/sysutil"
)

// version is stamped into traces; override with -ldflags "-X main.version=…".
var version = "1.0.0"

// @title        MindMate API
// @version      1.0
// @description  Mental-health chat assistant backend: register, log in,
// @description  chat with an emotion-aware assistant, and review mood
// @description  analytics over the conversation history.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sdCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("database tracing plugin failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service setup failed")
	}

	classifier, generator, err := buildProviders(cfg.Models)
	if err != nil {
		log.Fatal().Err(err).Msg("model provider setup failed")
	}
	if cfg.Models.WarmupOnBoot {
		warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		warmup(warmCtx, classifier, generator)
		cancel()
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		DB:         db,
		Classifier: classifier,
		Generator:  generator,
		Tokens:     tokens,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("provider", cfg.Models.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sdCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildProviders constructs the classifier and the generator for the
// configured provider. The classifier always comes from the Hugging Face
// Inference API; the generator can alternatively be an OpenAI-compatible
// chat model.
func buildProviders(mc config.ModelConfig) (ml.Classifier, ml.Generator, error) {
	mlCfg := ml.Config{
		BaseURL:        mc.HFBaseURL,
		APIToken:       mc.HFToken,
		EmotionModel:   mc.EmotionModel,
		GeneratorModel: mc.GeneratorModel,
		OpenAIKey:      mc.OpenAIKey,
		OpenAIBaseURL:  mc.OpenAIBaseURL,
		OpenAIModel:    mc.OpenAIModel,
		Params:         ml.DefaultGenParams(),
		MaxInputRunes:  mc.ClassifyMaxRunes,
		Timeout:        mc.GenTimeout,
	}

	hf, err := ml.NewHFClient(mlCfg)
	if err != nil {
		return nil, nil, err
	}

	if mc.Provider == "openai" {
		gen, err := ml.NewOpenAIGenerator(mlCfg)
		if err != nil {
			return nil, nil, err
		}
		return hf, gen, nil
	}
	return hf, hf, nil
}

// warmup pings the model endpoints so a dead or misconfigured endpoint
// kills the process at boot instead of on the first user request.
func warmup(ctx context.Context, providers ...any) {
	seen := map[ml.Warmer]bool{}
	for _, p := range providers {
		w, ok := p.(ml.Warmer)
		if !ok || seen[w] {
			continue
		}
		seen[w] = true
		if err := w.Warmup(ctx); err != nil {
			log.Fatal().Err(err).Msg("model warmup failed")
		}
	}
	log.Info().Msg("models warm")
}
