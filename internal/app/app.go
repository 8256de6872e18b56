package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/command"
	"github.com/harmiox/trivia-bot/internal/config"
	wsgateway "github.com/harmiox/trivia-bot/internal/gateway/ws"
	"github.com/harmiox/trivia-bot/internal/logging"
	"github.com/harmiox/trivia-bot/internal/question"
	"github.com/harmiox/trivia-bot/internal/question/sheets"
	"github.com/harmiox/trivia-bot/internal/server"
	"github.com/harmiox/trivia-bot/internal/trivia"
)

// Application aggregates the bot's shared infrastructure.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis     *redis.Client // nil when the question cache is disabled
	hub       *wsgateway.Hub
	questions *question.Service
	http      *http.Server
}

// New bootstraps config, logger, optional Redis, the gateway hub, the
// trivia registry and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	var redisClient *redis.Client
	var cache question.SetCache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = question.NewCache(redisClient, cfg.Sheets.SpreadsheetID)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; question-set cache disabled")
	}

	sheetsClient := sheets.New(
		cfg.Sheets.BaseURL,
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.APIKey,
		cfg.Sheets.Range,
		&http.Client{Timeout: cfg.Sheets.FetchTimeout},
	)
	questionSvc := question.NewService(sheetsClient, cache, logger)

	hub := wsgateway.NewHub(cfg.CommandPrefix, logger)
	registry := trivia.NewRegistry(hub, rulesFromConfig(cfg.Game), logger)
	dispatcher := command.NewDispatcher(registry, questionSvc, logger)
	hub.SetCommandHandler(dispatcher.Dispatch)

	httpServer := server.NewHTTPServer(cfg, logger, hub.ServeWS)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		redis:     redisClient,
		hub:       hub,
		questions: questionSvc,
		http:      httpServer,
	}, nil
}

// Run loads the initial question set, starts the HTTP server and waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	a.loadInitialQuestions(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	a.hub.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// loadInitialQuestions fetches the question set once at boot. A failed
// fetch is tolerated: the cached set is restored if available, and the
// fetch command can retry later.
func (a *Application) loadInitialQuestions(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Sheets.FetchTimeout)
	defer cancel()

	if _, err := a.questions.Fetch(fetchCtx); err != nil {
		if errors.Is(err, question.ErrSourceUnavailable) {
			a.logger.Warn().Err(err).Msg("initial question fetch failed")
		} else {
			a.logger.Error().Err(err).Msg("initial question fetch failed")
		}
		if count, err := a.questions.LoadCached(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("cached question set unavailable")
		} else if count > 0 {
			a.logger.Info().Int("count", count).Msg("serving cached question set")
		}
	}
}

func rulesFromConfig(g config.Game) trivia.Rules {
	rules := trivia.DefaultRules()
	if g.PointsToWin > 0 {
		rules.PointsToWin = g.PointsToWin
	}
	set := func(m map[string]int, key string, v int) {
		if v > 0 {
			m[key] = v
		}
	}
	set(rules.Points, trivia.DifficultyEasy, g.EasyPoints)
	set(rules.Points, trivia.DifficultyMedium, g.MediumPoints)
	set(rules.Points, trivia.DifficultyHard, g.HardPoints)
	setWindow := func(key string, d time.Duration) {
		if d > 0 {
			rules.Windows[key] = d
		}
	}
	setWindow(trivia.DifficultyEasy, g.EasySeconds)
	setWindow(trivia.DifficultyMedium, g.MediumSeconds)
	setWindow(trivia.DifficultyHard, g.HardSeconds)
	return rules
}
