package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration for the bot process.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-bot"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	CommandPrefix           string        `env:"COMMAND_PREFIX" envDefault:"?"`

	Sheets Sheets
	Redis  Redis
	Game   Game
}

// Sheets configures the spreadsheet the question bank is fetched from.
type Sheets struct {
	SpreadsheetID string        `env:"GOOGLE_SPREADSHEET_ID,notEmpty"`
	APIKey        string        `env:"GOOGLE_SHEETS_API_KEY"`
	BaseURL       string        `env:"GOOGLE_SHEETS_BASE_URL" envDefault:"https://sheets.googleapis.com"`
	Range         string        `env:"GOOGLE_SHEETS_RANGE" envDefault:"Questions"`
	FetchTimeout  time.Duration `env:"QUESTION_FETCH_TIMEOUT_SECONDS" envDefault:"5s"`
}

// Redis holds the optional question-set cache configuration.
// Leaving REDIS_ADDR empty disables the cache.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// Game groups the gameplay constants (points and answer windows per difficulty).
type Game struct {
	PointsToWin   int           `env:"POINTS_TO_WIN" envDefault:"500"`
	EasyPoints    int           `env:"EASY_POINTS" envDefault:"10"`
	MediumPoints  int           `env:"MEDIUM_POINTS" envDefault:"25"`
	HardPoints    int           `env:"HARD_POINTS" envDefault:"50"`
	EasySeconds   time.Duration `env:"EASY_SECONDS" envDefault:"30s"`
	MediumSeconds time.Duration `env:"MEDIUM_SECONDS" envDefault:"20s"`
	HardSeconds   time.Duration `env:"HARD_SECONDS" envDefault:"10s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
