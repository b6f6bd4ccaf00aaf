package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/placebet"
	"github.com/okian/gridbet/pkg/logger"
)

// Default configuration constants.
const (
	defaultURL     = "http://localhost:8000"
	defaultBetType = "top10"
	defaultSlots   = 10
	defaultTimeout = 10 * time.Second
	runTimeout     = 2 * time.Minute
)

func main() {
	// Credentials are usually kept in .env next to the binary.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("placebet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		baseURL   = fs.String("url", envOr("GRIDBET_API_BASE_URL", defaultURL), "Betting backend base URL")
		raceID    = fs.Int("race", 0, "Race id to bet on")
		cookie    = fs.String("cookie", os.Getenv("GRIDBET_COOKIE"), "Cookie header of a logged-in backend session")
		csrf      = fs.String("csrf", os.Getenv("GRIDBET_CSRF"), "CSRF token (default: csrftoken cookie)")
		ranking   = fs.String("ranking", "", "Comma separated driver numbers, first is P1")
		appendTo  = fs.Bool("append", false, "Fill empty positions instead of overwriting 1..k")
		betType   = fs.String("bet-type", defaultBetType, "Bet type code")
		slots     = fs.Int("slots", defaultSlots, "Number of ranked positions")
		timeout   = fs.Duration("timeout", defaultTimeout, "Backend request timeout")
		dryRun    = fs.Bool("dry-run", false, "Print the ranking without submitting it")
		standings = fs.Int("standings", 0, "Print the standings of a competition instead of betting")
		help      = fs.Bool("help", false, "Show help")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *help {
		placebet.ShowHelp(stdout)
		return 0
	}

	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		_, _ = io.WriteString(stderr, "Failed to setup logging: "+err.Error()+"\n")
		return 1
	}

	order, err := placebet.ParseRanking(*ranking)
	if err != nil {
		_, _ = io.WriteString(stderr, err.Error()+"\n")
		return 2
	}

	cfg := &placebet.Config{
		BaseURL:   *baseURL,
		RaceID:    *raceID,
		Cookie:    *cookie,
		CSRFToken: *csrf,
		Ranking:   order,
		BetType:   *betType,
		Slots:     *slots,
		Timeout:   *timeout,
		DryRun:    *dryRun,
		Append:    *appendTo,
		Standings: *standings,
	}
	if cfg.CSRFToken == "" {
		cfg.CSRFToken = bettingapi.CSRFFromCookie(cfg.Cookie)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	client := bettingapi.New(cfg.BaseURL,
		bettingapi.WithTimeout(cfg.Timeout),
		bettingapi.WithLogger(logger.Named("bettingapi")),
	)

	if _, err := placebet.Run(ctx, cfg, client, stdout); err != nil {
		logger.Get().Error(ctx, "run failed", logger.Error(err))
		if errors.Is(err, placebet.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
