package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dotalytics/dota-ingest/internal/app"
	"github.com/dotalytics/dota-ingest/internal/config"
	"github.com/dotalytics/dota-ingest/internal/platform/id"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
	"github.com/dotalytics/dota-ingest/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	if runID, err := id.NewRandomGenerator().NewID(); err == nil {
		logger = logger.With("run_id", runID)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	var (
		recent       = flag.Bool("recent", false, "discover the most recent professional matches")
		limit        = flag.Int("limit", cfg.PipelineDiscoveryLimit, "maximum match ids the recent strategy collects")
		noCheckpoint = flag.Bool("no-checkpoint", false, "ignore the stored checkpoint when discovering recent matches")
		fromRaw      = flag.String("from", "", "date range start, RFC 3339 or YYYY-MM-DD")
		toRaw        = flag.String("to", "", "date range end, RFC 3339 or YYYY-MM-DD")
		minTier      = flag.String("min-tier", "", "minimum league tier for the date range strategy (amateur, minor, professional, premium)")
		teamID       = flag.Int64("team", 0, "discover matches played by this team id")
		workers      = flag.Int("workers", cfg.PipelineMaxWorkers, "concurrent ingestion workers")
		syncHeroes   = flag.Bool("sync-heroes", false, "refresh the hero catalog before the run")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build application", "error", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	if *syncHeroes {
		count, err := application.HeroSync.Sync(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "hero catalog sync failed", "error", err)
			os.Exit(1)
		}
		logger.InfoContext(ctx, "hero catalog synced", "heroes", count)
	}

	input, err := buildRunInput(*recent, *limit, *noCheckpoint, *fromRaw, *toRaw, *minTier, *teamID, *workers)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		flag.Usage()
		os.Exit(2)
	}
	if input == nil {
		if !*syncHeroes {
			logger.Info("nothing to do: pass -recent, -from/-to, -team, or -sync-heroes")
			os.Exit(2)
		}
		return
	}

	result, err := application.Pipeline.Run(ctx, *input)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion run failed",
			"error", err,
			"discovered", result.Discovered,
			"committed", result.Committed,
		)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "ingestion run finished",
		"discovered", result.Discovered,
		"fetched", result.Fetched,
		"normalized", result.Normalized,
		"committed", result.Committed,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"workers", result.WorkerCount,
		"checkpoint", result.Checkpoint,
	)
	if result.Failed > 0 {
		logger.WarnContext(ctx, "some matches failed to ingest", "match_ids", result.FailedMatchIDs)
		if result.Committed == 0 {
			os.Exit(1)
		}
	}
}

// buildRunInput turns the CLI flags into a pipeline input. A nil input
// with a nil error means no strategy was requested.
func buildRunInput(recent bool, limit int, noCheckpoint bool, fromRaw, toRaw, minTier string, teamID int64, workers int) (*usecase.RunInput, error) {
	var discovery usecase.DiscoverInput

	if recent {
		discovery.MostRecent = &usecase.MostRecentStrategy{
			Limit:         limit,
			UseCheckpoint: !noCheckpoint,
		}
	}

	if fromRaw != "" || toRaw != "" {
		if fromRaw == "" || toRaw == "" {
			return nil, errors.New("-from and -to must be set together")
		}
		start, err := parseTimeFlag(fromRaw)
		if err != nil {
			return nil, fmt.Errorf("parse -from: %w", err)
		}
		end, err := parseTimeFlag(toRaw)
		if err != nil {
			return nil, fmt.Errorf("parse -to: %w", err)
		}
		discovery.DateRange = &usecase.DateRangeStrategy{
			Start:         start,
			End:           end,
			MinLeagueTier: minTier,
		}
	} else if minTier != "" {
		return nil, errors.New("-min-tier requires -from and -to")
	}

	if teamID != 0 {
		if teamID < 0 {
			return nil, errors.New("-team must be positive")
		}
		discovery.ByTeam = &usecase.ByTeamStrategy{TeamID: teamID}
	}

	if discovery.MostRecent == nil && discovery.DateRange == nil && discovery.ByTeam == nil {
		return nil, nil
	}

	// Checkpoint advancement only makes sense for checkpoint-driven
	// recent discovery; a backfill or team scan must not move the
	// frontier past matches the recent strategy has not seen.
	advance := discovery.MostRecent != nil && discovery.MostRecent.UseCheckpoint &&
		discovery.DateRange == nil && discovery.ByTeam == nil

	return &usecase.RunInput{
		Discovery:         discovery,
		MaxWorkers:        workers,
		AdvanceCheckpoint: advance,
	}, nil
}

func parseTimeFlag(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
