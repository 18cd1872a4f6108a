package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/dotalytics/dota-ingest/external/opendota"
	"github.com/dotalytics/dota-ingest/internal/config"
	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	"github.com/dotalytics/dota-ingest/internal/domain/league"
	"github.com/dotalytics/dota-ingest/internal/domain/team"
	checkpointfile "github.com/dotalytics/dota-ingest/internal/infrastructure/checkpoint"
	cacherepo "github.com/dotalytics/dota-ingest/internal/infrastructure/repository/cache"
	"github.com/dotalytics/dota-ingest/internal/infrastructure/repository/postgres"
	basecache "github.com/dotalytics/dota-ingest/internal/platform/cache"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
	"github.com/dotalytics/dota-ingest/internal/platform/resilience"
	"github.com/dotalytics/dota-ingest/internal/usecase"
)

// Application bundles the wired services and the resources they own.
type Application struct {
	Pipeline  *usecase.PipelineService
	Discovery *usecase.DiscoveryService
	Ingestion *usecase.IngestionService
	HeroSync  *usecase.HeroSyncService

	Matches     *postgres.MatchRepository
	Players     *postgres.PlayerRepository
	Teams       team.Repository
	Leagues     league.Repository
	Heroes      hero.Repository
	Checkpoints checkpoint.Store

	db *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	checkpoints, err := buildCheckpointStore(cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	provider := opendota.NewClient(opendota.ClientConfig{
		HTTPClient:  &http.Client{Timeout: cfg.OpenDotaTimeout},
		BaseURL:     cfg.OpenDotaBaseURL,
		APIKey:      cfg.OpenDotaAPIKey,
		Timeout:     cfg.OpenDotaTimeout,
		MaxRetries:  cfg.OpenDotaMaxRetries,
		BackoffBase: cfg.OpenDotaBackoffBase,
		BackoffMax:  cfg.OpenDotaBackoffMax,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OpenDotaCircuitEnabled,
			FailureThreshold: cfg.OpenDotaCircuitFailureCount,
			OpenTimeout:      cfg.OpenDotaCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OpenDotaCircuitHalfOpenMaxReq,
		},
	})

	clock := clockwork.NewRealClock()
	writer := postgres.NewIngestRepository(db)
	normalizer := usecase.NewNormalizer(logger)
	ingestion := usecase.NewIngestionService(provider, normalizer, writer, logger)
	discovery := usecase.NewDiscoveryService(provider, checkpoints, logger)
	pipeline := usecase.NewPipelineService(discovery, ingestion, checkpoints, logger, clock)

	var (
		teams   team.Repository   = postgres.NewTeamRepository(db)
		leagues league.Repository = postgres.NewLeagueRepository(db)
		heroes  hero.Repository   = postgres.NewHeroRepository(db)
	)
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		teams = cacherepo.NewTeamRepository(teams, store)
		leagues = cacherepo.NewLeagueRepository(leagues, store)
		heroes = cacherepo.NewHeroRepository(heroes, store)
	}
	heroSync := usecase.NewHeroSyncService(provider, heroes, logger)

	return &Application{
		Pipeline:    pipeline,
		Discovery:   discovery,
		Ingestion:   ingestion,
		HeroSync:    heroSync,
		Matches:     postgres.NewMatchRepository(db),
		Players:     postgres.NewPlayerRepository(db),
		Teams:       teams,
		Leagues:     leagues,
		Heroes:      heroes,
		Checkpoints: checkpoints,
		db:          db,
	}, nil
}

func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func buildCheckpointStore(cfg config.Config, db *sqlx.DB) (checkpoint.Store, error) {
	switch cfg.CheckpointBackend {
	case config.CheckpointBackendFile:
		store, err := checkpointfile.NewFileStore(cfg.CheckpointFilePath, clockwork.NewRealClock())
		if err != nil {
			return nil, fmt.Errorf("build file checkpoint store: %w", err)
		}
		return store, nil
	default:
		return postgres.NewCheckpointRepository(db), nil
	}
}
