package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"

	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

const (
	pipelineStatusCommitted = "committed"
	pipelineStatusFailed    = "failed"
	pipelineStatusSkipped   = "skipped"

	maxPipelineWorkers = 8
)

type RunInput struct {
	Discovery  DiscoverInput
	MaxWorkers int
	// AdvanceCheckpoint moves the cursor forward after the run. Only
	// most-recent discovery should set it; backfills over an arbitrary
	// window must not drag the cursor backwards or past unseen matches.
	AdvanceCheckpoint bool
}

type RunResult struct {
	Discovered  int   `json:"discovered"`
	Fetched     int   `json:"fetched"`
	Normalized  int   `json:"normalized"`
	Committed   int   `json:"committed"`
	Failed      int   `json:"failed"`
	Skipped     int   `json:"skipped"`
	WorkerCount int   `json:"worker_count"`
	Checkpoint  int64 `json:"checkpoint,omitempty"`

	Tasks          []MatchTaskResult `json:"tasks"`
	FailedMatchIDs []int64           `json:"failed_match_ids,omitempty"`
}

type MatchTaskResult struct {
	MatchID    int64  `json:"match_id"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// PipelineService orchestrates a full ingestion run: discover candidate
// match ids, fan them out over a bounded worker pool, and advance the
// checkpoint to the resolved frontier.
type PipelineService struct {
	discovery   *DiscoveryService
	ingestion   *IngestionService
	checkpoints checkpoint.Store
	logger      *logging.Logger
	clock       clockwork.Clock
}

func NewPipelineService(
	discovery *DiscoveryService,
	ingestion *IngestionService,
	checkpoints checkpoint.Store,
	logger *logging.Logger,
	clock clockwork.Clock,
) *PipelineService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PipelineService{
		discovery:   discovery,
		ingestion:   ingestion,
		checkpoints: checkpoints,
		logger:      logger,
		clock:       clock,
	}
}

func (s *PipelineService) Run(ctx context.Context, input RunInput) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.Run")
	defer span.End()

	if s.discovery == nil || s.ingestion == nil {
		return RunResult{}, fmt.Errorf("%w: pipeline is not fully configured", ErrDependencyUnavailable)
	}

	ids, err := s.discovery.Discover(ctx, input.Discovery)
	if err != nil {
		return RunResult{}, err
	}

	workerCount := normalizePipelineWorkerCount(input.MaxWorkers, len(ids))
	result := RunResult{
		Discovered:  len(ids),
		WorkerCount: workerCount,
		Tasks:       make([]MatchTaskResult, 0, len(ids)),
	}
	if len(ids) == 0 {
		return result, nil
	}

	results := make(chan MatchTaskResult, len(ids))
	outcomes := make(chan IngestOutcome, len(ids))

	var fetchedCount atomic.Int32
	var normalizedCount atomic.Int32
	var committedCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RunResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, id := range ids {
		id := id
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := MatchTaskResult{MatchID: id}
			start := time.Now()

			// Stop requests take effect between matches, never mid-match.
			if ctx.Err() != nil {
				row.Status = pipelineStatusSkipped
				row.Message = "run stopped before match started"
				skippedCount.Add(1)
				results <- row
				outcomes <- IngestOutcome{MatchID: id}
				return
			}

			outcome, ingestErr := s.ingestion.IngestMatch(ctx, id)
			row.DurationMs = time.Since(start).Milliseconds()
			if outcome.Fetched {
				fetchedCount.Add(1)
			}
			if outcome.Normalized {
				normalizedCount.Add(1)
			}
			if ingestErr != nil {
				row.Status = pipelineStatusFailed
				row.Message = ingestErr.Error()
				failedCount.Add(1)
				s.logger.ErrorContext(ctx, "match ingestion failed", "match_id", id, "error", ingestErr)
			} else {
				row.Status = pipelineStatusCommitted
				committedCount.Add(1)
			}

			results <- row
			outcomes <- outcome
		}); err != nil {
			workers.Done()
			return RunResult{}, fmt.Errorf("submit match to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)
	close(outcomes)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
		if row.Status == pipelineStatusFailed {
			result.FailedMatchIDs = append(result.FailedMatchIDs, row.MatchID)
		}
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].MatchID < result.Tasks[j].MatchID
	})
	sort.Slice(result.FailedMatchIDs, func(i, j int) bool {
		return result.FailedMatchIDs[i] < result.FailedMatchIDs[j]
	})

	committed := make([]IngestOutcome, 0, len(ids))
	for outcome := range outcomes {
		committed = append(committed, outcome)
	}

	result.Fetched = int(fetchedCount.Load())
	result.Normalized = int(normalizedCount.Load())
	result.Committed = int(committedCount.Load())
	result.Failed = int(failedCount.Load())
	result.Skipped = int(skippedCount.Load())

	if input.AdvanceCheckpoint && s.checkpoints != nil {
		frontier := resolveCheckpointFrontier(committed)
		if frontier > 0 {
			cursor := checkpoint.Cursor{
				LastMatchID: frontier,
				UpdatedAt:   s.clock.Now().UTC(),
			}
			if err := s.checkpoints.Save(ctx, cursor); err != nil {
				return result, fmt.Errorf("save checkpoint: %w", err)
			}
			result.Checkpoint = frontier
			s.logger.InfoContext(ctx, "checkpoint advanced", "last_match_id", frontier)
		}
	}

	return result, nil
}

// resolveCheckpointFrontier returns the highest committed match id that
// is still below every unresolved (failed or skipped) id, so a rerun
// from the cursor revisits everything that did not land.
func resolveCheckpointFrontier(outcomes []IngestOutcome) int64 {
	var lowestUnresolved int64
	for _, o := range outcomes {
		if o.Committed {
			continue
		}
		if lowestUnresolved == 0 || o.MatchID < lowestUnresolved {
			lowestUnresolved = o.MatchID
		}
	}

	var frontier int64
	for _, o := range outcomes {
		if !o.Committed {
			continue
		}
		if lowestUnresolved > 0 && o.MatchID >= lowestUnresolved {
			continue
		}
		if o.MatchID > frontier {
			frontier = o.MatchID
		}
	}
	return frontier
}

func normalizePipelineWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > maxPipelineWorkers {
		value = maxPipelineWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
