// Package pipeline orchestrates comparison runs: it fans item×platform
// extraction calls out to the adapter, isolates per-pair failures, persists
// normalized records, and ranks them for display.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/basketwise/compare-cli/internal/extract"
	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/resilience"
	"github.com/basketwise/compare-cli/internal/store"
)

// Error kinds reported per platform in a run summary.
const (
	kindUnknownPlatform     = "unknown_platform"
	kindUnsupportedPlatform = "unsupported_platform"
	kindExtractionFailed    = "extraction_failed"
	kindStoreWriteFailed    = "store_write_failed"
)

// Runner executes comparison runs.
type Runner struct {
	store     store.Store
	extractor extract.Extractor
	registry  *model.PlatformRegistry

	callTimeout time.Duration
	retry       resilience.RetryConfig
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCallTimeout sets the per-extraction-call deadline so one slow platform
// cannot stall the batch indefinitely.
func WithCallTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithRetry sets the retry policy applied to transient extraction failures.
func WithRetry(cfg resilience.RetryConfig) RunnerOption {
	return func(r *Runner) { r.retry = cfg }
}

// WithConcurrency bounds how many platforms run in parallel.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(st store.Store, ex extract.Extractor, registry *model.PlatformRegistry, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:       st,
		extractor:   ex,
		registry:    registry,
		callTimeout: 60 * time.Second,
		retry:       resilience.DefaultRetryConfig(),
		concurrency: model.MaxPlatforms,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one comparison run: it persists the selection, wipes the
// owner's previous batch, then attempts every item on every selected
// platform. A per-pair failure never aborts the batch; each platform's
// outcome lands in the returned summary. Platforms run concurrently up to
// the configured bound, items sequentially within a platform.
func (r *Runner) Run(ctx context.Context, sel *model.SelectionRequest, items []string) (*model.RunSummary, error) {
	if len(items) == 0 {
		return nil, model.ErrNoItems
	}

	if sel.ID == "" {
		sel.ID = uuid.New().String()
	}
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now().UTC()
	}

	log := zap.L().With(zap.String("owner", sel.Owner), zap.String("selection", sel.ID))
	log.Info("pipeline: starting run",
		zap.Strings("platforms", sel.PlatformIDs),
		zap.Int("items", len(items)),
	)

	if err := r.store.InsertSelection(ctx, sel); err != nil {
		return nil, eris.Wrap(err, "pipeline: persist selection")
	}

	// Reset point: the owner's previous batch must be gone before any
	// worker writes, so a failed run never mixes old and new records.
	if err := r.store.DeleteResults(ctx, sel.Owner); err != nil {
		return nil, eris.Wrap(err, "pipeline: clear previous results")
	}

	summary := &model.RunSummary{
		SelectionID: sel.ID,
		Owner:       sel.Owner,
		PerPlatform: make(map[string]model.PlatformOutcome, len(sel.PlatformIDs)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, platformID := range sel.PlatformIDs {
		g.Go(func() error {
			outcome := r.runPlatform(gctx, sel, platformID, items)
			mu.Lock()
			summary.PerPlatform[platformID] = outcome
			mu.Unlock()
			// Workers never propagate errors: one platform's failure must
			// not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	log.Info("pipeline: run complete",
		zap.Int("records", summary.Records()),
		zap.Bool("partial_failure", summary.Failed()),
	)
	return summary, nil
}

// runPlatform attempts every item on one platform and reports the outcome.
func (r *Runner) runPlatform(ctx context.Context, sel *model.SelectionRequest, platformID string, items []string) model.PlatformOutcome {
	outcome := model.PlatformOutcome{PlatformID: platformID}
	log := zap.L().With(zap.String("owner", sel.Owner), zap.String("platform", platformID))

	platform := r.registry.ByID(platformID)
	if platform == nil {
		outcome.Failures = len(items)
		outcome.Err = kindUnknownPlatform
		log.Warn("pipeline: selected platform not in registry")
		return outcome
	}
	if _, ok := platform.SearchTarget("probe"); !ok {
		// Deterministic for every item, so skip without any network calls.
		outcome.Failures = len(items)
		outcome.Err = kindUnsupportedPlatform
		log.Warn("pipeline: platform has no search target, skipping")
		return outcome
	}

	for _, item := range items {
		records, err := r.extractItem(ctx, *platform, item, sel.Pincode)
		if err != nil {
			outcome.Failures++
			outcome.Err = errKind(err)
			log.Warn("pipeline: extraction failed",
				zap.String("item", item),
				zap.Error(err),
			)
			continue
		}

		for i := range records {
			records[i].Owner = sel.Owner
			records[i].PlatformID = platformID
		}
		if err := r.store.InsertResults(ctx, sel.Owner, records); err != nil {
			// Fatal only to this item's contribution.
			outcome.Failures++
			outcome.Err = kindStoreWriteFailed
			log.Error("pipeline: persist failed",
				zap.String("item", item),
				zap.Error(err),
			)
			continue
		}
		outcome.Records += len(records)
	}
	return outcome
}

// extractItem calls the adapter with a per-call deadline, retrying only
// transient failures.
func (r *Runner) extractItem(ctx context.Context, platform model.Platform, item, pincode string) ([]model.ProductRecord, error) {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger(platform.ID, item)

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]model.ProductRecord, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		return r.extractor.Extract(callCtx, platform, item, pincode)
	})
}

func errKind(err error) string {
	switch {
	case errors.Is(err, model.ErrUnsupportedPlatform):
		return kindUnsupportedPlatform
	case errors.Is(err, model.ErrStoreWrite):
		return kindStoreWriteFailed
	default:
		return kindExtractionFailed
	}
}
