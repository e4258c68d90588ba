package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"pkgsweep/internal/config"
	"pkgsweep/internal/metrics"
	"pkgsweep/internal/output"
	"pkgsweep/internal/registry"
)

// Registry is the package registry the engine sweeps.
type Registry interface {
	FetchPackages(ctx context.Context, key registry.FetchKey) registry.FetchResult
	DeletePackage(ctx context.Context, pkg registry.Package) registry.DeleteResult
}

type Engine struct {
	Registry Registry

	// Rate, when set, supplies the rate limit state reported in the summary.
	Rate *registry.RateObserver

	// Metrics is optional; a nil Metrics records nothing.
	Metrics *metrics.Metrics

	Logger *slog.Logger

	// Stdout receives console and emit output. Defaults to os.Stdout.
	Stdout io.Writer

	now      func() time.Time
	newRunID func() string
}

func NewEngine(reg Registry) *Engine {
	return &Engine{
		Registry: reg,
		Logger:   slog.Default(),
		Stdout:   os.Stdout,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run performs one sweep: it fetches every (type, visibility) key, merges and
// filters the results by keyword, then deletes every match. Fetching
// completes before the first delete is sent.
//
// Partial failures (a failed page, a failed delete) are reported through the
// returned Summary and the output sinks, never as an error. The error is
// reserved for setup failures that prevent the run from starting.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (output.Summary, error) {
	if e.Registry == nil {
		return output.Summary{}, errors.New("engine registry is nil")
	}
	if cfg == nil {
		return output.Summary{}, errors.New("config is nil")
	}
	e.defaults()

	outMgr, err := setupOutputManager(cfg, e.Stdout)
	if err != nil {
		return output.Summary{}, fmt.Errorf("create output sinks: %w", err)
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			e.Logger.Error("closing output sinks", "err", err)
		}
	}()

	pool, err := NewPool(cfg.Runtime.Concurrency)
	if err != nil {
		return output.Summary{}, err
	}
	defer pool.Close()

	started := e.now()
	keys := registry.Keys(cfg.Targeting.PackageTypes, cfg.Targeting.Visibilities)
	sum := output.Summary{
		RunID:   e.newRunID(),
		Keyword: cfg.Targeting.Keyword,
		DryRun:  cfg.Targeting.DryRun,
		Keys:    len(keys),
	}
	log := e.Logger.With("run_id", sum.RunID)
	log.Info("sweep started", "keyword", sum.Keyword, "keys", len(keys), "concurrency", pool.Size(), "dry_run", sum.DryRun, "sinks", outMgr.Len())
	e.write(outMgr, output.Event{Type: output.EventRunStarted, RunID: sum.RunID, Keyword: sum.Keyword, Keys: len(keys)})

	e.sweep(ctx, cfg, pool, outMgr, log, keys, &sum)
	e.finish(outMgr, log, &sum, started)
	return sum, nil
}

func (e *Engine) sweep(ctx context.Context, cfg *config.Config, pool *Pool, outMgr *output.Manager, log *slog.Logger, keys []registry.FetchKey, sum *output.Summary) {
	fetched, err := runPhase(ctx, pool, len(keys), func(ctx context.Context, i int) registry.FetchResult {
		return e.Registry.FetchPackages(ctx, keys[i])
	})
	for _, s := range fetched {
		if !s.Done {
			continue
		}
		e.Metrics.RecordFetch(s.Value)
		sum.Listed += len(s.Value.Packages)
		if s.Value.Err != nil {
			sum.ListErrors++
		}
		e.write(outMgr, output.FetchEvent(s.Value))
	}
	if err != nil {
		// Deleting from an incomplete listing is not attempted.
		sum.Error = err.Error()
		log.Error("fetch phase failed, skipping deletes", "err", err)
		return
	}

	matches := FilterByKeyword(mergeFetched(fetched), cfg.Targeting.Keyword)
	sum.Matched = len(matches)
	log.Info("packages matched", "listed", sum.Listed, "matched", sum.Matched)

	if cfg.Targeting.DryRun {
		for _, p := range matches {
			e.record(outMgr, sum, registry.DeleteResult{Package: p, Status: registry.DeleteStatusPlanned})
		}
		return
	}

	deleted, err := runPhase(ctx, pool, len(matches), func(ctx context.Context, i int) registry.DeleteResult {
		return e.Registry.DeletePackage(ctx, matches[i])
	})
	for _, s := range deleted {
		if s.Done {
			e.record(outMgr, sum, s.Value)
		}
	}
	if err != nil {
		sum.Error = err.Error()
		log.Error("delete phase failed", "err", err)
	}
}

func (e *Engine) defaults() {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newRunID == nil {
		e.newRunID = uuid.NewString
	}
}

func (e *Engine) record(outMgr *output.Manager, sum *output.Summary, res registry.DeleteResult) {
	switch res.Status {
	case registry.DeleteStatusDeleted:
		sum.Deleted++
	case registry.DeleteStatusFailed:
		sum.Failed++
	case registry.DeleteStatusPlanned:
		sum.Planned++
	}
	e.Metrics.RecordDelete(res)
	e.write(outMgr, res)
}

func (e *Engine) finish(outMgr *output.Manager, log *slog.Logger, sum *output.Summary, started time.Time) {
	sum.Duration = e.now().Sub(started)
	var rate registry.RateSnapshot
	if e.Rate != nil {
		rate = e.Rate.Snapshot()
		if rate.Observed {
			sum.RateLimit = &rate
		}
	}
	e.Metrics.RecordRun(started, sum.Duration, rate)

	final := *sum
	e.write(outMgr, output.Event{Type: output.EventRunFinished, RunID: sum.RunID, Summary: &final})
	log.Info("sweep finished",
		"listed", sum.Listed,
		"matched", sum.Matched,
		"deleted", sum.Deleted,
		"failed", sum.Failed,
		"planned", sum.Planned,
		"duration", sum.Duration,
	)
}

func (e *Engine) write(outMgr *output.Manager, v any) {
	if err := outMgr.Write(v); err != nil {
		e.Logger.Warn("writing output", "err", err)
	}
}
