// Package harvester runs the per-listing pipeline (navigate, extract, write,
// report) across a bounded worker pool of independent browser sessions.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/RichGutz/Scraper.Neoauto/internal/artifact"
	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/internal/extract"
	"github.com/RichGutz/Scraper.Neoauto/internal/monitoring"
	"github.com/RichGutz/Scraper.Neoauto/internal/navigator"
	"github.com/RichGutz/Scraper.Neoauto/internal/queue"
)

// ResultReporter is the external persistence boundary. The core reports one
// outcome per listing; the other side decides what processed-state means.
type ResultReporter interface {
	ReportOutcome(ctx context.Context, outcome domain.ExtractionOutcome) error
}

// Deduper short-circuits listings harvested within the dedup window.
type Deduper interface {
	IsRecentlyHarvested(ctx context.Context, url string) (bool, error)
	MarkHarvested(ctx context.Context, url string, ttl time.Duration) error
}

// BlockMonitor counts bot-detection blocks across the pool within a window.
type BlockMonitor interface {
	RecordBlocked(ctx context.Context, window time.Duration) (int64, error)
}

// Session is one exclusively-owned browser identity.
type Session interface {
	Driver() navigator.Driver
	UserAgent() string
	NoteServed()
	Exhausted() bool
	Close()
}

// SessionFactory mints fresh browser identities for workers.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// BrowserSessions adapts the navigator's session factory to SessionFactory.
type BrowserSessions struct {
	Factory *navigator.SessionFactory
}

func (b BrowserSessions) NewSession(ctx context.Context) (Session, error) {
	return b.Factory.New(ctx)
}

// Options tune the pool's failure policy.
type Options struct {
	Workers        int
	DedupTTL       time.Duration
	BlockThreshold int           // blocks within the window that trigger a cool-down
	BlockWindow    time.Duration
	Cooldown       time.Duration // how long the whole pool pauses
}

func (o *Options) withDefaults() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.DedupTTL <= 0 {
		o.DedupTTL = 48 * time.Hour
	}
	if o.BlockThreshold <= 0 {
		o.BlockThreshold = 3
	}
	if o.BlockWindow <= 0 {
		o.BlockWindow = 10 * time.Minute
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 5 * time.Minute
	}
}

// Stats is a snapshot of a run's progress.
type Stats struct {
	Succeeded    int64 `json:"succeeded"`
	SoftFailures int64 `json:"soft_failures"`
	HardFailures int64 `json:"hard_failures"`
}

// Harvester owns the worker pool. The RuleSet-backed engine and navigator
// are read-only and shared; each worker exclusively owns its browser session.
type Harvester struct {
	opts     Options
	sessions SessionFactory
	nav      *navigator.Navigator
	engine   *extract.Engine
	writer   *artifact.Writer
	reporter ResultReporter
	deduper  Deduper
	blocks   BlockMonitor
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	succeeded    atomic.Int64
	softFailures atomic.Int64
	hardFailures atomic.Int64

	mu            sync.Mutex
	cooldownUntil time.Time
}

func New(
	opts Options,
	sessions SessionFactory,
	nav *navigator.Navigator,
	engine *extract.Engine,
	writer *artifact.Writer,
	reporter ResultReporter,
	deduper Deduper,
	blocks BlockMonitor,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Harvester {
	opts.withDefaults()
	return &Harvester{
		opts:     opts,
		sessions: sessions,
		nav:      nav,
		engine:   engine,
		writer:   writer,
		reporter: reporter,
		deduper:  deduper,
		blocks:   blocks,
		metrics:  metrics,
		logger:   logger,
	}
}

// Stats returns a snapshot of the run counters.
func (h *Harvester) Stats() Stats {
	return Stats{
		Succeeded:    h.succeeded.Load(),
		SoftFailures: h.softFailures.Load(),
		HardFailures: h.hardFailures.Load(),
	}
}

// Run drains the queue with the configured number of workers and returns the
// first fatal error, if any. Artifact storage failures are fatal: losing a
// result after a successful extraction is a data-loss event. Cancellation
// aborts in-flight listings at their next suspension point; those listings
// are not reported processed and stay eligible for a future run.
func (h *Harvester) Run(ctx context.Context, q *queue.Queue) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)
	fail := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
			cancel()
		}
		fatalMu.Unlock()
	}

	for i := 0; i < h.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := h.worker(ctx, id, q); err != nil {
				fail(err)
			}
		}(i)
	}
	wg.Wait()

	fatalMu.Lock()
	defer fatalMu.Unlock()
	if fatalErr != nil {
		return fatalErr
	}
	return ctx.Err()
}

func (h *Harvester) worker(ctx context.Context, id int, q *queue.Queue) error {
	log := h.logger.With(zap.Int("worker", id))

	var session Session
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	for {
		target, ok := q.Claim(ctx)
		if !ok {
			return nil
		}
		h.metrics.QueueDepth.Set(float64(q.Len()))

		if err := h.waitCooldown(ctx); err != nil {
			return nil
		}

		if session != nil && session.Exhausted() {
			log.Debug("session lifetime reached, rotating identity")
			session.Close()
			session = nil
		}
		if session == nil {
			var err error
			session, err = h.sessions.NewSession(context.Background())
			if err != nil {
				return err
			}
			log.Debug("started browser session", zap.String("user_agent", session.UserAgent()))
		}

		outcome, blocked, fatal := h.processOne(ctx, session, target, log)

		if ctx.Err() != nil {
			// Aborted mid-listing: report nothing so the target remains
			// eligible for a future attempt.
			return nil
		}

		if blocked {
			// Never retry a blocked session with identical parameters.
			session.Close()
			session = nil
			h.noteBlocked(ctx, log)
		} else {
			session.NoteServed()
		}

		h.count(outcome)
		if err := h.reporter.ReportOutcome(ctx, outcome); err != nil {
			log.Error("failed to report outcome", zap.String("url", target.URL), zap.Error(err))
		}

		if outcome.Kind == domain.OutcomeSuccess {
			if err := h.deduper.MarkHarvested(ctx, target.URL, h.opts.DedupTTL); err != nil {
				log.Warn("failed to mark url as harvested", zap.String("url", target.URL), zap.Error(err))
			}
		}

		if fatal != nil {
			return fatal
		}
	}
}

// processOne runs one listing end-to-end. The returned blocked flag tells
// the worker to rotate its session identity; a non-nil fatal error (artifact
// storage failure) stops the whole run after the outcome is reported.
func (h *Harvester) processOne(ctx context.Context, session Session, target domain.ListingTarget, log *zap.Logger) (domain.ExtractionOutcome, bool, error) {
	recent, err := h.deduper.IsRecentlyHarvested(ctx, target.URL)
	if err != nil {
		log.Warn("dedup check failed", zap.String("url", target.URL), zap.Error(err))
	}
	if recent {
		log.Info("skipping recently harvested listing", zap.String("url", target.URL))
		return domain.ExtractionOutcome{
			Kind:   domain.OutcomeSoftFailure,
			Target: target,
			Reason: "recently_harvested",
		}, false, nil
	}

	navStart := time.Now()
	html, err := h.nav.FetchListing(ctx, session.Driver(), target.URL)
	h.metrics.NavigationDuration.Observe(time.Since(navStart).Seconds())

	if err != nil {
		kind := domain.FailKindOf(err)
		h.metrics.IncOutcome("failure", string(kind))
		switch kind {
		case domain.FailStructureChanged:
			// Surfaced distinctly: this is site-wide drift needing pattern
			// maintenance, not a per-item fluke.
			log.Warn("listing structure changed, extraction patterns may be stale",
				zap.String("url", target.URL), zap.Error(err))
			return domain.ExtractionOutcome{Kind: domain.OutcomeHardFailure, Target: target, Reason: string(kind)}, false, nil
		case domain.FailNotFound:
			log.Info("listing no longer exists", zap.String("url", target.URL))
			return domain.ExtractionOutcome{Kind: domain.OutcomeHardFailure, Target: target, Reason: string(kind)}, false, nil
		case domain.FailBlocked:
			log.Warn("suspected bot-detection block", zap.String("url", target.URL), zap.Error(err))
			return domain.ExtractionOutcome{Kind: domain.OutcomeSoftFailure, Target: target, Reason: string(kind)}, true, nil
		default:
			log.Warn("navigation timed out", zap.String("url", target.URL), zap.Error(err))
			return domain.ExtractionOutcome{Kind: domain.OutcomeSoftFailure, Target: target, Reason: string(kind)}, false, nil
		}
	}

	content, err := extract.Distill(target.URL, html)
	if err != nil {
		h.metrics.IncOutcome("failure", "distill")
		return domain.ExtractionOutcome{Kind: domain.OutcomeHardFailure, Target: target, Reason: "unreadable content"}, false, nil
	}

	result, err := h.engine.Extract(content, time.Now().UTC())
	if err != nil {
		if errors.Is(err, extract.ErrEmptyContent) {
			h.metrics.IncOutcome("failure", "empty_content")
			return domain.ExtractionOutcome{Kind: domain.OutcomeHardFailure, Target: target, Reason: "empty content"}, false, nil
		}
		h.metrics.IncOutcome("failure", "extraction")
		return domain.ExtractionOutcome{Kind: domain.OutcomeHardFailure, Target: target, Reason: err.Error()}, false, nil
	}

	artifactID, err := h.writer.Write(result)
	if err != nil {
		// Extraction succeeded but the artifact is gone; this must reach
		// the caller as a failure, never be swallowed.
		log.Error("artifact write failed", zap.String("url", target.URL), zap.Error(err))
		h.metrics.IncOutcome("failure", "artifact_write")
		return domain.ExtractionOutcome{
			Kind:   domain.OutcomeHardFailure,
			Target: target,
			Result: result,
			Reason: "artifact write failed: " + err.Error(),
		}, false, fmt.Errorf("artifact write for %s: %w", target.URL, err)
	}

	h.metrics.IncOutcome("success", "")
	log.Info("listing harvested",
		zap.String("url", target.URL),
		zap.String("artifact_id", artifactID),
	)
	return domain.ExtractionOutcome{
		Kind:       domain.OutcomeSuccess,
		Target:     target,
		Result:     result,
		ArtifactID: artifactID,
	}, false, nil
}

// noteBlocked records one block and, past the threshold, puts the whole pool
// into a cool-down. One blocked session is not a global halt signal; a burst
// of them is.
func (h *Harvester) noteBlocked(ctx context.Context, log *zap.Logger) {
	h.metrics.BlockedTotal.Inc()
	count, err := h.blocks.RecordBlocked(ctx, h.opts.BlockWindow)
	if err != nil {
		log.Warn("failed to record block", zap.Error(err))
		return
	}
	if count >= int64(h.opts.BlockThreshold) {
		h.mu.Lock()
		h.cooldownUntil = time.Now().Add(h.opts.Cooldown)
		h.mu.Unlock()
		log.Warn("block threshold reached, cooling down pool",
			zap.Int64("blocks_in_window", count),
			zap.Duration("cooldown", h.opts.Cooldown),
		)
	}
}

func (h *Harvester) waitCooldown(ctx context.Context) error {
	h.mu.Lock()
	until := h.cooldownUntil
	h.mu.Unlock()

	wait := time.Until(until)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *Harvester) count(outcome domain.ExtractionOutcome) {
	switch outcome.Kind {
	case domain.OutcomeSuccess:
		h.succeeded.Add(1)
	case domain.OutcomeSoftFailure:
		h.softFailures.Add(1)
	case domain.OutcomeHardFailure:
		h.hardFailures.Add(1)
	}
}
