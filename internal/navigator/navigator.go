// Package navigator drives a browser session through a human-plausible path
// to a listing page, modeled as an explicit state machine so each transition
// and failure mode is testable on its own.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

// State is the navigation machine's position on the way to readable content.
type State int

const (
	StateInit State = iota
	StateLanding
	StateCategoryOrSearch
	StateListingPage
	StatePopupCheck
	StateScrollSettle
	StateContentReady
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLanding:
		return "landing"
	case StateCategoryOrSearch:
		return "category_or_search"
	case StateListingPage:
		return "listing_page"
	case StatePopupCheck:
		return "popup_check"
	case StateScrollSettle:
		return "scroll_settle"
	case StateContentReady:
		return "content_ready"
	default:
		return "unknown"
	}
}

// Options tune the pacing of a navigation run.
type Options struct {
	StepTimeout     time.Duration // per page load
	SettleDelay     time.Duration // pause between scroll actions
	MaxScrollRounds int           // ceiling for the settle loop
}

func (o *Options) withDefaults() {
	if o.StepTimeout <= 0 {
		o.StepTimeout = 90 * time.Second
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 1200 * time.Millisecond
	}
	if o.MaxScrollRounds <= 0 {
		o.MaxScrollRounds = 6
	}
}

// Navigator runs the state machine over a Driver. It holds no per-listing
// state and is safe to share across workers; the Driver (session) is not.
type Navigator struct {
	logger *zap.Logger
	opts   Options

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a Navigator.
func New(logger *zap.Logger, opts Options, seed int64) *Navigator {
	opts.withDefaults()
	return &Navigator{
		logger: logger,
		opts:   opts,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// FetchListing walks a chosen humanized path to the listing and returns the
// rendered HTML once the page has settled. Failures come back as *NavError
// with kinds Timeout, Blocked, NotFound or StructureChanged; navigation
// failures short-circuit extraction, so no partial page ever reaches the
// extractor.
func (n *Navigator) FetchListing(ctx context.Context, d Driver, listingURL string) (string, error) {
	n.mu.Lock()
	path := ChoosePath(PlanPaths(listingURL), n.rnd)
	n.mu.Unlock()

	state := StateInit
	for i, step := range path {
		switch {
		case i == 0 && len(path) > 1:
			state = StateLanding
		case i == len(path)-1:
			state = StateListingPage
		default:
			state = StateCategoryOrSearch
		}
		n.logger.Debug("navigation step",
			zap.String("state", state.String()),
			zap.String("step", step.Name),
			zap.String("url", step.URL),
		)

		stepCtx, cancel := context.WithTimeout(ctx, n.opts.StepTimeout)
		err := d.Navigate(stepCtx, step.URL)
		cancel()
		if err != nil {
			return "", classifyNavigateErr(ctx, err)
		}

		// Intermediate pages get no interaction at all: fast pass-through
		// reads more human than robotically scrolling every hop.
		if state != StateListingPage {
			continue
		}

		// Initial scroll wakes up lazy-loaded content before popups are
		// handled; the overlays only render once the page is active.
		if err := n.scrollCycles(ctx, d, 3); err != nil {
			return "", err
		}

		state = StatePopupCheck
		n.logger.Debug("navigation state", zap.String("state", state.String()))
		n.dismissPopups(ctx, d)

		state = StateScrollSettle
		n.logger.Debug("navigation state", zap.String("state", state.String()))
		if err := n.scrollSettle(ctx, d); err != nil {
			return "", err
		}
	}

	html, err := d.HTML(ctx)
	if err != nil {
		return "", classifyNavigateErr(ctx, err)
	}
	if err := ClassifyPage(html); err != nil {
		return "", err
	}

	state = StateContentReady
	n.logger.Debug("navigation complete", zap.String("state", state.String()), zap.String("url", listingURL))
	return html, nil
}

// scrollCycles performs down/up wheel cycles with settle delays, emulating a
// reader skimming the page.
func (n *Navigator) scrollCycles(ctx context.Context, d Driver, cycles int) error {
	for i := 0; i < cycles; i++ {
		if err := d.ScrollBy(ctx, 800); err != nil {
			return classifyNavigateErr(ctx, err)
		}
		if err := sleep(ctx, n.opts.SettleDelay); err != nil {
			return domain.NavFail(domain.FailTimeout, err)
		}
		if err := d.ScrollBy(ctx, -400); err != nil {
			return classifyNavigateErr(ctx, err)
		}
		if err := sleep(ctx, n.opts.SettleDelay/2); err != nil {
			return domain.NavFail(domain.FailTimeout, err)
		}
	}
	return nil
}

// scrollSettle keeps scrolling until the document height stops growing (no
// more lazy-loaded content is arriving) or the round ceiling is reached.
func (n *Navigator) scrollSettle(ctx context.Context, d Driver) error {
	lastHeight := -1
	for round := 0; round < n.opts.MaxScrollRounds; round++ {
		height, err := d.PageHeight(ctx)
		if err != nil {
			return classifyNavigateErr(ctx, err)
		}
		if height == lastHeight {
			return nil
		}
		lastHeight = height
		if err := d.ScrollBy(ctx, 500); err != nil {
			return classifyNavigateErr(ctx, err)
		}
		if err := sleep(ctx, n.opts.SettleDelay); err != nil {
			return domain.NavFail(domain.FailTimeout, err)
		}
	}
	return nil
}

var (
	blockedMarkers = []string{
		"captcha", "access denied", "has been blocked", "cloudflare",
		"unusual traffic", "verifica que eres humano",
	}
	notFoundMarkers = []string{
		"página no encontrada", "pagina no encontrada",
		"anuncio no disponible", "este aviso ya no está disponible",
		"error 404",
	}
)

// ClassifyPage inspects rendered HTML for terminal conditions. A bot wall is
// Blocked, a removed listing is NotFound, and a page missing the anchors
// every listing carries is StructureChanged, the site-drift maintenance
// signal that must stay distinguishable from per-item flukes.
func ClassifyPage(html string) error {
	lower := strings.ToLower(html)
	if strings.TrimSpace(lower) == "" {
		return domain.NavFail(domain.FailStructureChanged, errors.New("empty document"))
	}
	for _, m := range blockedMarkers {
		if strings.Contains(lower, m) {
			return domain.NavFail(domain.FailBlocked, fmt.Errorf("page contains %q", m))
		}
	}
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return domain.NavFail(domain.FailNotFound, fmt.Errorf("page contains %q", m))
		}
	}
	if !strings.Contains(lower, "<h1") {
		return domain.NavFail(domain.FailStructureChanged, errors.New("listing heading anchor missing"))
	}
	return nil
}

// classifyNavigateErr folds driver errors into the failure taxonomy.
// Deadline and cancellation become Timeout, the only retryable default;
// everything else from the transport is treated the same way.
func classifyNavigateErr(ctx context.Context, err error) error {
	var ne *domain.NavError
	if errors.As(err, &ne) {
		return err
	}
	if ctx.Err() != nil {
		return domain.NavFail(domain.FailTimeout, ctx.Err())
	}
	return domain.NavFail(domain.FailTimeout, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
