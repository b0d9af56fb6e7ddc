package navigator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// userAgents is the rotation pool. The agent is fixed for a session's whole
// lifetime; changing it mid-session is itself a fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// Session owns one browser context: its cookies, user agent and navigation
// state. Sessions are never shared between workers. A session serves at most
// maxListings listings before the factory retires it, balancing stealth
// (fresh identity) against browser startup cost.
type Session struct {
	driver      Driver
	userAgent   string
	maxListings int
	served      int

	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// Driver returns the browser driver bound to this session.
func (s *Session) Driver() Driver { return s.driver }

// UserAgent reports the identity this session presents.
func (s *Session) UserAgent() string { return s.userAgent }

// NoteServed records one completed listing attempt.
func (s *Session) NoteServed() { s.served++ }

// Exhausted reports whether the session hit its lifetime limit and must be
// rotated before the next listing.
func (s *Session) Exhausted() bool {
	return s.maxListings > 0 && s.served >= s.maxListings
}

// Close tears down the browser context.
func (s *Session) Close() {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

// SessionFactory builds browser sessions with rotated identities.
type SessionFactory struct {
	headless    bool
	maxListings int

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSessionFactory configures session creation. maxListings <= 0 disables
// the lifetime limit.
func NewSessionFactory(headless bool, maxListings int, seed int64) *SessionFactory {
	return &SessionFactory{
		headless:    headless,
		maxListings: maxListings,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (f *SessionFactory) pickUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return userAgents[f.rnd.Intn(len(userAgents))]
}

// New starts a fresh browser context with its own allocator, cookies and
// user agent. The caller owns the returned session exclusively.
func (f *SessionFactory) New(parent context.Context) (*Session, error) {
	ua := f.pickUserAgent()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1366, 768),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Override the agent at the protocol level as well; some defenses probe
	// it through JS where the launch flag alone is not enough.
	err := chromedp.Run(browserCtx,
		network.Enable(),
		emulation.SetUserAgentOverride(ua).WithAcceptLanguage("es-PE,es;q=0.9"),
	)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser session: %w", err)
	}

	return &Session{
		driver:        &chromedpDriver{ctx: browserCtx},
		userAgent:     ua,
		maxListings:   f.maxListings,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}
