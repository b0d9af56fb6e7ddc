package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

// fakeDriver records every action and serves canned responses so the state
// machine runs without a browser.
type fakeDriver struct {
	mu        sync.Mutex
	navigated []string
	clicked   []string
	scrolled  []int

	heights []int // successive PageHeight answers; last one repeats
	calls   int

	html     string
	navErr   error
	htmlErr  error
	clickErr error
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.navErr != nil {
		return d.navErr
	}
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicked = append(d.clicked, selector)
	if d.clickErr != nil {
		return d.clickErr
	}
	return nil
}

func (d *fakeDriver) ScrollBy(ctx context.Context, dy int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolled = append(d.scrolled, dy)
	return nil
}

func (d *fakeDriver) PageHeight(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.heights) == 0 {
		return 1000, nil
	}
	i := d.calls
	if i >= len(d.heights) {
		i = len(d.heights) - 1
	}
	d.calls++
	return d.heights[i], nil
}

func (d *fakeDriver) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.htmlErr != nil {
		return "", d.htmlErr
	}
	return d.html, nil
}

const listingHTML = `<html><body><h1>Toyota Yaris 2018</h1><p>US$ 12,500</p></body></html>`

func fastNav(t *testing.T) *Navigator {
	t.Helper()
	return New(zap.NewNop(), Options{
		StepTimeout:     time.Second,
		SettleDelay:     time.Millisecond,
		MaxScrollRounds: 4,
	}, 1)
}

func TestFetchListingWalksMultiStepPath(t *testing.T) {
	listing := "https://neoauto.com/auto/seminuevo/toyota-yaris-2018-1234567"
	d := &fakeDriver{html: listingHTML, heights: []int{1000, 1400, 1400}}

	html, err := fastNav(t).FetchListing(context.Background(), d, listing)
	require.NoError(t, err)
	assert.Equal(t, listingHTML, html)

	// A humanized route: home page first, listing last, never a single jump.
	require.GreaterOrEqual(t, len(d.navigated), 3)
	assert.Equal(t, "https://neoauto.com/", d.navigated[0])
	assert.Equal(t, listing, d.navigated[len(d.navigated)-1])

	// The listing page got scroll cycles and the settle loop.
	assert.NotEmpty(t, d.scrolled)
	down := 0
	for _, dy := range d.scrolled {
		if dy > 0 {
			down++
		}
	}
	assert.GreaterOrEqual(t, down, 3)

	// Every popup strategy was attempted once.
	assert.Len(t, d.clicked, len(popupStrategies))
}

func TestFetchListingScrollSettleStopsOnStableHeight(t *testing.T) {
	d := &fakeDriver{html: listingHTML, heights: []int{1000, 1000}}

	_, err := fastNav(t).FetchListing(context.Background(),
		d, "https://neoauto.com/auto/usado/kia-rio-2019-5")
	require.NoError(t, err)

	// Height was stable on the second probe, so the settle loop stopped well
	// under the round ceiling.
	assert.LessOrEqual(t, d.calls, 2)
}

func TestFetchListingBlockedPage(t *testing.T) {
	d := &fakeDriver{html: `<html><body>Verifica que eres humano (captcha)</body></html>`}

	_, err := fastNav(t).FetchListing(context.Background(),
		d, "https://neoauto.com/auto/usado/kia-rio-2019-5")
	require.Error(t, err)
	assert.Equal(t, domain.FailBlocked, domain.FailKindOf(err))
}

func TestFetchListingNavigateErrorIsTimeout(t *testing.T) {
	d := &fakeDriver{navErr: errors.New("net::ERR_CONNECTION_RESET")}

	_, err := fastNav(t).FetchListing(context.Background(),
		d, "https://neoauto.com/auto/usado/kia-rio-2019-5")
	require.Error(t, err)
	assert.Equal(t, domain.FailTimeout, domain.FailKindOf(err))
	assert.True(t, domain.FailKindOf(err).Retryable())
}

func TestFetchListingCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDriver{html: listingHTML}

	_, err := fastNav(t).FetchListing(ctx, d, "https://neoauto.com/auto/usado/kia-rio-2019-5")
	require.Error(t, err)
	assert.Equal(t, domain.FailTimeout, domain.FailKindOf(err))
}

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want domain.FailKind
	}{
		{"captcha wall", "<html><body>please solve this CAPTCHA</body></html>", domain.FailBlocked},
		{"cloudflare", "<html><body>Checking your browser - Cloudflare</body></html>", domain.FailBlocked},
		{"listing removed", "<html><body><h1>Anuncio no disponible</h1></body></html>", domain.FailNotFound},
		{"404", "<html><body><h1>Error 404</h1></body></html>", domain.FailNotFound},
		{"empty document", "   ", domain.FailStructureChanged},
		{"missing heading", "<html><body><div>contenido</div></body></html>", domain.FailStructureChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyPage(tt.html)
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.FailKindOf(err))
		})
	}

	assert.NoError(t, ClassifyPage(listingHTML))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "init", StateInit.String())
	assert.Equal(t, "content_ready", StateContentReady.String())
	assert.Equal(t, "unknown", State(99).String())
}
