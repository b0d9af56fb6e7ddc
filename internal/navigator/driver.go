package navigator

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Driver is the minimal browser surface the state machine needs. The
// production implementation wraps chromedp; tests use a fake so transitions
// and failure classification run without a browser.
type Driver interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Click clicks the first visible node matching the CSS selector.
	Click(ctx context.Context, selector string) error
	// ScrollBy scrolls the page vertically by dy pixels (negative is up).
	ScrollBy(ctx context.Context, dy int) error
	// PageHeight returns the current document scroll height.
	PageHeight(ctx context.Context) (int, error)
	// HTML returns the full rendered document.
	HTML(ctx context.Context) (string, error)
}

type chromedpDriver struct {
	ctx context.Context
}

// run executes actions on the session's browser context while honoring the
// caller's deadline.
func (d *chromedpDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := d.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (d *chromedpDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *chromedpDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (d *chromedpDriver) ScrollBy(ctx context.Context, dy int) error {
	return d.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", dy), nil))
}

func (d *chromedpDriver) PageHeight(ctx context.Context) (int, error) {
	var height int
	err := d.run(ctx, chromedp.Evaluate("document.body ? document.body.scrollHeight : 0", &height))
	return height, err
}

func (d *chromedpDriver) HTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}
