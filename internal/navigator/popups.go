package navigator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// popupStrategy is one known overlay category and the selector that
// dismisses it. Strategies run in priority order: the cookie wall blocks
// everything else, so it goes first.
type popupStrategy struct {
	name     string
	selector string
}

var popupStrategies = []popupStrategy{
	{name: "cookie_consent", selector: "button#truste-consent-button"},
	{name: "cookie_consent_generic", selector: "button#onetrust-accept-btn-handler"},
	{name: "subscription_later", selector: "button.webpush-swal2-cancel"},
	{name: "satisfaction_survey", selector: "div.ps-pnf-trigger-arrow"},
	{name: "modal_close", selector: "button[class*='close']"},
}

const popupClickTimeout = 2 * time.Second

// dismissPopups tries every known dismissal strategy once. A strategy that
// finds nothing to click is the normal case and not an error; overlays we do
// not recognize are logged and navigation continues.
func (n *Navigator) dismissPopups(ctx context.Context, d Driver) {
	for _, strat := range popupStrategies {
		if ctx.Err() != nil {
			return
		}
		clickCtx, cancel := context.WithTimeout(ctx, popupClickTimeout)
		err := d.Click(clickCtx, strat.selector)
		cancel()
		if err == nil {
			n.logger.Debug("dismissed popup", zap.String("strategy", strat.name))
		}
	}
}
