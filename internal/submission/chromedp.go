package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserPage is the chromedp-backed Page. One BrowserPage owns one headless
// Chrome tab for the duration of a submission attempt.
type BrowserPage struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
}

// NewBrowserPage launches a headless browser tab. Requires Chrome or
// Chromium on the host. actionTimeout bounds each individual interaction.
func NewBrowserPage(ctx context.Context, actionTimeout time.Duration) (*BrowserPage, error) {
	if actionTimeout <= 0 {
		actionTimeout = 30 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	page := &BrowserPage{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
		timeout: actionTimeout,
	}

	// Start the browser eagerly so a missing Chrome binary surfaces here
	// instead of mid-form.
	if err := chromedp.Run(browserCtx); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}
	return page, nil
}

// run executes the actions under the per-action timeout only. The caller's
// ctx is deliberately not consulted here: cancellation takes effect at
// section boundaries in the Submitter, never mid-action.
func (p *BrowserPage) run(_ context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (p *BrowserPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body"))
}

func (p *BrowserPage) WaitVisible(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitVisible(selector))
}

func (p *BrowserPage) Exists(ctx context.Context, selector string) (bool, error) {
	var count int
	err := p.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), &count))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *BrowserPage) Fill(ctx context.Context, selector, value string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector),
		chromedp.Clear(selector),
		chromedp.SendKeys(selector, value),
	)
}

func (p *BrowserPage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.NodeVisible))
}

func (p *BrowserPage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Text(selector, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *BrowserPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Close tears down the tab and the browser process.
func (p *BrowserPage) Close() error {
	for _, cancel := range p.cancels {
		cancel()
	}
	return nil
}
