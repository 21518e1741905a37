package submission

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/vault"
)

// BrowserSubmitter runs each attempt in a fresh headless browser tab, so no
// portal session or cookie survives across candidates.
type BrowserSubmitter struct {
	cfg           Config
	actionTimeout time.Duration
	logger        *zap.Logger
}

// NewBrowserSubmitter creates a BrowserSubmitter.
func NewBrowserSubmitter(cfg Config, actionTimeout time.Duration, logger *zap.Logger) *BrowserSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserSubmitter{cfg: cfg, actionTimeout: actionTimeout, logger: logger}
}

// Submit launches a tab, drives the form and tears the tab down.
func (b *BrowserSubmitter) Submit(ctx context.Context, data *FormData, cred vault.Credential) (*Result, error) {
	page, err := NewBrowserPage(ctx, b.actionTimeout)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	return NewSubmitter(page, b.cfg, b.logger).Submit(ctx, data, cred)
}
