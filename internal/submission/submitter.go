package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/utils"
	"github.com/applymill/applymill/internal/vault"
)

// Config bounds one submission attempt.
type Config struct {
	PortalURL       string
	SectionAttempts int
	SectionDelay    time.Duration
}

// DefaultConfig returns the per-section retry bounds used in production.
func DefaultConfig(portalURL string) Config {
	return Config{
		PortalURL:       portalURL,
		SectionAttempts: 3,
		SectionDelay:    2 * time.Second,
	}
}

// Result is a completed submission attempt.
type Result struct {
	ConfirmationRef   string
	CompletedSections []string
}

// Submitter drives one application through the portal form. It holds no
// state between attempts; the credential is borrowed from the vault by the
// caller and never retained here.
type Submitter struct {
	page   Page
	cfg    Config
	logger *zap.Logger
}

// NewSubmitter wraps a page. The caller owns the page's lifecycle.
func NewSubmitter(page Page, cfg Config, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SectionAttempts < 1 {
		cfg.SectionAttempts = 1
	}
	return &Submitter{page: page, cfg: cfg, logger: logger}
}

// Submit logs in and walks the fixed section sequence to the confirmation
// page. Cancellation is honored between sections, never mid-section, so the
// portal is never left with a half-saved section.
func (s *Submitter) Submit(ctx context.Context, data *FormData, cred vault.Credential) (*Result, error) {
	if err := s.login(ctx, cred); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, section := range Sections() {
		// The only cancellation point: between sections.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.completeSection(ctx, section, data); err != nil {
			return nil, err
		}
		result.CompletedSections = append(result.CompletedSections, section.Name)

		s.logger.Debug("section saved",
			zap.String("section", section.Name),
			zap.String("posting_id", data.Posting.ID),
		)
	}

	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmation page: %w", err)
	}

	reference, err := ExtractConfirmation(html)
	if err != nil {
		return nil, err
	}
	result.ConfirmationRef = reference

	s.logger.Info("application submitted",
		zap.String("posting_id", data.Posting.ID),
		zap.String("confirmation_ref", reference),
	)
	return result, nil
}

// login authenticates once per attempt. The credential's plaintext lives in
// the vault's scoped callback; nothing is copied out of it here.
func (s *Submitter) login(ctx context.Context, cred vault.Credential) error {
	if err := s.page.Navigate(ctx, s.cfg.PortalURL+"/login"); err != nil {
		return fmt.Errorf("failed to open portal login: %w", err)
	}
	if err := s.page.Fill(ctx, `#username`, cred.Username); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := s.page.Fill(ctx, `#password`, string(cred.Password)); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := s.page.Click(ctx, `#login_submit`); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	if challenged, err := s.page.Exists(ctx, secondFactorSelector); err == nil && challenged {
		return &SecondFactorError{Section: "Login"}
	}

	if err := s.page.WaitVisible(ctx, `#application_nav`); err != nil {
		return fmt.Errorf("%w: portal did not reach the application page", ErrLoginFailed)
	}
	return nil
}

// completeSection fills and saves one section, retrying validation failures
// up to the configured bound. Drift and second-factor challenges end the
// attempt immediately.
func (s *Submitter) completeSection(ctx context.Context, section Section, data *FormData) error {
	retry := utils.RetryConfig{
		MaxAttempts:  s.cfg.SectionAttempts,
		InitialDelay: s.cfg.SectionDelay,
		Retryable:    Retryable,
	}

	err := utils.Retry(ctx, retry, func(ctx context.Context) error {
		return s.attemptSection(ctx, section, data)
	})
	if err == nil {
		return nil
	}

	// Exhausting the retry bound keeps the section name on the failure.
	if errors.Is(err, utils.ErrAttemptsExhausted) {
		var sectionErr *SectionValidationError
		if errors.As(err, &sectionErr) {
			return sectionErr
		}
	}
	return err
}

func (s *Submitter) attemptSection(ctx context.Context, section Section, data *FormData) error {
	if err := s.page.WaitVisible(ctx, section.FormSelector); err != nil {
		return driftOr(err, section.Name, section.FormSelector)
	}

	if section.Fill != nil {
		if err := section.Fill(ctx, s.page, data); err != nil {
			return driftOr(err, section.Name, fmt.Sprint(err))
		}
	}

	if err := s.page.Click(ctx, section.SaveSelector); err != nil {
		return driftOr(err, section.Name, section.SaveSelector)
	}

	if challenged, err := s.page.Exists(ctx, secondFactorSelector); err == nil && challenged {
		return &SecondFactorError{Section: section.Name}
	}

	if rejected, err := s.page.Exists(ctx, validationErrorSelector); err == nil && rejected {
		message, _ := s.page.Text(ctx, validationErrorSelector)
		if message == "" {
			message = "portal rejected the section"
		}
		return &SectionValidationError{Section: section.Name, Err: errors.New(message)}
	}
	return nil
}

// driftOr keeps context errors classified as cancellation, everything else
// as layout drift.
func driftOr(err error, section, selector string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &StructuralDriftError{Section: section, Selector: selector}
}
