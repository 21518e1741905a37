// Package scheduler runs the application pipeline: match, generate, submit,
// and settle every record in a terminal state. A bounded worker pool
// processes records concurrently across candidates while submissions for one
// candidate stay serialised.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/applymill/applymill/internal/application"
	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/generation"
	"github.com/applymill/applymill/internal/logger"
	"github.com/applymill/applymill/internal/matching"
	"github.com/applymill/applymill/internal/posting"
	"github.com/applymill/applymill/internal/submission"
	"github.com/applymill/applymill/internal/vault"
)

// ContentEngine generates the supporting statement for one pair.
type ContentEngine interface {
	Generate(ctx context.Context, c *candidate.Profile, p *posting.JobPosting, priorSubmissions int) (*generation.GeneratedContent, error)
}

// FormSubmitter drives one application through the portal.
type FormSubmitter interface {
	Submit(ctx context.Context, data *submission.FormData, cred vault.Credential) (*submission.Result, error)
}

// Notifier reports pipeline outcomes to an operator channel. A nil Notifier
// is valid and silently ignored.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config bounds the worker pool.
type Config struct {
	Workers int
}

// Job is one record scheduled for processing, with the profiles it needs.
type Job struct {
	Record    *application.Record
	Candidate *candidate.Profile
	Posting   *posting.JobPosting
}

// Scheduler wires the pipeline components together.
type Scheduler struct {
	store     application.Store
	vault     *vault.Vault
	matcher   *matching.Engine
	engine    ContentEngine
	submitter FormSubmitter
	counter   Counter
	notifier  Notifier
	locks     *candidateLocks
	cfg       Config
	logger    *zap.Logger
}

// New creates a Scheduler. notifier may be nil.
func New(store application.Store, v *vault.Vault, matcher *matching.Engine, engine ContentEngine,
	submitter FormSubmitter, counter Counter, notifier Notifier, cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	return &Scheduler{
		store:     store,
		vault:     v,
		matcher:   matcher,
		engine:    engine,
		submitter: submitter,
		counter:   counter,
		notifier:  notifier,
		locks:     newCandidateLocks(),
		cfg:       cfg,
		logger:    log,
	}
}

// Plan matches every candidate against every posting and creates a record
// for each eligible pair. A pair with an existing record still in matched
// state, left over from a plan-only run, is resumed; a pair already past
// matched is in flight elsewhere and skipped.
func (s *Scheduler) Plan(ctx context.Context, candidates []*candidate.Profile, postings []*posting.JobPosting) ([]Job, error) {
	var jobs []Job

	for _, c := range candidates {
		if c.Archived {
			continue
		}
		for _, p := range postings {
			result := s.matcher.Match(c, p)
			if !result.Eligible {
				s.logger.Debug("posting not eligible",
					zap.String(logger.FieldCandidate, c.ID.String()),
					zap.String(logger.FieldPosting, p.ID),
					zap.Strings("reasons", result.Reasons),
				)
				continue
			}

			record := application.NewRecord(c.ID, p.ID)
			if err := s.store.Create(ctx, record); err != nil {
				if !errors.Is(err, application.ErrDuplicateActive) {
					return nil, fmt.Errorf("failed to create application record: %w", err)
				}
				existing, lookupErr := s.store.GetActive(ctx, c.ID, p.ID)
				if lookupErr != nil || existing.State != application.StateMatched {
					continue
				}
				record = existing
			}

			if result.NeedsConfirmation {
				s.logger.Info("match needs manual confirmation",
					zap.String(logger.FieldCandidate, c.ID.String()),
					zap.String(logger.FieldPosting, p.ID),
					zap.Strings("reasons", result.Reasons),
				)
			}

			jobs = append(jobs, Job{Record: record, Candidate: c, Posting: p})
		}
	}
	return jobs, nil
}

// Run processes the jobs on a bounded worker pool. Individual job failures
// settle into the record's terminal state and do not stop the pool; only a
// cancelled context or a store failure aborts the run.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) error {
	group, groupCtx := errgroup.WithContext(ctx)
	slots := semaphore.NewWeighted(int64(s.cfg.Workers))

	for _, job := range jobs {
		job := job
		if err := slots.Acquire(groupCtx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer slots.Release(1)
			return s.process(groupCtx, job)
		})
	}
	return group.Wait()
}

func (s *Scheduler) process(ctx context.Context, job Job) error {
	record := job.Record
	fields := logger.ApplicationFields(job.Candidate.ID.String(), job.Posting.ID, record.ID.String())

	prior, err := s.counter.Get(ctx, job.Posting.ID)
	if err != nil {
		return fmt.Errorf("failed to read posting counter: %w", err)
	}

	content, err := s.engine.Generate(ctx, job.Candidate, job.Posting, prior)
	if err != nil {
		s.logger.Warn("generation failed, escalating to review", append(fields, zap.Error(err))...)
		return s.settle(ctx, record, application.StateNeedsReview, err.Error())
	}

	if err := record.AttachContent(content.Text, content.WordCount, int(content.Tier), content.Model, content.Score); err != nil {
		return err
	}
	if err := record.Transition(application.StateContentGenerated, ""); err != nil {
		return err
	}
	if err := s.store.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to persist generated content: %w", err)
	}

	// One portal session per candidate at a time.
	release := s.locks.Acquire(job.Candidate.ID)
	defer release()

	if err := record.Transition(application.StateSubmitting, ""); err != nil {
		return err
	}
	if err := s.store.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to persist submitting state: %w", err)
	}

	data := &submission.FormData{
		Profile:   job.Candidate,
		Posting:   job.Posting,
		Statement: content.Text,
	}

	var result *submission.Result
	err = s.vault.WithCredential(ctx, job.Candidate.ID, func(cred vault.Credential) error {
		var submitErr error
		result, submitErr = s.submitter.Submit(ctx, data, cred)
		return submitErr
	})

	return s.classify(ctx, record, result, err, fields)
}

// classify settles the record according to the submission outcome.
func (s *Scheduler) classify(ctx context.Context, record *application.Record, result *submission.Result, err error, fields []zap.Field) error {
	switch {
	case err == nil:
		if err := record.Confirm(result.ConfirmationRef); err != nil {
			return err
		}
		if err := s.store.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to persist submitted state: %w", err)
		}
		if _, err := s.counter.IncrementAndGet(ctx, record.PostingID); err != nil {
			return fmt.Errorf("failed to increment posting counter: %w", err)
		}
		s.logger.Info("application submitted", append(fields, zap.String("confirmation_ref", result.ConfirmationRef))...)
		s.notify(ctx, fmt.Sprintf("Submitted %s: %s", record.PostingID, result.ConfirmationRef))
		return nil

	case errors.Is(err, context.Canceled):
		return s.settle(ctx, record, application.StateFailed, "Cancelled")

	case errors.Is(err, vault.ErrNotAuthorized):
		s.logger.Warn("submission refused", append(fields, zap.Error(err))...)
		return s.settle(ctx, record, application.StateFailed, err.Error())

	case errors.Is(err, submission.ErrAmbiguousCompletion):
		return s.settle(ctx, record, application.StateNeedsReview, err.Error())

	default:
		var secondFactor *submission.SecondFactorError
		if errors.As(err, &secondFactor) {
			return s.settle(ctx, record, application.StateNeedsReview, err.Error())
		}

		var drift *submission.StructuralDriftError
		if errors.As(err, &drift) {
			// Drift hits every in-flight submission for the portal.
			s.logger.Error("portal layout drift detected", append(fields, zap.Error(err))...)
			s.notify(ctx, "Portal layout drift: "+err.Error())
		}
		return s.settle(ctx, record, application.StateFailed, err.Error())
	}
}

func (s *Scheduler) settle(ctx context.Context, record *application.Record, state application.State, reason string) error {
	if err := record.Transition(state, reason); err != nil {
		return err
	}
	// The terminal state must land even when the run is being cancelled.
	if err := s.store.Update(context.WithoutCancel(ctx), record); err != nil {
		return fmt.Errorf("failed to persist terminal state: %w", err)
	}
	if state == application.StateNeedsReview {
		s.notify(ctx, fmt.Sprintf("Needs review %s/%s: %s", record.CandidateID, record.PostingID, reason))
	}
	return nil
}

func (s *Scheduler) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.Warn("failed to send notification", zap.Error(err), zap.String("message", strings.TrimSpace(message)))
	}
}
