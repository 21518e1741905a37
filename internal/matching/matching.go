// Package matching decides whether a posting is eligible for a candidate.
// Every check is a pure function of its inputs: given the same candidate and
// posting the engine always returns the same result.
package matching

import (
	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

// Verdict is the outcome of a single eligibility check.
type Verdict struct {
	Excluded bool
	// Reason is recorded when the check excludes the posting or flags it
	// for confirmation.
	Reason string
	// NeedsConfirmation marks an inclusive verdict that a human should
	// confirm before submission proceeds unattended.
	NeedsConfirmation bool
}

// Check is a single named eligibility rule applied to a (candidate, posting)
// pair.
type Check interface {
	Name() string
	Apply(c *candidate.Profile, p *posting.JobPosting) Verdict
}

// MatchResult reports the aggregate eligibility decision with the reasons
// behind it. An ineligible result is a normal negative outcome, not an error.
type MatchResult struct {
	Eligible          bool
	Reasons           []string
	NeedsConfirmation bool
}

// Engine runs the eligibility checks in a fixed order. Exclusion checks run
// before inclusion checks and short-circuit the pipeline.
type Engine struct {
	checks []Check
	logger *zap.Logger
}

// NewEngine creates an engine with the default check order: keyword
// exclusions first (short-circuit), then sponsorship, location, keyword
// inclusion and salary/band.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger: logger,
		checks: []Check{
			&exclusionKeywordCheck{},
			&sponsorshipCheck{},
			&locationCheck{},
			&inclusionKeywordCheck{},
			&salaryCheck{},
		},
	}
}

// Match classifies the posting's eligibility for the candidate.
func (e *Engine) Match(c *candidate.Profile, p *posting.JobPosting) MatchResult {
	result := MatchResult{Eligible: true}

	for _, check := range e.checks {
		verdict := check.Apply(c, p)

		if verdict.Excluded {
			e.logger.Debug("posting excluded",
				zap.String("check", check.Name()),
				zap.String("posting_id", p.ID),
				zap.String("reason", verdict.Reason),
			)
			return MatchResult{
				Eligible: false,
				Reasons:  append(result.Reasons, verdict.Reason),
			}
		}

		if verdict.NeedsConfirmation {
			result.NeedsConfirmation = true
		}
		if verdict.Reason != "" {
			result.Reasons = append(result.Reasons, verdict.Reason)
		}
	}

	return result
}
