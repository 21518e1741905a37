// Package generation produces the tailored supporting statement for one
// (candidate, posting) pair and diversifies repeated submissions to the same
// posting so that concurrently generated applications remain distinguishable.
package generation

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
	"github.com/applymill/applymill/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const postingExcerptLimit = 4000

// Config bounds the generated content and the quality gate.
type Config struct {
	WordCountMin     int
	WordCountMax     int
	QualityThreshold int
}

// DefaultConfig matches the portal's expectations for supporting statements.
func DefaultConfig() Config {
	return Config{
		WordCountMin:     1000,
		WordCountMax:     1500,
		QualityThreshold: 60,
	}
}

// GeneratedContent is the engine's output for one application.
type GeneratedContent struct {
	Text        string
	WordCount   int
	Tier        Tier
	Model       string
	Score       int
	GeneratedAt time.Time
}

// Engine drives prompt construction, the model call, scrubbing,
// diversification and the quality gate.
type Engine struct {
	generator ContentGenerator
	cfg       Config
	logger    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an Engine around the given generator.
func NewEngine(generator ContentGenerator, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WordCountMin == 0 && cfg.WordCountMax == 0 {
		defaults := DefaultConfig()
		cfg.WordCountMin, cfg.WordCountMax = defaults.WordCountMin, defaults.WordCountMax
	}
	if cfg.QualityThreshold == 0 {
		cfg.QualityThreshold = DefaultConfig().QualityThreshold
	}

	return &Engine{
		generator: generator,
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate produces a supporting statement for the pair. priorSubmissions is
// the committed count of applications already submitted to this posting; it
// alone selects the variation tier. Content below the quality threshold is
// regenerated once before a QualityGateError is returned.
func (e *Engine) Generate(ctx context.Context, c *candidate.Profile, p *posting.JobPosting, priorSubmissions int) (*GeneratedContent, error) {
	tier := TierFor(priorSubmissions)

	content, report, err := e.generateOnce(ctx, c, p, tier)
	if err != nil {
		return nil, err
	}

	if report.Score < e.cfg.QualityThreshold {
		e.logger.Info("content below quality threshold, regenerating",
			zap.String("posting_id", p.ID),
			zap.Int("score", report.Score),
			zap.Strings("reasons", report.Reasons),
		)

		content, report, err = e.generateOnce(ctx, c, p, tier)
		if err != nil {
			return nil, err
		}
		if report.Score < e.cfg.QualityThreshold {
			return nil, &QualityGateError{
				Score:     report.Score,
				Threshold: e.cfg.QualityThreshold,
				Reasons:   report.Reasons,
			}
		}
	}

	content.Score = report.Score
	return content, nil
}

func (e *Engine) generateOnce(ctx context.Context, c *candidate.Profile, p *posting.JobPosting, tier Tier) (*GeneratedContent, QualityReport, error) {
	rng := e.callRNG()
	prompt := e.buildPrompt(c, p, tier, rng)

	raw, err := e.generator.GenerateContent(ctx, prompt, tier.Temperature())
	if err != nil {
		return nil, QualityReport{}, &GenerationError{Model: e.generator.Model(), Err: err}
	}

	text := Diversify(Scrub(raw), tier, rng)

	content := &GeneratedContent{
		Text:        text,
		WordCount:   countWords(text),
		Tier:        tier,
		Model:       e.generator.Model(),
		GeneratedAt: time.Now().UTC(),
	}

	report := ScoreContent(text, p, c.Preferences.Keywords, e.cfg.WordCountMin, e.cfg.WordCountMax)

	e.logger.Debug("generated supporting statement",
		zap.String("posting_id", p.ID),
		zap.String("tier", tier.String()),
		zap.Int("words", content.WordCount),
		zap.Int("score", report.Score),
	)

	return content, report, nil
}

// callRNG hands out a per-call rng seeded from the shared one, so concurrent
// generations never interleave on a single source and repeat calls at the
// same tier diverge.
func (e *Engine) callRNG() *rand.Rand {
	e.mu.Lock()
	seed := e.rng.Int63()
	e.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (e *Engine) buildPrompt(c *candidate.Profile, p *posting.JobPosting, tier Tier, rng *rand.Rand) string {
	directives := tier.Directives(rng)
	var directiveList strings.Builder
	for _, directive := range directives {
		directiveList.WriteString("- ")
		directiveList.WriteString(directive)
		directiveList.WriteString("\n")
	}

	prompt := promptTemplate
	prompt = strings.ReplaceAll(prompt, "{{WORD_MIN}}", fmt.Sprint(e.cfg.WordCountMin))
	prompt = strings.ReplaceAll(prompt, "{{WORD_MAX}}", fmt.Sprint(e.cfg.WordCountMax))
	prompt = strings.ReplaceAll(prompt, "{{VARIATION_KEY}}", fmt.Sprintf("%08x", rng.Uint32()))
	prompt = strings.ReplaceAll(prompt, "{{DIRECTIVES}}", strings.TrimRight(directiveList.String(), "\n"))
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATE_PROFILE}}", summarizeCandidate(c))
	prompt = strings.ReplaceAll(prompt, "{{POSTING}}", excerptPosting(p))
	return prompt
}

// summarizeCandidate renders the profile for the prompt. Contact fields
// (phone, email, address) are deliberately withheld.
func summarizeCandidate(c *candidate.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", c.FullName())

	if len(c.Qualifications) > 0 {
		b.WriteString("Qualifications:\n")
		for _, q := range c.Qualifications {
			fmt.Fprintf(&b, "- %s, %s", q.Title, q.Institution)
			if q.Grade != "" {
				fmt.Fprintf(&b, " (%s)", q.Grade)
			}
			if q.Year != 0 {
				fmt.Fprintf(&b, ", %d", q.Year)
			}
			b.WriteString("\n")
		}
	}

	if len(c.Employment) > 0 {
		b.WriteString("Employment history:\n")
		for _, e := range c.Employment {
			fmt.Fprintf(&b, "- %s at %s", e.Title, e.Employer)
			if e.Start != "" {
				fmt.Fprintf(&b, " (%s to %s)", e.Start, orPresent(e.End))
			}
			if e.Duties != "" {
				fmt.Fprintf(&b, ": %s", e.Duties)
			}
			b.WriteString("\n")
		}
	}

	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(c.Skills, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func excerptPosting(p *posting.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\n", p.Title)
	fmt.Fprintf(&b, "Organization: %s\n", p.Organization)
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	if p.Band != "" {
		fmt.Fprintf(&b, "Band: %s\n", p.Band)
	}
	fmt.Fprintf(&b, "Description: %s", utils.TruncateForLog(p.Description, postingExcerptLimit))
	return b.String()
}

func orPresent(end string) string {
	if end == "" {
		return "present"
	}
	return end
}
