package matching

import (
	"fmt"
	"strings"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

type exclusionKeywordCheck struct{}

func (exclusionKeywordCheck) Name() string { return "keyword_exclusion" }

// Apply excludes the posting when it contains any of the candidate's
// exclusion keywords, e.g. seniority terms for an entry-level candidate. This
// check runs first and short-circuits the pipeline.
func (exclusionKeywordCheck) Apply(c *candidate.Profile, p *posting.JobPosting) Verdict {
	text := postingText(p)
	for _, keyword := range c.Preferences.ExcludeKeywords {
		if containsKeyword(text, keyword) {
			return Verdict{
				Excluded: true,
				Reason:   fmt.Sprintf("posting contains exclusion keyword %q", keyword),
			}
		}
	}
	return Verdict{}
}

type inclusionKeywordCheck struct{}

func (inclusionKeywordCheck) Name() string { return "keyword_inclusion" }

// Apply requires at least one primary or alternative keyword in the posting.
// Candidates without declared keywords match everything.
func (inclusionKeywordCheck) Apply(c *candidate.Profile, p *posting.JobPosting) Verdict {
	primary := c.Preferences.Keywords
	alternatives := c.Preferences.AltKeywords
	if len(primary) == 0 && len(alternatives) == 0 {
		return Verdict{}
	}

	text := postingText(p)
	for _, keyword := range primary {
		if containsKeyword(text, keyword) {
			return Verdict{Reason: fmt.Sprintf("posting matches keyword %q", keyword)}
		}
	}
	for _, keyword := range alternatives {
		if containsKeyword(text, keyword) {
			return Verdict{Reason: fmt.Sprintf("posting matches alternative keyword %q", keyword)}
		}
	}

	return Verdict{Excluded: true, Reason: "posting matches none of the candidate keywords"}
}

func postingText(p *posting.JobPosting) string {
	return strings.ToLower(p.Title + " " + p.Description)
}

func containsKeyword(loweredText, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	return strings.Contains(loweredText, keyword)
}
