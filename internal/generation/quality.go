package generation

import (
	"fmt"
	"strings"

	"github.com/applymill/applymill/internal/posting"
)

// Generic filler phrases that mark a statement as templated rather than
// tailored to the posting.
var fillerPhrases = []string{
	"i am a hard worker",
	"i am a team player",
	"i am a fast learner",
	"i am a quick learner",
	"i am a people person",
	"think outside the box",
	"go-getter",
	"self-starter",
	"dynamic individual",
	"i work well under pressure",
}

// QualityReport is the outcome of scoring one piece of generated content.
type QualityReport struct {
	Score   int
	Reasons []string
}

// ScoreContent rates generated text from 0 to 100 against the posting it was
// written for: posting-specific terms present, filler phrases absent, word
// count inside the configured bounds.
func ScoreContent(text string, p *posting.JobPosting, domainKeywords []string, minWords, maxWords int) QualityReport {
	report := QualityReport{Score: 100}
	lowered := strings.ToLower(text)

	if org := strings.TrimSpace(p.Organization); org != "" && !strings.Contains(lowered, strings.ToLower(org)) {
		report.Score -= 20
		report.Reasons = append(report.Reasons, "organization name missing")
	}
	if title := strings.TrimSpace(p.Title); title != "" && !strings.Contains(lowered, strings.ToLower(title)) {
		report.Score -= 20
		report.Reasons = append(report.Reasons, "role title missing")
	}

	if len(domainKeywords) > 0 {
		found := false
		for _, keyword := range domainKeywords {
			if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" && strings.Contains(lowered, keyword) {
				found = true
				break
			}
		}
		if !found {
			report.Score -= 15
			report.Reasons = append(report.Reasons, "no domain keyword present")
		}
	}

	fillerPenalty := 0
	for _, phrase := range fillerPhrases {
		if strings.Contains(lowered, phrase) {
			fillerPenalty += 10
			report.Reasons = append(report.Reasons, fmt.Sprintf("generic filler phrase %q", phrase))
		}
	}
	if fillerPenalty > 30 {
		fillerPenalty = 30
	}
	report.Score -= fillerPenalty

	words := countWords(text)
	if minWords > 0 && words < minWords {
		report.Score -= 25
		report.Reasons = append(report.Reasons, fmt.Sprintf("word count %d below target %d", words, minWords))
	} else if maxWords > 0 && words > maxWords {
		report.Score -= 25
		report.Reasons = append(report.Reasons, fmt.Sprintf("word count %d above target %d", words, maxWords))
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
