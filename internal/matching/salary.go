package matching

import (
	"fmt"
	"strings"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

type salaryCheck struct{}

func (salaryCheck) Name() string { return "salary_band" }

// Apply excludes a posting only on strict non-overlap between declared
// numeric bounds, or on a declared pay band outside the candidate's accepted
// bands. Postings without explicit bounds are retained as "unknown".
func (salaryCheck) Apply(c *candidate.Profile, p *posting.JobPosting) Verdict {
	if verdict := checkBand(c, p); verdict.Excluded {
		return verdict
	}

	candMin, candMax := c.Preferences.SalaryMin, c.Preferences.SalaryMax
	postMin, postMax := p.SalaryMin, p.SalaryMax

	if candMin == 0 && candMax == 0 {
		return Verdict{}
	}
	if postMin == 0 && postMax == 0 {
		return Verdict{}
	}

	// Zero upper bounds are open-ended.
	if candMax == 0 {
		candMax = int(^uint(0) >> 1)
	}
	if postMax == 0 {
		postMax = int(^uint(0) >> 1)
	}

	if postMax < candMin || candMax < postMin {
		return Verdict{
			Excluded: true,
			Reason: fmt.Sprintf("posting salary %d-%d does not overlap preferred range %d-%d",
				p.SalaryMin, p.SalaryMax, c.Preferences.SalaryMin, c.Preferences.SalaryMax),
		}
	}

	return Verdict{}
}

func checkBand(c *candidate.Profile, p *posting.JobPosting) Verdict {
	if len(c.Preferences.Bands) == 0 || p.Band == "" {
		return Verdict{}
	}

	for _, band := range c.Preferences.Bands {
		if strings.EqualFold(strings.TrimSpace(band), p.Band) {
			return Verdict{}
		}
	}

	return Verdict{
		Excluded: true,
		Reason:   fmt.Sprintf("posting band %q outside preferred bands", p.Band),
	}
}
