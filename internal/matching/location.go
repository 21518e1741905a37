package matching

import (
	"fmt"
	"strings"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

type locationCheck struct{}

func (locationCheck) Name() string { return "location" }

// Apply matches the posting location against the candidate's allow-list, or
// its work mode against the declared acceptable modes. A posting with no
// location or work-mode signal is always included: missing data never
// silently excludes.
func (locationCheck) Apply(c *candidate.Profile, p *posting.JobPosting) Verdict {
	allowedLocations := c.Preferences.Locations
	allowedModes := c.Preferences.WorkModes
	if len(allowedLocations) == 0 && len(allowedModes) == 0 {
		return Verdict{}
	}

	hasLocationSignal := strings.TrimSpace(p.Location) != ""
	hasModeSignal := p.WorkMode != posting.WorkModeUnknown
	if !hasLocationSignal && !hasModeSignal {
		return Verdict{}
	}

	if hasLocationSignal {
		location := strings.ToLower(p.Location)
		for _, allowed := range allowedLocations {
			allowed = strings.ToLower(strings.TrimSpace(allowed))
			if allowed != "" && strings.Contains(location, allowed) {
				return Verdict{Reason: fmt.Sprintf("posting location matches %q", allowed)}
			}
		}
	}

	if hasModeSignal {
		for _, mode := range allowedModes {
			if strings.EqualFold(strings.TrimSpace(mode), string(p.WorkMode)) {
				return Verdict{Reason: fmt.Sprintf("posting work mode %q accepted", p.WorkMode)}
			}
		}
		// Remote postings are location-independent: acceptable whenever
		// the candidate declared no mode restrictions of their own.
		if p.WorkMode == posting.WorkModeRemote && len(allowedModes) == 0 {
			return Verdict{Reason: "remote posting"}
		}
	}

	return Verdict{
		Excluded: true,
		Reason:   fmt.Sprintf("posting location %q outside preferred locations", p.Location),
	}
}
