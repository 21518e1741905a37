package matching

import (
	"strings"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

// SponsorshipSignal classifies what a posting says about visa sponsorship.
type SponsorshipSignal int

const (
	SponsorshipUnknown SponsorshipSignal = iota
	SponsorshipOffered
	SponsorshipExcluded
)

// Negative phrases are checked first: adverts that rule sponsorship out often
// still contain the word "sponsorship" in otherwise positive-looking forms.
var sponsorshipNegativePhrases = []string{
	"no sponsorship",
	"not able to sponsor",
	"unable to sponsor",
	"cannot sponsor",
	"can not sponsor",
	"sponsorship is not available",
	"sponsorship not available",
	"without sponsorship",
	"unable to provide sponsorship",
	"does not hold a sponsor licence",
	"existing right to work",
}

var sponsorshipPositivePhrases = []string{
	"sponsorship available",
	"sponsorship is available",
	"visa sponsorship available",
	"certificate of sponsorship",
	"we can sponsor",
	"can offer sponsorship",
	"sponsorship offered",
	"happy to sponsor",
	"skilled worker visa",
}

// ClassifySponsorship inspects the posting text for sponsorship language.
func ClassifySponsorship(text string) SponsorshipSignal {
	lowered := strings.ToLower(text)

	for _, phrase := range sponsorshipNegativePhrases {
		if strings.Contains(lowered, phrase) {
			return SponsorshipExcluded
		}
	}
	for _, phrase := range sponsorshipPositivePhrases {
		if strings.Contains(lowered, phrase) {
			return SponsorshipOffered
		}
	}
	return SponsorshipUnknown
}

type sponsorshipCheck struct{}

func (sponsorshipCheck) Name() string { return "sponsorship" }

// Apply excludes sponsorship-requiring candidates from postings that rule
// sponsorship out. Postings with no sponsorship signal are included but
// flagged for confirmation rather than silently accepted or rejected.
func (sponsorshipCheck) Apply(c *candidate.Profile, p *posting.JobPosting) Verdict {
	if !c.RequiresSponsorship {
		return Verdict{}
	}

	switch ClassifySponsorship(p.Title + " " + p.Description) {
	case SponsorshipExcluded:
		return Verdict{Excluded: true, Reason: "posting excludes visa sponsorship"}
	case SponsorshipOffered:
		return Verdict{Reason: "posting offers visa sponsorship"}
	default:
		return Verdict{
			NeedsConfirmation: true,
			Reason:            "sponsorship availability unknown, needs confirmation",
		}
	}
}
