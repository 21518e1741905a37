package posting

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	remoteRe = regexp.MustCompile(`(?i)\b(fully remote|remote[\s-]?(first|working|only)?|work from home|home[\s-]?based)\b`)
	hybridRe = regexp.MustCompile(`(?i)\bhybrid\b`)
	onsiteRe = regexp.MustCompile(`(?i)\b(on[\s-]?site|office[\s-]?based|in[\s-]?person)\b`)

	salaryRangeRe  = regexp.MustCompile(`£\s*([\d,]+)\s*(?:-|to|–)\s*£?\s*([\d,]+)`)
	salarySingleRe = regexp.MustCompile(`£\s*([\d,]+)`)
	bandRe         = regexp.MustCompile(`(?i)\b(?:afc\s+)?band\s+(\d{1,2}[a-d]?)\b`)
)

// InferWorkMode classifies free text into a work mode. Hybrid wins over
// remote because hybrid adverts routinely mention remote days. Absence of any
// signal yields WorkModeUnknown, which downstream matching treats as
// inclusive.
func InferWorkMode(text string) WorkMode {
	switch {
	case hybridRe.MatchString(text):
		return WorkModeHybrid
	case remoteRe.MatchString(text):
		return WorkModeRemote
	case onsiteRe.MatchString(text):
		return WorkModeOnsite
	default:
		return WorkModeUnknown
	}
}

// ParseSalaryRange extracts annual salary bounds from free text. A single
// figure is treated as both bounds. Returns zeros when no figure is present.
func ParseSalaryRange(text string) (min, max int) {
	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1]), parseAmount(m[2])
	}
	if m := salarySingleRe.FindStringSubmatch(text); m != nil {
		amount := parseAmount(m[1])
		return amount, amount
	}
	return 0, 0
}

// ParseBand extracts a declared pay band such as "Band 4" from free text.
func ParseBand(text string) string {
	m := bandRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "Band " + strings.ToLower(m[1])
}

func parseAmount(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	amount, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return amount
}
