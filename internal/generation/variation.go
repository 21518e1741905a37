package generation

import (
	"math/rand"
	"regexp"
	"strings"
)

// Tier is the discrete escalation level controlling how aggressively the
// generated text is diversified across applications to the same posting.
// Tier selection is a pure function of the committed prior-submission count
// and is monotonically non-decreasing in it.
type Tier int

const (
	// Tier0 is the baseline for the first applicant to a posting.
	Tier0 Tier = iota
	// Tier1 raises generation randomness and enables synonym substitution.
	Tier1
	// Tier2 additionally varies paragraph ordering.
	Tier2
	// Tier3 additionally varies emphasis and supporting examples.
	Tier3
)

// TierFor maps the number of prior submitted applications to a posting onto
// a variation tier.
func TierFor(priorSubmissions int) Tier {
	switch {
	case priorSubmissions <= 0:
		return Tier0
	case priorSubmissions <= 5:
		return Tier1
	case priorSubmissions <= 10:
		return Tier2
	default:
		return Tier3
	}
}

// Temperature returns the sampling temperature requested from the model.
func (t Tier) Temperature() float32 {
	switch t {
	case Tier0:
		return 0.3
	case Tier1:
		return 0.6
	case Tier2:
		return 0.85
	default:
		return 1.0
	}
}

func (t Tier) String() string {
	switch t {
	case Tier0:
		return "tier0"
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	default:
		return "tier3"
	}
}

// emphasisAngles are rotated into the prompt at Tier3 so concurrent
// applications stress different supporting examples.
var emphasisAngles = []string{
	"emphasise measurable outcomes from previous roles",
	"emphasise collaboration with clinical and administrative colleagues",
	"emphasise adaptability and learning new systems quickly",
	"emphasise attention to detail and data accuracy",
	"emphasise commitment to patient experience and service standards",
}

// Directives returns the prompt directives for the tier. The rng picks the
// emphasis angle at Tier3; lower tiers are deterministic at the prompt level.
func (t Tier) Directives(rng *rand.Rand) []string {
	directives := []string{
		"write in the first person with a professional, warm register",
	}

	if t >= Tier1 {
		directives = append(directives, "avoid stock phrasing; prefer varied vocabulary")
	}
	if t >= Tier2 {
		directives = append(directives, "order the supporting points in an unconventional but coherent sequence")
	}
	if t >= Tier3 {
		directives = append(directives, emphasisAngles[rng.Intn(len(emphasisAngles))])
	}

	return directives
}

// synonymTable maps common supporting-statement terms to interchangeable
// alternatives. Substitution keeps meaning while making concurrently
// generated statements lexically distinguishable.
var synonymTable = map[string][]string{
	"experienced":    {"seasoned", "accomplished", "practised"},
	"dedicated":      {"committed", "devoted", "conscientious"},
	"improve":        {"enhance", "strengthen", "raise"},
	"support":        {"assist", "help", "aid"},
	"ensure":         {"guarantee", "make certain", "see to it"},
	"role":           {"position", "post"},
	"skills":         {"abilities", "capabilities", "competencies"},
	"responsibility": {"duty", "remit", "accountability"},
	"organisation":   {"organization", "service", "institution"},
	"opportunity":    {"opening", "chance", "prospect"},
	"contribute":     {"add value", "bring value", "play a part"},
	"efficient":      {"effective", "productive", "streamlined"},
	"communication":  {"interpersonal", "liaison", "correspondence"},
	"team":           {"department", "unit", "group"},
	"patients":       {"service users", "people in our care"},
	"accurate":       {"precise", "exact", "meticulous"},
	"knowledge":      {"understanding", "familiarity", "grounding"},
	"demonstrated":   {"shown", "evidenced", "proven"},
}

// phraseTable holds multi-word terms, handled before tokenization because
// the single-word pass never sees them. Kept as a slice so the substitution
// order is stable for a given seed.
var phraseTable = []struct {
	phrase   string
	synonyms []string
}{
	{"responsible for", []string{"accountable for", "in charge of", "tasked with"}},
	{"track record", []string{"history", "record of delivery"}},
}

var phraseRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(phraseTable))
	for i, entry := range phraseTable {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(entry.phrase) + `\b`)
	}
	return res
}()

var wordRe = regexp.MustCompile(`[A-Za-z']+|[^A-Za-z']+`)

func substitutePhrases(text string, rng *rand.Rand) string {
	for i, entry := range phraseTable {
		synonyms := entry.synonyms
		text = phraseRes[i].ReplaceAllStringFunc(text, func(match string) string {
			if rng.Intn(2) == 0 {
				return match
			}
			replacement := synonyms[rng.Intn(len(synonyms))]
			if isCapitalised(match) {
				replacement = capitalise(replacement)
			}
			return replacement
		})
	}
	return text
}

// substituteSynonyms replaces roughly half of the known terms found in the
// text with rng-selected synonyms, preserving leading capitalisation. Each
// call with a differently seeded rng yields a different rendition.
func substituteSynonyms(text string, rng *rand.Rand) string {
	text = substitutePhrases(text, rng)

	tokens := wordRe.FindAllString(text, -1)
	for i, token := range tokens {
		lowered := strings.ToLower(token)
		synonyms, ok := synonymTable[lowered]
		if !ok || len(synonyms) == 0 {
			continue
		}
		if rng.Intn(2) == 0 {
			continue
		}

		replacement := synonyms[rng.Intn(len(synonyms))]
		if isCapitalised(token) {
			replacement = capitalise(replacement)
		}
		tokens[i] = replacement
	}
	return strings.Join(tokens, "")
}

// shuffleParagraphs reorders the middle paragraphs of the text, keeping the
// opening and closing paragraphs in place so the statement still reads as a
// letter.
func shuffleParagraphs(text string, rng *rand.Rand) string {
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) <= 3 {
		return text
	}

	middle := paragraphs[1 : len(paragraphs)-1]
	rng.Shuffle(len(middle), func(i, j int) {
		middle[i], middle[j] = middle[j], middle[i]
	})

	return strings.Join(paragraphs, "\n\n")
}

// Diversify applies the tier's post-generation variation passes.
func Diversify(text string, tier Tier, rng *rand.Rand) string {
	if tier >= Tier1 {
		text = substituteSynonyms(text, rng)
	}
	if tier >= Tier2 {
		text = shuffleParagraphs(text, rng)
	}
	return text
}

func isCapitalised(word string) bool {
	return word != "" && word[0] >= 'A' && word[0] <= 'Z'
}

func capitalise(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
