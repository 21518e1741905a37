package submission

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// confirmationSelectors are tried in order against the post-submit page.
var confirmationSelectors = []string{
	`#confirmation_reference`,
	`.confirmation-reference`,
	`.application-reference`,
}

// referenceRe matches the portal's reference formats, e.g. AR-2024-001234
// or APP-7F3K92.
var referenceRe = regexp.MustCompile(`\b(?:AR|APP|REF)-[A-Z0-9][A-Z0-9-]{3,}\b`)

// ExtractConfirmation pulls the confirmation reference out of the post-submit
// page. A page with no recognisable reference is ambiguous completion, never
// success.
func ExtractConfirmation(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ErrAmbiguousCompletion
	}

	for _, selector := range confirmationSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if ref := referenceRe.FindString(text); ref != "" {
			return ref, nil
		}
		return text, nil
	}

	// Fall back to scanning the page body for a reference-shaped token.
	if ref := referenceRe.FindString(doc.Find("body").Text()); ref != "" {
		return ref, nil
	}
	return "", ErrAmbiguousCompletion
}
