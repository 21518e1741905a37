package generation

import "regexp"

// Contact-detail patterns removed from generated text before it leaves the
// engine. The prompt already withholds raw contact fields; scrubbing is a
// second line of defence against the model echoing details it inferred.
var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// UK mobile and landline formats, with optional +44 prefix.
	phoneRe = regexp.MustCompile(`(?:\+44\s?7\d{3}|\(?07\d{3}\)?)\s?\d{3}\s?\d{3}\b|(?:\+44\s?\d{2,4}|\(?0\d{2,4}\)?)\s?\d{3,4}\s?\d{3,4}\b`)
	// National insurance numbers: two letters, six digits, one letter.
	niRe = regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Za-ceghj-pr-tw-z]{2}\s?\d{2}\s?\d{2}\s?\d{2}\s?[A-DFMa-dfm]\b`)
	// UK postcodes.
	postcodeRe = regexp.MustCompile(`\b[A-Za-z]{1,2}\d[A-Za-z\d]?\s?\d[A-Za-z]{2}\b`)
)

const redactedMarker = "[removed]"

// Scrub strips phone numbers, email addresses, national insurance numbers
// and postcodes from the text.
func Scrub(text string) string {
	text = emailRe.ReplaceAllString(text, redactedMarker)
	text = phoneRe.ReplaceAllString(text, redactedMarker)
	text = niRe.ReplaceAllString(text, redactedMarker)
	text = postcodeRe.ReplaceAllString(text, redactedMarker)
	return text
}
