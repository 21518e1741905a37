package submission

import (
	"errors"
	"fmt"
)

// SectionValidationError reports a form section the portal rejected. It is
// retryable within an attempt up to the configured bound; the section name
// travels with the error so the failure reason is never anonymous.
type SectionValidationError struct {
	Section string
	Err     error
}

func (e *SectionValidationError) Error() string {
	return fmt.Sprintf("section %q failed validation: %v", e.Section, e.Err)
}

func (e *SectionValidationError) Unwrap() error { return e.Err }

// SecondFactorError reports a step that demanded manual second-factor
// confirmation. The attempt suspends instead of blocking on it.
type SecondFactorError struct {
	Section string
}

func (e *SecondFactorError) Error() string {
	return fmt.Sprintf("second-factor confirmation required at %q", e.Section)
}

// StructuralDriftError means the portal page no longer matches the expected
// section layout. It affects every in-flight submission for the portal, so
// callers surface it prominently.
type StructuralDriftError struct {
	Section  string
	Selector string
}

func (e *StructuralDriftError) Error() string {
	return fmt.Sprintf("portal layout drift at %q: selector %q not found", e.Section, e.Selector)
}

// ErrAmbiguousCompletion means the final submit went through but no
// confirmation reference could be recognised. Never treated as success.
var ErrAmbiguousCompletion = errors.New("form accepted but no confirmation reference found")

// ErrLoginFailed means the portal rejected the candidate's credentials.
var ErrLoginFailed = errors.New("portal login failed")

// Retryable reports whether the error may be retried within the current
// attempt. Only section validation failures qualify; everything else is a
// terminal outcome for the attempt.
func Retryable(err error) bool {
	var sectionErr *SectionValidationError
	return errors.As(err, &sectionErr)
}
