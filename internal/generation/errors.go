package generation

import "fmt"

// GenerationError reports that the text-generation service failed after the
// backup configuration was exhausted. It is transient from the caller's
// perspective: the record moves to NeedsReview rather than Failed.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on model %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// QualityGateError reports content that scored below the configured
// threshold after the one allowed regeneration.
type QualityGateError struct {
	Score     int
	Threshold int
	Reasons   []string
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("content scored %d, below threshold %d: %v", e.Score, e.Threshold, e.Reasons)
}
