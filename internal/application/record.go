// Package application holds the ApplicationRecord aggregate: the record tying
// one candidate to one posting, mutated only through its state machine.
package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of an application record.
type State string

const (
	// StateMatched is the initial state, set on a positive match.
	StateMatched State = "matched"
	// StateContentGenerated means the supporting statement passed the
	// quality gate and is attached to the record.
	StateContentGenerated State = "content_generated"
	// StateSubmitting means a worker holds the candidate's submission slot
	// and is driving the portal form.
	StateSubmitting State = "submitting"
	// StateSubmitted is terminal: a confirmation reference was extracted.
	StateSubmitted State = "submitted"
	// StateFailed is terminal: an unrecoverable submission error.
	StateFailed State = "failed"
	// StateNeedsReview is terminal: automation could not safely complete or
	// confirm an outcome and a human has to follow up.
	StateNeedsReview State = "needs_review"
)

// ErrInvalidTransition is returned for a transition the state machine does
// not allow, including any mutation of a terminal record.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateMatched:          {StateContentGenerated, StateNeedsReview},
	StateContentGenerated: {StateSubmitting},
	StateSubmitting:       {StateSubmitted, StateFailed, StateNeedsReview},
}

// Terminal reports whether the state admits no further transitions.
// Terminal records are retained for audit and never mutated.
func (s State) Terminal() bool {
	switch s {
	case StateSubmitted, StateFailed, StateNeedsReview:
		return true
	}
	return false
}

func (s State) canTransition(to State) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition is one recorded state change.
type Transition struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Record is the aggregate root for one (candidate, posting) application.
type Record struct {
	ID          uuid.UUID
	CandidateID uuid.UUID
	PostingID   string

	State State

	Content      string
	WordCount    int
	Tier         int
	Model        string
	QualityScore int

	ConfirmationRef string
	FailureReason   string

	History   []Transition
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord creates a record in the Matched state.
func NewRecord(candidateID uuid.UUID, postingID string) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.New(),
		CandidateID: candidateID,
		PostingID:   postingID,
		State:       StateMatched,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the record to the target state, recording the change with
// a timestamp. The reason lands in FailureReason for Failed and NeedsReview.
func (r *Record) Transition(to State, reason string) error {
	if r.State.Terminal() {
		return fmt.Errorf("%w: record %s is terminal in %s", ErrInvalidTransition, r.ID, r.State)
	}
	if !r.State.canTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
	}

	now := time.Now().UTC()
	r.History = append(r.History, Transition{From: r.State, To: to, Reason: reason, At: now})
	r.State = to
	r.UpdatedAt = now

	if to == StateFailed || to == StateNeedsReview {
		r.FailureReason = reason
	}
	return nil
}

// AttachContent stores the generated statement on the record. Valid only
// while the record is still Matched, before the ContentGenerated transition.
func (r *Record) AttachContent(text string, wordCount, tier int, model string, score int) error {
	if r.State != StateMatched {
		return fmt.Errorf("%w: content can only be attached in %s, record is %s", ErrInvalidTransition, StateMatched, r.State)
	}
	r.Content = text
	r.WordCount = wordCount
	r.Tier = tier
	r.Model = model
	r.QualityScore = score
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm records the extracted confirmation reference and moves the record
// to Submitted.
func (r *Record) Confirm(reference string) error {
	if reference == "" {
		return fmt.Errorf("%w: submitted requires a confirmation reference", ErrInvalidTransition)
	}
	if err := r.Transition(StateSubmitted, ""); err != nil {
		return err
	}
	r.ConfirmationRef = reference
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.History = append([]Transition(nil), r.History...)
	return &clone
}
