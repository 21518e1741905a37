package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/applymill/applymill/internal/application"
	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/generation"
	"github.com/applymill/applymill/internal/matching"
	"github.com/applymill/applymill/internal/posting"
	"github.com/applymill/applymill/internal/submission"
	"github.com/applymill/applymill/internal/vault"
)

type stubEngine struct {
	mu     sync.Mutex
	priors []int
	err    error
}

func (s *stubEngine) Generate(_ context.Context, _ *candidate.Profile, _ *posting.JobPosting, prior int) (*generation.GeneratedContent, error) {
	s.mu.Lock()
	s.priors = append(s.priors, prior)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &generation.GeneratedContent{
		Text:      "generated statement",
		WordCount: 2,
		Tier:      generation.TierFor(prior),
		Model:     "stub-model",
		Score:     90,
	}, nil
}

type stubSubmitter struct {
	err    error
	onCall func(ctx context.Context, data *submission.FormData)

	inFlight   map[uuid.UUID]*int32
	overlapped int32
	mu         sync.Mutex
}

func (s *stubSubmitter) Submit(ctx context.Context, data *submission.FormData, _ vault.Credential) (*submission.Result, error) {
	if s.inFlight != nil {
		s.mu.Lock()
		counter, ok := s.inFlight[data.Profile.ID]
		if !ok {
			counter = new(int32)
			s.inFlight[data.Profile.ID] = counter
		}
		s.mu.Unlock()

		if atomic.AddInt32(counter, 1) > 1 {
			atomic.StoreInt32(&s.overlapped, 1)
		}
		defer atomic.AddInt32(counter, -1)
	}

	if s.onCall != nil {
		s.onCall(ctx, data)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &submission.Result{ConfirmationRef: "AR-2024-000001"}, nil
}

func testCandidate(t *testing.T, v *vault.Vault) *candidate.Profile {
	t.Helper()
	ctx := context.Background()

	profile := &candidate.Profile{
		ID:        uuid.New(),
		FirstName: "Jane",
		LastName:  "Doe",
		Preferences: candidate.Preferences{
			Keywords: []string{"coordinator"},
		},
	}

	if err := v.Store(ctx, profile.ID, vault.Credential{Username: "jane", Password: []byte("pw")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Authorize(ctx, profile.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return profile
}

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New([]byte("master"), "v1", vault.NewMemoryStore())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func eligiblePosting(id string) *posting.JobPosting {
	return &posting.JobPosting{
		ID:           id,
		Title:        "RTT Coordinator",
		Organization: "St Helier Trust",
		Location:     "London",
		Description:  "Coordinator role on the referral pathway. Visa sponsorship available.",
	}
}

type harness struct {
	store     *application.MemoryStore
	vault     *vault.Vault
	engine    *stubEngine
	submitter *stubSubmitter
	counter   *MemoryCounter
	scheduler *Scheduler

	mu       sync.Mutex
	messages []string
}

func (h *harness) Notify(_ context.Context, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
	return nil
}

func newHarness(t *testing.T, workers int) *harness {
	t.Helper()

	h := &harness{
		store:     application.NewMemoryStore(),
		vault:     testVault(t),
		engine:    &stubEngine{},
		submitter: &stubSubmitter{},
		counter:   NewMemoryCounter(),
	}
	h.scheduler = New(h.store, h.vault, matching.NewEngine(nil), h.engine,
		h.submitter, h.counter, h, Config{Workers: workers}, nil)
	return h
}

func (h *harness) job(t *testing.T, profile *candidate.Profile, p *posting.JobPosting) Job {
	t.Helper()
	record := application.NewRecord(profile.ID, p.ID)
	if err := h.store.Create(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Job{Record: record, Candidate: profile, Posting: p}
}

func (h *harness) finalState(t *testing.T, job Job) *application.Record {
	t.Helper()
	record, err := h.store.Get(context.Background(), job.Record.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return record
}

func TestPlanCreatesRecordsForEligiblePairs(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	first := testCandidate(t, h.vault)
	second := testCandidate(t, h.vault)
	// The second candidate refuses agency postings.
	second.Preferences.ExcludeKeywords = []string{"agency"}

	postings := []*posting.JobPosting{
		eligiblePosting("p-1"),
		{
			ID:           "p-2",
			Title:        "Agency Coordinator",
			Organization: "Locum Agency",
			Description:  "Agency coordinator cover.",
		},
	}

	jobs, err := h.scheduler.Plan(context.Background(), []*candidate.Profile{first, second}, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	// Replanning the same pairs resumes the existing matched records
	// instead of creating duplicates.
	again, err := h.scheduler.Plan(context.Background(), []*candidate.Profile{first, second}, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != len(jobs) {
		t.Fatalf("expected %d resumed jobs, got %d", len(jobs), len(again))
	}

	created := make(map[uuid.UUID]bool)
	for _, job := range jobs {
		created[job.Record.ID] = true
	}
	for _, job := range again {
		if !created[job.Record.ID] {
			t.Fatalf("record %s was recreated instead of resumed", job.Record.ID)
		}
	}
}

func TestPlanSkipsArchivedCandidates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	archived := testCandidate(t, h.vault)
	archived.Archived = true

	jobs, err := h.scheduler.Plan(context.Background(), []*candidate.Profile{archived}, []*posting.JobPosting{eligiblePosting("p-1")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("archived candidates must not be planned, got %d jobs", len(jobs))
	}
}

func TestPlanSkipsPairsAlreadyInFlight(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	profile := testCandidate(t, h.vault)
	p := eligiblePosting("p-1")

	record := application.NewRecord(profile.ID, p.ID)
	if err := h.store.Create(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := record.AttachContent("statement", 1200, 0, "stub-model", 80); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := record.Transition(application.StateContentGenerated, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.store.Update(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jobs, err := h.scheduler.Plan(context.Background(), []*candidate.Profile{profile}, []*posting.JobPosting{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("a pair past matched is in flight and must be skipped, got %d jobs", len(jobs))
	}
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 2)
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateSubmitted {
		t.Fatalf("expected submitted, got %s (%s)", record.State, record.FailureReason)
	}
	if record.ConfirmationRef != "AR-2024-000001" {
		t.Fatalf("confirmation reference not recorded: %q", record.ConfirmationRef)
	}
	if record.Content != "generated statement" {
		t.Fatal("generated content not attached")
	}

	count, _ := h.counter.Get(context.Background(), "p-1")
	if count != 1 {
		t.Fatalf("counter must increment on submitted, got %d", count)
	}
}

func TestRunGenerationFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.engine.err = &generation.GenerationError{Model: "stub-model", Err: errors.New("quota exhausted")}
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateNeedsReview {
		t.Fatalf("expected needs_review, got %s", record.State)
	}
	if !strings.Contains(record.FailureReason, "quota exhausted") {
		t.Fatalf("reason not carried: %q", record.FailureReason)
	}
}

func TestRunRefusesUnauthorizedCandidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	profile := testCandidate(t, h.vault)
	if err := h.vault.Revoke(context.Background(), profile.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	h.submitter.onCall = func(context.Context, *submission.FormData) { called = true }
	job := h.job(t, profile, eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateFailed {
		t.Fatalf("expected failed, got %s", record.State)
	}
	if called {
		t.Fatal("portal must not be touched without authorization")
	}

	count, _ := h.counter.Get(context.Background(), "p-1")
	if count != 0 {
		t.Fatal("counter must not move on failure")
	}
}

func TestRunSecondFactorEscalates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.submitter.err = &submission.SecondFactorError{Section: "Login"}
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateNeedsReview {
		t.Fatalf("expected needs_review, got %s", record.State)
	}

	found := false
	for _, message := range h.messages {
		if strings.Contains(message, "Needs review") {
			found = true
		}
	}
	if !found {
		t.Fatal("review escalation must reach the operator channel")
	}
}

func TestRunAmbiguousCompletionEscalates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.submitter.err = submission.ErrAmbiguousCompletion
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record := h.finalState(t, job); record.State != application.StateNeedsReview {
		t.Fatalf("expected needs_review, got %s", record.State)
	}
}

func TestRunStructuralDriftFailsAndNotifies(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.submitter.err = &submission.StructuralDriftError{Section: "Education", Selector: "form#education"}
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateFailed {
		t.Fatalf("expected failed, got %s", record.State)
	}

	found := false
	for _, message := range h.messages {
		if strings.Contains(message, "drift") {
			found = true
		}
	}
	if !found {
		t.Fatal("structural drift must be surfaced to the operator channel")
	}
}

func TestRunCancelledSubmissionFailsWithReason(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.submitter.err = context.Canceled
	job := h.job(t, testCandidate(t, h.vault), eligiblePosting("p-1"))

	if err := h.scheduler.Run(context.Background(), []Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.finalState(t, job)
	if record.State != application.StateFailed {
		t.Fatalf("expected failed, got %s", record.State)
	}
	if record.FailureReason != "Cancelled" {
		t.Fatalf("expected reason Cancelled, got %q", record.FailureReason)
	}
}

func TestRunSerializesPerCandidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 4)
	h.submitter.inFlight = make(map[uuid.UUID]*int32)
	profile := testCandidate(t, h.vault)

	jobs := []Job{
		h.job(t, profile, eligiblePosting("p-1")),
		h.job(t, profile, eligiblePosting("p-2")),
		h.job(t, profile, eligiblePosting("p-3")),
	}

	if err := h.scheduler.Run(context.Background(), jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if atomic.LoadInt32(&h.submitter.overlapped) != 0 {
		t.Fatal("submissions for one candidate must never overlap")
	}
	for _, job := range jobs {
		if record := h.finalState(t, job); record.State != application.StateSubmitted {
			t.Fatalf("expected submitted, got %s", record.State)
		}
	}
}

func TestRunTierEscalatesWithCommittedCount(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	p := eligiblePosting("p-1")

	jobs := []Job{
		h.job(t, testCandidate(t, h.vault), p),
		h.job(t, testCandidate(t, h.vault), p),
		h.job(t, testCandidate(t, h.vault), p),
	}

	if err := h.scheduler.Run(context.Background(), jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.engine.priors) != 3 {
		t.Fatalf("expected 3 generations, got %d", len(h.engine.priors))
	}
	for i, prior := range h.engine.priors {
		if prior != i {
			t.Fatalf("generation %d saw prior count %d", i, prior)
		}
	}
}

func TestCounterConcurrentIncrements(t *testing.T) {
	t.Parallel()

	counter := NewMemoryCounter()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := counter.IncrementAndGet(context.Background(), "p-1"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	count, err := counter.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != n {
		t.Fatalf("expected %d after %d concurrent increments, got %d", n, n, count)
	}
}
