package cmd

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/applymill/applymill/internal/application"
	"github.com/applymill/applymill/internal/scheduler"
)

func settledRecord(t *testing.T, store application.Store, state application.State) *application.Record {
	t.Helper()
	ctx := context.Background()

	record := application.NewRecord(uuid.New(), "p-"+uuid.NewString())
	if err := store.Create(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	switch state {
	case application.StateSubmitted:
		if err := record.AttachContent("statement", 1200, 0, "stub-model", 80); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := record.Transition(application.StateContentGenerated, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := record.Transition(application.StateSubmitting, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := record.Confirm("AR-2024-000001"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case application.StateNeedsReview:
		if err := record.Transition(application.StateNeedsReview, "generation failed"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := store.Update(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return record
}

func TestReportOutcomesCountsOnlyThisRun(t *testing.T) {
	t.Parallel()

	store := application.NewMemoryStore()

	// A record settled by an earlier run must stay out of the summary.
	settledRecord(t, store, application.StateNeedsReview)

	jobs := []scheduler.Job{
		{Record: settledRecord(t, store, application.StateSubmitted)},
		{Record: settledRecord(t, store, application.StateNeedsReview)},
	}

	core, logs := observer.New(zapcore.InfoLevel)
	reportOutcomes(context.Background(), store, jobs, nil, zap.New(core))

	counts := make(map[string]int64)
	for _, entry := range logs.FilterMessage("run outcome").All() {
		fields := entry.ContextMap()
		counts[fields["state"].(string)] = fields["count"].(int64)
	}

	if counts["submitted"] != 1 {
		t.Fatalf("expected 1 submitted, got %d", counts["submitted"])
	}
	if counts["needs_review"] != 1 {
		t.Fatalf("expected 1 needs_review from this run, got %d", counts["needs_review"])
	}
	if counts["failed"] != 0 {
		t.Fatalf("expected 0 failed, got %d", counts["failed"])
	}
}
