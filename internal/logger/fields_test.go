package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestStringFieldsSkipsEmptyEntries(t *testing.T) {
	t.Parallel()

	fields := StringFields(
		StringField{Key: "candidate_id", Value: "c-1"},
		StringField{Key: "  ", Value: "ignored"},
		StringField{Key: "posting_id", Value: "   "},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "candidate_id" {
		t.Fatalf("unexpected field key: %s", fields[0].Key)
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	t.Parallel()

	logger := WithFields(nil, zap.String("k", "v"))
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestApplicationFields(t *testing.T) {
	t.Parallel()

	fields := ApplicationFields("c-1", "p-1", "")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
}
