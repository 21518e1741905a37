package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The partial unique index is what enforces the single-active-pair invariant
// under concurrent workers; Create maps its violation to ErrDuplicateActive.
const schema = `
CREATE TABLE IF NOT EXISTS application_records (
	id               UUID PRIMARY KEY,
	candidate_id     UUID NOT NULL,
	posting_id       TEXT NOT NULL,
	state            TEXT NOT NULL,
	content          TEXT NOT NULL DEFAULT '',
	word_count       INT NOT NULL DEFAULT 0,
	tier             INT NOT NULL DEFAULT 0,
	model            TEXT NOT NULL DEFAULT '',
	quality_score    INT NOT NULL DEFAULT 0,
	confirmation_ref TEXT NOT NULL DEFAULT '',
	failure_reason   TEXT NOT NULL DEFAULT '',
	history          JSONB NOT NULL DEFAULT '[]',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS application_records_active_pair
	ON application_records (candidate_id, posting_id)
	WHERE state NOT IN ('submitted', 'failed', 'needs_review');
`

const uniqueViolation = "23505"

// PostgresStore persists application records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect establishes a pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate application schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	history, err := json.Marshal(record.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO application_records
		 (id, candidate_id, posting_id, state, content, word_count, tier, model,
		  quality_score, confirmation_ref, failure_reason, history, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		record.ID, record.CandidateID, record.PostingID, record.State,
		record.Content, record.WordCount, record.Tier, record.Model,
		record.QualityScore, record.ConfirmationRef, record.FailureReason,
		history, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateActive
		}
		return fmt.Errorf("failed to create application record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Record) error {
	history, err := json.Marshal(record.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE application_records
		 SET state = $2, content = $3, word_count = $4, tier = $5, model = $6,
		     quality_score = $7, confirmation_ref = $8, failure_reason = $9,
		     history = $10, updated_at = $11
		 WHERE id = $1`,
		record.ID, record.State, record.Content, record.WordCount, record.Tier,
		record.Model, record.QualityScore, record.ConfirmationRef,
		record.FailureReason, history, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update application record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT id, candidate_id, posting_id, state, content, word_count, tier,
		        model, quality_score, confirmation_ref, failure_reason, history,
		        created_at, updated_at
		 FROM application_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) GetActive(ctx context.Context, candidateID uuid.UUID, postingID string) (*Record, error) {
	record, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT id, candidate_id, posting_id, state, content, word_count, tier,
		        model, quality_score, confirmation_ref, failure_reason, history,
		        created_at, updated_at
		 FROM application_records
		 WHERE candidate_id = $1 AND posting_id = $2
		   AND state NOT IN ($3, $4, $5)`,
		candidateID, postingID, StateSubmitted, StateFailed, StateNeedsReview))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active application record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByState(ctx context.Context, state State) ([]*Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, candidate_id, posting_id, state, content, word_count, tier,
		        model, quality_score, confirmation_ref, failure_reason, history,
		        created_at, updated_at
		 FROM application_records WHERE state = $1 ORDER BY created_at`, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list application records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) CountSubmitted(ctx context.Context, postingID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM application_records WHERE posting_id = $1 AND state = $2`,
		postingID, StateSubmitted,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submitted records: %w", err)
	}
	return count, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var record Record
	var historyJSON []byte

	err := row.Scan(&record.ID, &record.CandidateID, &record.PostingID,
		&record.State, &record.Content, &record.WordCount, &record.Tier,
		&record.Model, &record.QualityScore, &record.ConfirmationRef,
		&record.FailureReason, &historyJSON, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &record.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	return &record, nil
}
