package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS vault_credentials (
	candidate_id UUID PRIMARY KEY,
	blob         BYTEA NOT NULL,
	key_id       TEXT NOT NULL DEFAULT '',
	authorized   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresStore keeps credential blobs in PostgreSQL. Only ciphertext and the
// authorization flag ever reach the database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate vault schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, candidateID uuid.UUID, blob []byte, keyID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vault_credentials (candidate_id, blob, key_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (candidate_id) DO UPDATE SET blob = $2, key_id = $3, updated_at = NOW()`,
		candidateID, blob, keyID,
	)
	if err != nil {
		return fmt.Errorf("failed to store credential blob: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, candidateID uuid.UUID) ([]byte, string, error) {
	var (
		blob  []byte
		keyID string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT blob, key_id FROM vault_credentials WHERE candidate_id = $1`, candidateID,
	).Scan(&blob, &keyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNoCredential
		}
		return nil, "", fmt.Errorf("failed to load credential blob: %w", err)
	}
	// An authorization-only row has an empty blob.
	if len(blob) == 0 {
		return nil, "", ErrNoCredential
	}
	return blob, keyID, nil
}

func (s *PostgresStore) SetAuthorization(ctx context.Context, candidateID uuid.UUID, authorized bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vault_credentials (candidate_id, blob, authorized)
		 VALUES ($1, ''::bytea, $2)
		 ON CONFLICT (candidate_id) DO UPDATE SET authorized = $2, updated_at = NOW()`,
		candidateID, authorized,
	)
	if err != nil {
		return fmt.Errorf("failed to set authorization: %w", err)
	}
	return nil
}

func (s *PostgresStore) Authorization(ctx context.Context, candidateID uuid.UUID) (bool, error) {
	var authorized bool
	err := s.pool.QueryRow(ctx,
		`SELECT authorized FROM vault_credentials WHERE candidate_id = $1`, candidateID,
	).Scan(&authorized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read authorization: %w", err)
	}
	return authorized, nil
}
