package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Counter tracks committed submissions per posting. Get feeds the variation
// tier; IncrementAndGet is called exactly once per transition into the
// submitted state and must be atomic across workers.
type Counter interface {
	Get(ctx context.Context, postingID string) (int, error)
	IncrementAndGet(ctx context.Context, postingID string) (int, error)
}

// MemoryCounter is the in-process Counter used by tests and dry runs.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int)}
}

func (c *MemoryCounter) Get(_ context.Context, postingID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[postingID], nil
}

func (c *MemoryCounter) IncrementAndGet(_ context.Context, postingID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[postingID]++
	return c.counts[postingID], nil
}

const counterSchema = `
CREATE TABLE IF NOT EXISTS posting_counters (
	posting_id TEXT PRIMARY KEY,
	count      INT NOT NULL DEFAULT 0
);
`

// PostgresCounter keeps the per-posting counts in PostgreSQL so concurrent
// processes share one committed view.
type PostgresCounter struct {
	pool *pgxpool.Pool
}

// NewPostgresCounter wraps an existing connection pool.
func NewPostgresCounter(pool *pgxpool.Pool) *PostgresCounter {
	return &PostgresCounter{pool: pool}
}

// Migrate applies the schema.
func (c *PostgresCounter) Migrate(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, counterSchema); err != nil {
		return fmt.Errorf("failed to migrate counter schema: %w", err)
	}
	return nil
}

func (c *PostgresCounter) Get(ctx context.Context, postingID string) (int, error) {
	var count int
	err := c.pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT count FROM posting_counters WHERE posting_id = $1), 0)`,
		postingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to read posting counter: %w", err)
	}
	return count, nil
}

func (c *PostgresCounter) IncrementAndGet(ctx context.Context, postingID string) (int, error) {
	var count int
	err := c.pool.QueryRow(ctx,
		`INSERT INTO posting_counters (posting_id, count) VALUES ($1, 1)
		 ON CONFLICT (posting_id) DO UPDATE SET count = posting_counters.count + 1
		 RETURNING count`,
		postingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment posting counter: %w", err)
	}
	return count, nil
}
