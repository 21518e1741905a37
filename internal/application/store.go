package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateActive is returned when a non-terminal record already
	// exists for the same (candidate, posting) pair.
	ErrDuplicateActive = errors.New("an active application already exists for this candidate and posting")
	// ErrNotFound is returned for an unknown record ID.
	ErrNotFound = errors.New("application record not found")
)

// Store persists application records. Create enforces the single-active-pair
// invariant; implementations must make that check atomic with the insert.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// GetActive returns the non-terminal record for the pair, or ErrNotFound.
	GetActive(ctx context.Context, candidateID uuid.UUID, postingID string) (*Record, error)
	ListByState(ctx context.Context, state State) ([]*Record, error)
	CountSubmitted(ctx context.Context, postingID string) (int, error)
}

// MemoryStore is the in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.CandidateID == record.CandidateID &&
			existing.PostingID == record.PostingID &&
			!existing.State.Terminal() {
			return ErrDuplicateActive
		}
	}

	s.records[record.ID] = record.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return ErrNotFound
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) GetActive(_ context.Context, candidateID uuid.UUID, postingID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.CandidateID == candidateID && record.PostingID == postingID && !record.State.Terminal() {
			return record.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListByState(_ context.Context, state State) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, record := range s.records {
		if record.State == state {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CountSubmitted(_ context.Context, postingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.PostingID == postingID && record.State == StateSubmitted {
			count++
		}
	}
	return count, nil
}
