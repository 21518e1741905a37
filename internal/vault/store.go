package vault

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists ciphertext blobs, the key generation that sealed them and
// per-candidate authorization flags. Implementations never see plaintext.
type Store interface {
	Put(ctx context.Context, candidateID uuid.UUID, blob []byte, keyID string) error
	Get(ctx context.Context, candidateID uuid.UUID) (blob []byte, keyID string, err error)
	SetAuthorization(ctx context.Context, candidateID uuid.UUID, authorized bool) error
	Authorization(ctx context.Context, candidateID uuid.UUID) (bool, error)
}

type memoryBlob struct {
	blob  []byte
	keyID string
}

// MemoryStore is the in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu         sync.Mutex
	blobs      map[uuid.UUID]memoryBlob
	authorized map[uuid.UUID]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:      make(map[uuid.UUID]memoryBlob),
		authorized: make(map[uuid.UUID]bool),
	}
}

func (s *MemoryStore) Put(_ context.Context, candidateID uuid.UUID, blob []byte, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[candidateID] = memoryBlob{blob: append([]byte(nil), blob...), keyID: keyID}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, candidateID uuid.UUID) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.blobs[candidateID]
	if !ok {
		return nil, "", ErrNoCredential
	}
	return append([]byte(nil), entry.blob...), entry.keyID, nil
}

func (s *MemoryStore) SetAuthorization(_ context.Context, candidateID uuid.UUID, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized[candidateID] = authorized
	return nil
}

func (s *MemoryStore) Authorization(_ context.Context, candidateID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized[candidateID], nil
}
