package scheduler

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestCandidateLocksSerialize(t *testing.T) {
	t.Parallel()

	locks := newCandidateLocks()
	candidateID := uuid.New()

	var active, overlapped int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire(candidateID)
			defer release()

			mu.Lock()
			active++
			if active > 1 {
				overlapped++
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if overlapped != 0 {
		t.Fatalf("lock admitted %d overlapping holders", overlapped)
	}
}

func TestCandidateLocksIndependentCandidates(t *testing.T) {
	t.Parallel()

	locks := newCandidateLocks()

	first := locks.Acquire(uuid.New())
	defer first()

	done := make(chan struct{})
	go func() {
		release := locks.Acquire(uuid.New())
		release()
		close(done)
	}()

	// A different candidate's lock must not block on the held one.
	<-done
}
