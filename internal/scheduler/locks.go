package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// candidateLocks serialises submissions per candidate: a candidate may apply
// to many postings, but only one portal session at a time may act for them.
type candidateLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newCandidateLocks() *candidateLocks {
	return &candidateLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire blocks until the candidate's slot is free and returns the release
// function.
func (c *candidateLocks) Acquire(candidateID uuid.UUID) func() {
	c.mu.Lock()
	lock, ok := c.locks[candidateID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[candidateID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
