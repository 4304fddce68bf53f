package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"practicepulse/pkg/contracts/domain"
)

// MemorySource is an in-memory DataSource used in tests and local
// development. It can simulate per-alias failures and slow fetches.
type MemorySource struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.TabularSnapshot
	failures  map[string]error
	delay     time.Duration
}

// NewMemorySource builds an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		snapshots: make(map[string]*domain.TabularSnapshot),
		failures:  make(map[string]error),
	}
}

// Put stores or replaces the snapshot for an alias.
func (s *MemorySource) Put(alias string, snapshot *domain.TabularSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[alias] = snapshot
}

// Fail makes every Fetch for the alias return err.
func (s *MemorySource) Fail(alias string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[alias] = err
}

// SetDelay makes every Fetch sleep before returning, for timeout tests.
func (s *MemorySource) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Fetch implements DataSource.
func (s *MemorySource) Fetch(ctx context.Context, alias string) (*domain.TabularSnapshot, error) {
	s.mu.RLock()
	delay := s.delay
	failure := s.failures[alias]
	snapshot, ok := s.snapshots[alias]
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasNotFound, alias)
	}
	return snapshot, nil
}

// ListAliases implements DataSource.
func (s *MemorySource) ListAliases(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aliases := make([]string, 0, len(s.snapshots))
	for alias := range s.snapshots {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

// Validate implements DataSource.
func (s *MemorySource) Validate(ctx context.Context, alias string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[alias]
	return ok
}
