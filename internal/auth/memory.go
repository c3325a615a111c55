package auth

import (
	"context"
	"sync"

	"campusgate.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. It mirrors
// the versioning semantics of the Postgres store so service-level tests
// exercise the same conflict paths.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]*Administrator
	byName map[string]string // userName -> id
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty credential store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]*Administrator),
		byName: make(map[string]string),
	}
}

func (s *InMemory) Create(ctx context.Context, a *Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[a.UserName]; ok {
		return ErrAlreadyExists
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	cp := cloneAdmin(a)
	s.byID[cp.ID] = cp
	s.byName[cp.UserName] = cp.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id string) (*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAdmin(a), nil
}

func (s *InMemory) FindByUserName(ctx context.Context, userName string) (*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[userName]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAdmin(s.byID[id]), nil
}

func (s *InMemory) Update(ctx context.Context, a *Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[a.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != a.Version {
		return ErrConflict
	}
	a.Version++
	s.byID[a.ID] = cloneAdmin(a)
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.byName, a.UserName)
	return true, nil
}

func cloneAdmin(a *Administrator) *Administrator {
	cp := *a
	cp.SessionIdentifiers = append([]string(nil), a.SessionIdentifiers...)
	if a.LastFailedAt != nil {
		t := *a.LastFailedAt
		cp.LastFailedAt = &t
	}
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
