package generation

import (
	"sync"
	"time"

	"poster-gen-backend/internal/errs"
)

// MemoryStore is an in-process StateStore, used in tests and when the server
// runs without a database. States do not survive a restart, which mirrors the
// best-effort nature of the resume flow.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (s *MemoryStore) Start(params Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.states[params.UID]; ok && cur.IsGenerating {
		return errs.ErrGenerationInProgress
	}
	s.states[params.UID] = &State{
		UID:             params.UID,
		IsGenerating:    true,
		IsCompleted:     false,
		StartTime:       time.Now(),
		Prompt:          params.Prompt,
		ReferenceImages: append([]string(nil), params.ReferenceImages...),
		AspectRatio:     params.AspectRatio,
		ImageCount:      params.ImageCount,
		StreamEnabled:   params.StreamEnabled,
		ResponseFormat:  params.ResponseFormat,
	}
	return nil
}

func (s *MemoryStore) Complete(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[uid]
	if !ok || state.IsCompleted {
		return nil
	}
	state.IsGenerating = false
	state.IsCompleted = true
	return nil
}

func (s *MemoryStore) Get(uid string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[uid]
	if !ok {
		return nil, nil
	}
	copied := *state
	copied.ReferenceImages = append([]string(nil), state.ReferenceImages...)
	return &copied, nil
}

func (s *MemoryStore) HasActive(uid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[uid]
	return ok && state.IsGenerating, nil
}

func (s *MemoryStore) HasCompleted(uid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[uid]
	return ok && state.IsCompleted, nil
}

func (s *MemoryStore) Clear(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, uid)
	return nil
}
