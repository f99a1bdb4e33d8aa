package kvstore

import "sync"

// Memory is an in-process Store.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{m: map[string]string{}}
}

func (s *Memory) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Memory) Apply(set map[string]string, remove []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range set {
		s.m[k] = v
	}
	for _, k := range remove {
		delete(s.m, k)
	}
	return nil
}

// Snapshot returns a copy of the stored values.
func (s *Memory) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}
