package repository

import (
	"context"
	"sort"
	"sync"

	"url-redirector/internal/model"
)

// Memory is an in-process Store used for local runs and tests.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*model.Mapping
	byKey map[memKey]string
}

type memKey struct {
	host string
	slug string
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]*model.Mapping),
		byKey: make(map[memKey]string),
	}
}

func keyOf(k model.Key) (memKey, error) {
	slug, err := encodeSlug(k)
	if err != nil {
		return memKey{}, err
	}
	return memKey{host: k.Host, slug: slug}, nil
}

func (s *Memory) Get(_ context.Context, key model.Key) (*model.Mapping, error) {
	slug, err := lookupSlug(key)
	if err != nil {
		return nil, err
	}
	k := memKey{host: key.Host, slug: slug}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[k]
	if !ok {
		return nil, ErrNotFound
	}
	m := *s.byID[id]
	return &m, nil
}

func (s *Memory) ListByHost(_ context.Context, host string) ([]model.Mapping, error) {
	s.mu.RLock()
	res := make([]model.Mapping, 0)
	for _, m := range s.byID {
		if m.Host == host {
			res = append(res, *m)
		}
	}
	s.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt != res[j].CreatedAt {
			return res[i].CreatedAt > res[j].CreatedAt
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (s *Memory) Insert(_ context.Context, m *model.Mapping) error {
	k, err := keyOf(m.Key())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byKey[k]; taken {
		return ErrConflict
	}
	if _, taken := s.byID[m.ID]; taken {
		return ErrConflict
	}
	stored := *m
	s.byID[m.ID] = &stored
	s.byKey[k] = m.ID
	return nil
}

func (s *Memory) Upsert(_ context.Context, m *model.Mapping) error {
	k, err := keyOf(m.Key())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[k]; ok {
		cur := s.byID[id]
		m.ID, m.Used = cur.ID, cur.Used
	}
	stored := *m
	s.byID[m.ID] = &stored
	s.byKey[k] = m.ID
	return nil
}

func (s *Memory) Delete(_ context.Context, host, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok || m.Host != host {
		return nil
	}
	if k, err := keyOf(m.Key()); err == nil {
		delete(s.byKey, k)
	}
	delete(s.byID, id)
	return nil
}

func (s *Memory) IncrementUsed(_ context.Context, id string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byID[id]; ok {
		m.Used += delta
	}
	return nil
}

func (s *Memory) Ping(context.Context) error { return nil }
