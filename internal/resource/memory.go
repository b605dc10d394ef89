package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rpgmapper/backend/internal/models"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	resources map[string]Resource
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{resources: make(map[string]Resource)}
}

func (s *MemoryStore) Put(_ context.Context, p string, data []byte, mimeType string) (models.ResourceInfo, error) {
	r, err := prepare(p, data, mimeType)
	if err != nil {
		return models.ResourceInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.Path] = r
	return r.Info(), nil
}

func (s *MemoryStore) Get(_ context.Context, p string) (Resource, error) {
	key, err := NormalizePath(p)
	if err != nil {
		return Resource{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[key]
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	r.Data = append([]byte(nil), r.Data...)
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]models.ResourceInfo, error) {
	pk, err := prefixKey(prefix)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.ResourceInfo
	for key, r := range s.resources {
		if strings.HasPrefix(key, pk) {
			list = append(list, r.Info())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list, nil
}

func (s *MemoryStore) Delete(_ context.Context, p string) error {
	key, err := NormalizePath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.resources, key)
	return nil
}
