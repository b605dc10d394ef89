package testutil

import (
	"context"
	"sync"

	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
)

// RecordingResourceStore wraps a resource.Store, records the paths read and
// written, and can fail reads with a fixed error.
type RecordingResourceStore struct {
	resource.Store

	mu     sync.Mutex
	gets   []string
	puts   []string
	getErr error
}

// NewRecordingResourceStore wraps an in-memory store
func NewRecordingResourceStore() *RecordingResourceStore {
	return &RecordingResourceStore{Store: resource.NewMemoryStore()}
}

// FailGets makes every following Get return err; nil restores normal reads
func (s *RecordingResourceStore) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *RecordingResourceStore) Get(ctx context.Context, p string) (resource.Resource, error) {
	s.mu.Lock()
	s.gets = append(s.gets, p)
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return resource.Resource{}, err
	}
	return s.Store.Get(ctx, p)
}

func (s *RecordingResourceStore) Put(ctx context.Context, p string, data []byte, mimeType string) (models.ResourceInfo, error) {
	s.mu.Lock()
	s.puts = append(s.puts, p)
	s.mu.Unlock()
	return s.Store.Put(ctx, p, data, mimeType)
}

// Gets returns the paths passed to Get in call order
func (s *RecordingResourceStore) Gets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.gets...)
}

// Puts returns the paths passed to Put in call order
func (s *RecordingResourceStore) Puts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

var _ resource.Store = (*RecordingResourceStore)(nil)
