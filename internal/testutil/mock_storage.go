// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/storage"
)

// MockStorage implements storage.Store for testing. Archives are written to a
// temp directory so handlers that open them by path work unchanged.
type MockStorage struct {
	files   map[string]*models.AtlasFileInfo
	tempDir string
	mu      sync.RWMutex

	// SaveErr, when set, fails every Save and Overwrite
	SaveErr error
	// SaveCalls counts Save and Overwrite attempts
	SaveCalls int
}

// NewMockStorage creates a new mock storage writing into tempDir
func NewMockStorage(tempDir string) *MockStorage {
	return &MockStorage{
		files:   make(map[string]*models.AtlasFileInfo),
		tempDir: tempDir,
	}
}

func (m *MockStorage) Save(meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	return m.write(generateTestID(), meta, r)
}

func (m *MockStorage) Overwrite(id string, meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	existing, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	if meta.Name == "" {
		meta.Name = existing.Name
	}
	return m.write(id, meta, r)
}

func (m *MockStorage) write(id string, meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(m.tempDir, id), data, 0644); err != nil {
		return nil, err
	}

	file := meta
	file.ID = id
	if file.Name == "" {
		file.Name = file.AtlasName
	}
	file.Size = int64(len(data))
	file.SavedAt = time.Now()
	m.files[id] = &file

	out := file
	return &out, nil
}

func (m *MockStorage) Get(id string) (*models.AtlasFileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	out := *file
	return &out, nil
}

func (m *MockStorage) List(limit int) ([]*models.AtlasFileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.AtlasFileInfo
	for _, file := range m.files {
		out := *file
		files = append(files, &out)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].SavedAt.After(files[j].SavedAt)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[id]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}

	delete(m.files, id)
	os.Remove(filepath.Join(m.tempDir, id))
	return nil
}

func (m *MockStorage) Rename(id string, newName string) (*models.AtlasFileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}

	file.Name = newName
	out := *file
	return &out, nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	return filepath.Join(m.tempDir, id), nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFile adds an archive directly to the mock
func (m *MockStorage) AddFile(id string, name string, data []byte) *models.AtlasFileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.WriteFile(filepath.Join(m.tempDir, id), data, 0644); err != nil {
		panic(fmt.Sprintf("failed to write test file: %v", err))
	}
	file := &models.AtlasFileInfo{
		ID:      id,
		Name:    name,
		Size:    int64(len(data)),
		SavedAt: time.Now(),
	}
	m.files[id] = file
	out := *file
	return &out
}

// GetFileData returns the archive bytes
func (m *MockStorage) GetFileData(id string) ([]byte, error) {
	path, err := m.GetFilePath(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// GetFileCount returns the number of stored archives
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
