package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rpgmapper/backend/internal/models"
)

// ErrFileNotFound is returned for unknown archive ids.
var ErrFileNotFound = errors.New("atlas file not found")

const indexFile = "index.json"

// Store defines the interface for atlas archive storage.
type Store interface {
	Save(meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error)
	Overwrite(id string, meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error)
	Get(id string) (*models.AtlasFileInfo, error)
	List(limit int) ([]*models.AtlasFileInfo, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.AtlasFileInfo, error)
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem. Metadata is kept
// in an index file next to the archives so the recent list survives restarts.
type LocalStore struct {
	mu       sync.RWMutex
	atlasDir string
	files    map[string]*models.AtlasFileInfo
}

// NewLocalStore creates a new LocalStore and loads its index.
func NewLocalStore(atlasDir string) (*LocalStore, error) {
	if err := os.MkdirAll(atlasDir, 0755); err != nil {
		return nil, fmt.Errorf("creating atlas directory: %w", err)
	}

	s := &LocalStore{
		atlasDir: atlasDir,
		files:    make(map[string]*models.AtlasFileInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.atlasDir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	var list []*models.AtlasFileInfo
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decoding index: %w", err)
	}
	for _, info := range list {
		// Drop entries whose archive vanished
		if _, err := os.Stat(filepath.Join(s.atlasDir, info.ID)); err != nil {
			fmt.Printf("[Storage] Dropping index entry %s: %v\n", info.ID, err)
			continue
		}
		s.files[info.ID] = info
	}
	fmt.Printf("[Storage] Loaded %d atlas files from %s\n", len(s.files), s.atlasDir)
	return nil
}

// saveIndex must be called with mu held.
func (s *LocalStore) saveIndex() error {
	list := make([]*models.AtlasFileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	tmp := filepath.Join(s.atlasDir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.atlasDir, indexFile)); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

// writeFile copies r into the archive file for id through a temp file.
func (s *LocalStore) writeFile(id string, r io.Reader) (int64, error) {
	path := filepath.Join(s.atlasDir, id)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("replacing file: %w", err)
	}
	return size, nil
}

// Save stores a new archive under a fresh id.
func (s *LocalStore) Save(meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error) {
	id := uuid.New().String()
	size, err := s.writeFile(id, r)
	if err != nil {
		return nil, err
	}

	info := &models.AtlasFileInfo{
		ID:        id,
		Name:      meta.Name,
		AtlasName: meta.AtlasName,
		Codec:     meta.Codec,
		Size:      size,
		SavedAt:   time.Now(),
	}
	if info.Name == "" {
		info.Name = meta.AtlasName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	fmt.Printf("[Storage] Saved atlas %q as %s (%d bytes)\n", info.AtlasName, id, size)
	return info, nil
}

// Overwrite replaces the archive stored under id. The display name is kept
// unless meta carries one.
func (s *LocalStore) Overwrite(id string, meta models.AtlasFileInfo, r io.Reader) (*models.AtlasFileInfo, error) {
	s.mu.RLock()
	_, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}

	size, err := s.writeFile(id, r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.files[id]
	if !ok {
		// deleted while writing
		os.Remove(filepath.Join(s.atlasDir, id))
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	if meta.Name != "" {
		info.Name = meta.Name
	}
	info.AtlasName = meta.AtlasName
	info.Codec = meta.Codec
	info.Size = size
	info.SavedAt = time.Now()
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	fmt.Printf("[Storage] Overwrote %s with atlas %q (%d bytes)\n", id, info.AtlasName, size)
	return info, nil
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.AtlasFileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	return info, nil
}

// List returns the most recently saved files.
func (s *LocalStore) List(limit int) ([]*models.AtlasFileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*models.AtlasFileInfo
	for _, info := range s.files {
		list = append(list, info)
	}

	// Sort by SavedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.After(list[j].SavedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}

	path := filepath.Join(s.atlasDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return s.saveIndex()
}

// Rename updates the display name of a file.
func (s *LocalStore) Rename(id string, newName string) (*models.AtlasFileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}

	info.Name = newName
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	return info, nil
}

// GetFilePath returns the absolute path to a file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	return filepath.Join(s.atlasDir, id), nil
}
