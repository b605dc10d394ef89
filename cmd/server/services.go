package main

import (
	"errors"
	"fmt"

	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/config"
	"github.com/rpgmapper/backend/internal/resource"
	"github.com/rpgmapper/backend/internal/storage"
)

// services holds the stores the server is wired from.
type services struct {
	atlases      *storage.LocalStore
	resources    resource.Store
	shapes       *resource.Catalog
	codec        archive.Codec
	resourceMode string

	closers []func() error
}

// openServices opens every store named by cfg. The resource database opens
// last so that no earlier failure leaves it open.
func openServices(cfg *config.AppConfig) (*services, error) {
	codec, err := archive.CodecByName(cfg.Storage.DocumentCodec)
	if err != nil {
		return nil, fmt.Errorf("invalid document codec: %w", err)
	}

	shapes, err := resource.LoadCatalogFile(cfg.Editor.ShapeCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load shape catalog: %w", err)
	}

	atlases, err := storage.NewLocalStore(cfg.Storage.AtlasDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	svc := &services{
		atlases:      atlases,
		shapes:       shapes,
		codec:        codec,
		resourceMode: "in-memory",
	}
	if cfg.Storage.InMemoryResources {
		svc.resources = resource.NewMemoryStore()
		return svc, nil
	}

	duck, err := resource.OpenDuckStore(cfg.Storage.ResourceDB, resource.DuckOptions{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open resource database: %w", err)
	}
	svc.resources = duck
	svc.resourceMode = cfg.Storage.ResourceDB
	svc.closers = append(svc.closers, duck.Close)
	return svc, nil
}

// Close releases the stores in reverse opening order.
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
