package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
)

// ReferencedPaths lists the normalized resource paths doc refers to:
// background images and shape tiles. The result is sorted and unique.
func ReferencedPaths(doc models.AtlasDoc) []string {
	seen := make(map[string]struct{})
	add := func(p string) {
		if key, err := resource.NormalizePath(p); err == nil {
			seen[key] = struct{}{}
		}
	}
	for _, r := range doc.Regions {
		for _, m := range r.Maps {
			if img := m.Layers.Background.Attributes[atlas.AttrImage]; img != "" {
				add(img)
			}
			for _, layers := range [][]models.LayerDoc{m.Layers.Base, m.Layers.Tile} {
				for _, l := range layers {
					for _, f := range l.Fields {
						for _, t := range f.Tiles {
							if t.Attributes[atlas.AttrType] == string(atlas.TileShape) && t.Attributes[atlas.AttrPath] != "" {
								add(t.Attributes[atlas.AttrPath])
							}
						}
					}
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pack collects doc and every referenced resource found in store. Missing
// resources are left out; their paths are returned as missing.
func Pack(ctx context.Context, doc models.AtlasDoc, store resource.Store) (Archive, []string, error) {
	a := Archive{Document: doc}
	var missing []string
	for _, p := range ReferencedPaths(doc) {
		r, err := store.Get(ctx, p)
		if errors.Is(err, resource.ErrNotFound) {
			missing = append(missing, p)
			continue
		}
		if err != nil {
			return Archive{}, nil, fmt.Errorf("packing %s: %w", p, err)
		}
		a.Resources = append(a.Resources, r)
	}
	if len(missing) > 0 {
		fmt.Printf("[Archive] %d referenced resources are missing from the store: %v\n", len(missing), missing)
	}
	return a, missing, nil
}

// Unpack writes the resources of a into store.
func Unpack(ctx context.Context, a Archive, store resource.Store) error {
	if imp, ok := store.(resource.Importer); ok {
		return imp.Import(ctx, a.Resources)
	}
	for _, r := range a.Resources {
		if _, err := store.Put(ctx, r.Path, r.Data, r.MimeType); err != nil {
			return fmt.Errorf("unpacking %s: %w", r.Path, err)
		}
	}
	return nil
}
