package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
)

// CatalogVersion is written into new catalogs.
const CatalogVersion = "1"

// Catalog declares where tiles of each shape resource are placed. It
// implements atlas.ShapeResolver.
type Catalog struct {
	mu     sync.RWMutex
	shapes map[string]entry
}

type entry struct {
	def  models.ShapeDefinition
	info atlas.ShapeInfo
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{shapes: make(map[string]entry)}
}

// LoadCatalog decodes a YAML catalog. Unknown keys and invalid definitions
// are errors.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc models.ShapeCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding shape catalog: %w", err)
	}

	c := NewCatalog()
	for i, def := range doc.Shapes {
		if err := c.Register(def); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return c, nil
}

// LoadCatalogFile reads a catalog from path. A missing file yields an empty catalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("[ResourceStore] No shape catalog at %s, starting empty\n", path)
		return NewCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shape catalog: %w", err)
	}
	c, err := LoadCatalog(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	fmt.Printf("[ResourceStore] Loaded %d shapes from %s\n", c.Len(), path)
	return c, nil
}

// Register adds or replaces the definition of one shape.
func (c *Catalog) Register(def models.ShapeDefinition) error {
	key, err := NormalizePath(def.Path)
	if err != nil {
		return err
	}
	layer, err := atlas.ParseLayerKind(def.Layer)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if def.ZIndex < 0 {
		return fmt.Errorf("%s: negative z index %d", key, def.ZIndex)
	}
	mode, err := atlas.ParseInsertMode(def.Insert)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	def.Path = key
	def.Insert = mode.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shapes[key] = entry{def: def, info: atlas.ShapeInfo{Layer: layer, ZIndex: def.ZIndex, Insert: mode}}
	return nil
}

// Shape resolves the placement of the shape at path.
func (c *Catalog) Shape(path string) (atlas.ShapeInfo, bool) {
	key, err := NormalizePath(path)
	if err != nil {
		return atlas.ShapeInfo{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.shapes[key]
	return e.info, ok
}

// Definitions returns all shapes ordered by path.
func (c *Catalog) Definitions() []models.ShapeDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	defs := make([]models.ShapeDefinition, 0, len(c.shapes))
	for _, e := range c.shapes {
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs
}

// Len returns the number of shapes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.shapes)
}

// Encode writes the catalog as YAML.
func (c *Catalog) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(models.ShapeCatalog{Version: CatalogVersion, Shapes: c.Definitions()}); err != nil {
		return fmt.Errorf("encoding shape catalog: %w", err)
	}
	return enc.Close()
}
