package atlas

import (
	"fmt"

	"github.com/google/uuid"
)

// Map is one drawable grid. It owns its coordinate system and layer stack.
type Map struct {
	notifier
	id       string
	name     string
	regionID string
	cs       *CoordinateSystem
	layers   *LayerStack
}

func newMap(id, name string) *Map {
	m := &Map{id: id, name: name}
	m.cs = newCoordinateSystem(id)
	m.cs.parent = &m.notifier
	m.layers = newLayerStack(id, &m.notifier)
	return m
}

// invalidMap is returned by failed lookups. Each call yields a detached
// instance so accidental writes never leak between callers.
func invalidMap() *Map {
	return newMap("", "")
}

// ID is the immutable identifier of the map.
func (m *Map) ID() string { return m.id }

// Name is unique within the owning region.
func (m *Map) Name() string { return m.name }

// IsValid is false for the sentinel returned by failed lookups.
func (m *Map) IsValid() bool { return m != nil && m.id != "" }

// RegionID identifies the owning region, or "" while detached.
func (m *Map) RegionID() string { return m.regionID }

// CoordinateSystem returns the map's coordinate system.
func (m *Map) CoordinateSystem() *CoordinateSystem { return m.cs }

// Layers returns the map's layer stack.
func (m *Map) Layers() *LayerStack { return m.layers }

// TilesAt returns every tile at pos across base and tile layers in draw order.
func (m *Map) TilesAt(pos Point) []*Tile {
	var out []*Tile
	for _, l := range m.layers.CollectVisibleLayers(false, false) {
		if f, ok := l.Field(pos); ok {
			out = append(out, f.tiles...)
		}
	}
	return out
}

// RestoreTile puts a tile removed from this map back at index within its field.
func (m *Map) RestoreTile(t *Tile, index int) error {
	if !m.IsValid() || t.mapID != m.id {
		return fmt.Errorf("restore %s: tile belongs to map %q: %w", t, t.mapID, ErrNotFound)
	}
	if t.placed {
		return nil
	}
	t.restore(m, index)
	return nil
}

// RestoreTiles appends evicted tiles back to their fields in order.
func (m *Map) RestoreTiles(tiles []*Tile) error {
	for _, t := range tiles {
		if err := m.RestoreTile(t, -1); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) setName(name string) {
	m.name = name
	m.emit(Event{Kind: EventMapNameChanged, RegionID: m.regionID, MapID: m.id, Name: name})
}

func (m *Map) tilesChanged(pos Point) {
	m.emit(Event{Kind: EventTilesChanged, RegionID: m.regionID, MapID: m.id, Detail: fmt.Sprintf("%d,%d", pos.X, pos.Y)})
}

func newID() string {
	return uuid.New().String()
}
