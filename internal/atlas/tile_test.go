package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShapes map[string]ShapeInfo

func (s stubShapes) Shape(path string) (ShapeInfo, bool) {
	info, ok := s[path]
	return info, ok
}

func newTestMap(t *testing.T) *Map {
	t.Helper()
	a := New("atlas")
	r, err := a.CreateRegion("region")
	require.NoError(t, err)
	m, err := r.CreateMap("map")
	require.NoError(t, err)
	return m
}

func TestCollectVisibleLayersOrder(t *testing.T) {
	m := newTestMap(t)
	s := m.Layers()
	s.ensureLayer(LayerBase, 1)
	s.ensureLayer(LayerTile, 2)

	kinds := func(layers []*Layer) []string {
		var out []string
		for _, l := range layers {
			out = append(out, string(l.Kind())+":"+string(rune('0'+l.Index())))
		}
		return out
	}

	assert.Equal(t, []string{
		"background:0", "base:0", "base:1", "grid:0", "axis:0",
		"tile:0", "tile:1", "tile:2", "text:0",
	}, kinds(s.CollectVisibleLayers(true, true)))

	assert.Equal(t, []string{
		"background:0", "base:0", "base:1", "axis:0",
		"tile:0", "tile:1", "tile:2", "text:0",
	}, kinds(s.CollectVisibleLayers(false, true)))

	assert.Equal(t, []string{
		"background:0", "base:0", "base:1",
		"tile:0", "tile:1", "tile:2", "text:0",
	}, kinds(s.CollectVisibleLayers(false, false)))
}

func TestLayerDefaultsAndAttributes(t *testing.T) {
	m := newTestMap(t)
	bg := m.Layers().Background()
	assert.Equal(t, "#ffffff", bg.Attribute(AttrColor))
	assert.Equal(t, RenderingPlain, bg.Attribute(AttrRendering))
	assert.Equal(t, "#202020", m.Layers().Grid().Attribute(AttrColor))

	assert.False(t, bg.SetAttribute(AttrColor, "#ffffff"))
	assert.True(t, bg.SetAttribute(AttrColor, "#102030"))
	assert.False(t, bg.SetAttribute(AttrColor, ""), "defaulted attributes cannot be cleared")

	assert.False(t, bg.SetAttribute(AttrImage, ""))
	assert.True(t, bg.SetAttribute(AttrImage, "/background/stone.png"))
	assert.True(t, bg.SetAttribute(AttrImage, ""))
	assert.Equal(t, "", bg.Attribute(AttrImage))
}

func TestNewTileFactory(t *testing.T) {
	shapes := stubShapes{"/shapes/tree.svg": {Layer: LayerTile, ZIndex: 2, Insert: InsertExclusive}}

	tests := []struct {
		name    string
		attrs   map[string]string
		wantErr error
	}{
		{"color", map[string]string{"type": "color", "color": "#ff0000"}, nil},
		{"shape", map[string]string{"type": "shape", "path": "/shapes/tree.svg", "rotation": "90"}, nil},
		{"missing type", map[string]string{"color": "#ff0000"}, ErrUnknownTileType},
		{"unknown type", map[string]string{"type": "sound"}, ErrUnknownTileType},
		{"color without color", map[string]string{"type": "color"}, ErrUnknownTileType},
		{"shape without path", map[string]string{"type": "shape"}, ErrUnknownTileType},
		{"bad rotation", map[string]string{"type": "shape", "path": "/shapes/tree.svg", "rotation": "left"}, ErrUnknownTileType},
		{"unknown shape", map[string]string{"type": "shape", "path": "/shapes/rock.svg"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, err := NewTile(tt.attrs, shapes)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.attrs, tile.Attributes())
			assert.False(t, tile.IsPlaced())
		})
	}

	tile, err := NewTile(map[string]string{"type": "shape", "path": "/shapes/tree.svg"}, shapes)
	require.NoError(t, err)
	kind, z := tile.Target()
	assert.Equal(t, LayerTile, kind)
	assert.Equal(t, 2, z)
	assert.Equal(t, InsertExclusive, tile.InsertMode())
}

func TestColorTileIsExclusive(t *testing.T) {
	m := newTestMap(t)
	pos := Point{2, 3}

	first, evicted, err := NewColorTile("#ff0000").Place(m, pos)
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.True(t, first.IsPlaced())
	assert.Equal(t, m.ID(), first.MapID())
	assert.Equal(t, pos, first.Position())

	second, evicted, err := NewColorTile("#00ff00").Place(m, pos)
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Same(t, first, evicted[0])
	assert.False(t, first.IsPlaced())

	base, ok := m.Layers().Layer(LayerBase, 0)
	require.True(t, ok)
	f, ok := base.Field(pos)
	require.True(t, ok)
	require.Equal(t, 1, f.Len())
	assert.Same(t, second, f.Tiles()[0])

	// reverting the placement restores the evicted tile exactly
	_, removed := second.Remove(m)
	require.True(t, removed)
	require.NoError(t, m.RestoreTiles(evicted))
	f, ok = base.Field(pos)
	require.True(t, ok)
	require.Equal(t, 1, f.Len())
	assert.Same(t, first, f.Tiles()[0])
	assert.True(t, first.IsPlaced())
}

func TestShapeTileIsAdditive(t *testing.T) {
	m := newTestMap(t)
	pos := Point{0, 0}

	tree := NewShapeTile("/shapes/tree.svg", 0, DefaultShapeInfo)
	rock := NewShapeTile("/shapes/rock.svg", 45, DefaultShapeInfo)

	_, _, err := tree.Place(m, pos)
	require.NoError(t, err)
	_, evicted, err := rock.Place(m, pos)
	require.NoError(t, err)
	assert.Empty(t, evicted)

	tiles := m.TilesAt(pos)
	require.Len(t, tiles, 2)
	assert.Equal(t, "/shapes/tree.svg", tiles[0].Attribute(AttrPath))
	assert.Equal(t, "45", tiles[1].Attribute(AttrRotation))
}

func TestPlacementGrowsLayers(t *testing.T) {
	m := newTestMap(t)
	info := ShapeInfo{Layer: LayerTile, ZIndex: 3}
	_, _, err := NewShapeTile("/shapes/roof.svg", 0, info).Place(m, Point{1, 1})
	require.NoError(t, err)

	layers := m.Layers().TileLayers()
	require.Len(t, layers, 4)
	for i, l := range layers {
		assert.Equal(t, i, l.Index())
	}
	_, ok := layers[3].Field(Point{1, 1})
	assert.True(t, ok)
	_, ok = layers[1].Field(Point{1, 1})
	assert.False(t, ok)
}

func TestIsPlaceable(t *testing.T) {
	m := newTestMap(t)
	pos := Point{4, 4}
	tile := NewShapeTile("/shapes/tree.svg", 0, ShapeInfo{Layer: LayerTile, ZIndex: 5})

	assert.True(t, tile.IsPlaceable(m, pos), "missing layer is placeable")
	_, _, err := tile.Place(m, pos)
	require.NoError(t, err)

	assert.False(t, tile.IsPlaceable(m, pos))
	assert.True(t, tile.IsPlaceable(m, Point{4, 5}))
	assert.True(t, NewShapeTile("/shapes/tree.svg", 90, ShapeInfo{Layer: LayerTile, ZIndex: 5}).IsPlaceable(m, pos))

	_, _, err = tile.Place(m, pos)
	assert.ErrorIs(t, err, ErrNotPlaceable)
	assert.Len(t, m.TilesAt(pos), 1)
}

func TestPlaceOnInvalidMap(t *testing.T) {
	_, _, err := NewColorTile("#000000").Place(invalidMap(), Point{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveExactInstance(t *testing.T) {
	m := newTestMap(t)
	pos := Point{1, 2}
	a, _, err := NewShapeTile("/shapes/a.svg", 0, DefaultShapeInfo).Place(m, pos)
	require.NoError(t, err)
	b, _, err := NewShapeTile("/shapes/b.svg", 0, DefaultShapeInfo).Place(m, pos)
	require.NoError(t, err)

	// an equal but distinct instance is not in the field
	twin := NewShapeTile("/shapes/a.svg", 0, DefaultShapeInfo)
	_, ok := twin.Remove(m)
	assert.False(t, ok)

	idx, ok := a.Remove(m)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	tiles := m.TilesAt(pos)
	require.Len(t, tiles, 1)
	assert.Same(t, b, tiles[0])

	_, ok = a.Remove(m)
	assert.False(t, ok, "removing twice is a no-op")

	require.NoError(t, m.RestoreTile(a, idx))
	tiles = m.TilesAt(pos)
	require.Len(t, tiles, 2)
	assert.Same(t, a, tiles[0])
}

func TestRemoveDropsEmptyField(t *testing.T) {
	m := newTestMap(t)
	tile, _, err := NewColorTile("#abcdef").Place(m, Point{0, 0})
	require.NoError(t, err)
	_, ok := tile.Remove(m)
	require.True(t, ok)

	base, _ := m.Layers().Layer(LayerBase, 0)
	assert.Empty(t, base.Fields())
}

func TestTileEqual(t *testing.T) {
	assert.True(t, NewColorTile("#ff0000").Equal(NewColorTile("#ff0000")))
	assert.False(t, NewColorTile("#ff0000").Equal(NewColorTile("#ff0001")))
	assert.False(t, NewColorTile("#ff0000").Equal(NewShapeTile("#ff0000", 0, DefaultShapeInfo)))
	assert.False(t, NewColorTile("#ff0000").Equal(nil))
}

func TestTileEventsReachAtlas(t *testing.T) {
	a := New("atlas")
	r, err := a.CreateRegion("region")
	require.NoError(t, err)
	m, err := r.CreateMap("map")
	require.NoError(t, err)

	var events []Event
	a.Subscribe(func(e Event) { events = append(events, e) })

	_, _, err = NewColorTile("#ff0000").Place(m, Point{3, 4})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTilesChanged, events[0].Kind)
	assert.Equal(t, m.ID(), events[0].MapID)
	assert.Equal(t, r.ID(), events[0].RegionID)
	assert.Equal(t, "3,4", events[0].Detail)
}
