package atlas

import (
	"fmt"
	"strconv"
)

// TileKind is the variant tag of a tile, stored in its "type" attribute.
type TileKind string

const (
	TileColor TileKind = "color"
	TileShape TileKind = "shape"
)

// Tile attribute keys beyond the layer keys.
const (
	AttrType     = "type"
	AttrPath     = "path"
	AttrRotation = "rotation"
)

// InsertMode decides what happens to co-located tiles on placement.
type InsertMode int

const (
	// InsertAdditive appends the tile and keeps existing ones.
	InsertAdditive InsertMode = iota
	// InsertExclusive evicts every tile on the target field first.
	InsertExclusive
)

func (m InsertMode) String() string {
	if m == InsertExclusive {
		return "exclusive"
	}
	return "additive"
}

// ParseInsertMode accepts "additive", "exclusive" or "" (additive).
func ParseInsertMode(name string) (InsertMode, error) {
	switch name {
	case "", "additive":
		return InsertAdditive, nil
	case "exclusive":
		return InsertExclusive, nil
	}
	return InsertAdditive, fmt.Errorf("unknown insert mode %q", name)
}

// ShapeInfo is what a shape resource declares about its placement.
type ShapeInfo struct {
	Layer  LayerKind
	ZIndex int
	Insert InsertMode
}

// ShapeResolver looks up the placement of a shape resource by path.
type ShapeResolver interface {
	Shape(path string) (ShapeInfo, bool)
}

// DefaultShapeInfo is used for shapes when no resolver is available.
var DefaultShapeInfo = ShapeInfo{Layer: LayerTile, ZIndex: 0, Insert: InsertAdditive}

// Tile is a placeable content unit. It is created unplaced; Place returns a
// placed copy that knows its map and position.
type Tile struct {
	attributes map[string]string
	target     LayerKind
	zIndex     int
	mode       InsertMode

	placed   bool
	mapID    string
	position Point
}

// NewColorTile creates a tile filling a field of the lowest base layer.
func NewColorTile(color string) *Tile {
	return &Tile{
		attributes: map[string]string{AttrType: string(TileColor), AttrColor: color},
		target:     LayerBase,
		mode:       InsertExclusive,
	}
}

// NewShapeTile creates a tile drawing the shape at path. A zero rotation is not stored.
func NewShapeTile(path string, rotation float64, info ShapeInfo) *Tile {
	attrs := map[string]string{AttrType: string(TileShape), AttrPath: path}
	if rotation != 0 {
		attrs[AttrRotation] = strconv.FormatFloat(rotation, 'g', -1, 64)
	}
	return &Tile{attributes: attrs, target: info.Layer, zIndex: info.ZIndex, mode: info.Insert}
}

// NewTile is the factory keyed on attrs["type"]. Shapes are resolved through
// shapes; a nil resolver places shapes with DefaultShapeInfo.
func NewTile(attrs map[string]string, shapes ShapeResolver) (*Tile, error) {
	switch TileKind(attrs[AttrType]) {
	case TileColor:
		color := attrs[AttrColor]
		if color == "" {
			return nil, fmt.Errorf("%w: color tile without color", ErrUnknownTileType)
		}
		return NewColorTile(color), nil
	case TileShape:
		path := attrs[AttrPath]
		if path == "" {
			return nil, fmt.Errorf("%w: shape tile without path", ErrUnknownTileType)
		}
		var rotation float64
		if r, ok := attrs[AttrRotation]; ok {
			v, err := strconv.ParseFloat(r, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid rotation %q", ErrUnknownTileType, r)
			}
			rotation = v
		}
		info := DefaultShapeInfo
		if shapes != nil {
			si, ok := shapes.Shape(path)
			if !ok {
				return nil, fmt.Errorf("shape %s: %w", path, ErrNotFound)
			}
			info = si
		}
		return NewShapeTile(path, rotation, info), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTileType, attrs[AttrType])
}

// Kind returns the variant tag.
func (t *Tile) Kind() TileKind { return TileKind(t.attributes[AttrType]) }

// Attribute returns one attribute value.
func (t *Tile) Attribute(key string) string { return t.attributes[key] }

// Attributes returns a copy of the attributes.
func (t *Tile) Attributes() map[string]string {
	out := make(map[string]string, len(t.attributes))
	for k, v := range t.attributes {
		out[k] = v
	}
	return out
}

// InsertMode returns the placement mode.
func (t *Tile) InsertMode() InsertMode { return t.mode }

// Target returns the layer kind and index the tile is placed on.
func (t *Tile) Target() (LayerKind, int) { return t.target, t.zIndex }

// IsPlaced reports whether this instance sits in a field.
func (t *Tile) IsPlaced() bool { return t.placed }

// MapID is the id of the map the tile was placed on, or "".
func (t *Tile) MapID() string { return t.mapID }

// Position is where the tile was placed.
func (t *Tile) Position() Point { return t.position }

// Equal reports structural equality: same variant and attributes.
func (t *Tile) Equal(o *Tile) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.attributes) != len(o.attributes) {
		return false
	}
	for k, v := range t.attributes {
		if ov, ok := o.attributes[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (t *Tile) String() string {
	switch t.Kind() {
	case TileColor:
		return "color " + t.attributes[AttrColor]
	case TileShape:
		return "shape " + t.attributes[AttrPath]
	}
	return "tile"
}

// IsPlaceable is false iff an equal tile already occupies the target field at pos.
func (t *Tile) IsPlaceable(m *Map, pos Point) bool {
	layer, ok := m.layers.Layer(t.target, t.zIndex)
	if !ok {
		return true
	}
	f, ok := layer.Field(pos)
	if !ok {
		return true
	}
	for _, other := range f.tiles {
		if t.Equal(other) {
			return false
		}
	}
	return true
}

// Place puts a copy of t on m at pos. In exclusive mode every tile already on
// the field is evicted and returned so the placement can be reverted.
func (t *Tile) Place(m *Map, pos Point) (*Tile, []*Tile, error) {
	if !m.IsValid() {
		return nil, nil, fmt.Errorf("place %s: map %w", t, ErrNotFound)
	}
	if !t.IsPlaceable(m, pos) {
		return nil, nil, fmt.Errorf("place %s at %d,%d: %w", t, pos.X, pos.Y, ErrNotPlaceable)
	}

	placed := &Tile{
		attributes: t.Attributes(),
		target:     t.target,
		zIndex:     t.zIndex,
		mode:       t.mode,
		placed:     true,
		mapID:      m.id,
		position:   pos,
	}

	layer := m.layers.ensureLayer(t.target, t.zIndex)
	f := layer.fieldAt(pos)
	var evicted []*Tile
	if t.mode == InsertExclusive && len(f.tiles) > 0 {
		evicted = f.tiles
		for _, e := range evicted {
			e.placed = false
		}
		f.tiles = nil
	}
	f.tiles = append(f.tiles, placed)
	m.tilesChanged(pos)
	return placed, evicted, nil
}

// Remove erases exactly this instance from its field on m and returns the
// index it held. It is a no-op if the tile, its field or layer is gone.
func (t *Tile) Remove(m *Map) (int, bool) {
	if !t.placed || !m.IsValid() || m.id != t.mapID {
		return -1, false
	}
	layer, ok := m.layers.Layer(t.target, t.zIndex)
	if !ok {
		return -1, false
	}
	f, ok := layer.Field(t.position)
	if !ok {
		return -1, false
	}
	for i, other := range f.tiles {
		if other == t {
			f.tiles = append(f.tiles[:i:i], f.tiles[i+1:]...)
			layer.dropIfEmpty(f)
			t.placed = false
			m.tilesChanged(t.position)
			return i, true
		}
	}
	return -1, false
}

// restore puts a previously placed instance back into its field at index.
func (t *Tile) restore(m *Map, index int) {
	layer := m.layers.ensureLayer(t.target, t.zIndex)
	f := layer.fieldAt(t.position)
	if index < 0 || index > len(f.tiles) {
		index = len(f.tiles)
	}
	f.tiles = append(f.tiles[:index], append([]*Tile{t}, f.tiles[index:]...)...)
	t.placed = true
	m.tilesChanged(t.position)
}

// Field is the ordered set of tiles at one position of one layer.
type Field struct {
	position Point
	tiles    []*Tile
}

// Position returns where the field sits.
func (f *Field) Position() Point { return f.position }

// Tiles returns the tiles in placement order.
func (f *Field) Tiles() []*Tile { return append([]*Tile(nil), f.tiles...) }

// Len returns the number of tiles.
func (f *Field) Len() int { return len(f.tiles) }
