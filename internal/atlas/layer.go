package atlas

import (
	"fmt"
	"sort"
)

// LayerKind identifies the role of a layer in the stack.
type LayerKind string

const (
	LayerBackground LayerKind = "background"
	LayerBase       LayerKind = "base"
	LayerGrid       LayerKind = "grid"
	LayerAxis       LayerKind = "axis"
	LayerTile       LayerKind = "tile"
	LayerText       LayerKind = "text"
)

// ParseLayerKind accepts the layer kinds a tile may target.
func ParseLayerKind(name string) (LayerKind, error) {
	switch k := LayerKind(name); k {
	case LayerBase, LayerTile:
		return k, nil
	}
	return "", fmt.Errorf("layer %q cannot hold tiles", name)
}

// Layer attribute keys.
const (
	AttrColor           = "color"
	AttrImage           = "image"
	AttrRendering       = "rendering"
	AttrImageRenderMode = "imageRenderMode"
	AttrFont            = "font"
	AttrFontColor       = "fontColor"
)

// Background rendering values.
const (
	RenderingPlain = "plain"
	RenderingImage = "image"
)

// Background image render modes.
const (
	ImageRenderPlain  = "plain"
	ImageRenderScaled = "scaled"
	ImageRenderTiled  = "tiled"
)

var layerDefaults = map[LayerKind]map[string]string{
	LayerBackground: {
		AttrColor:           "#ffffff",
		AttrRendering:       RenderingPlain,
		AttrImageRenderMode: ImageRenderPlain,
	},
	LayerGrid: {
		AttrColor: "#202020",
	},
	LayerAxis: {
		AttrFont:      "Sans,10",
		AttrFontColor: "#000000",
	},
	LayerText: {
		AttrFont:      "Sans,12",
		AttrFontColor: "#000000",
	},
}

// Layer is one drawing layer of a map. Base and tile layers hold fields of tiles.
type Layer struct {
	notifier
	kind       LayerKind
	index      int
	mapID      string
	attributes map[string]string
	fields     map[Point]*Field
}

func newLayer(kind LayerKind, index int, mapID string, parent *notifier) *Layer {
	l := &Layer{
		kind:       kind,
		index:      index,
		mapID:      mapID,
		attributes: make(map[string]string),
		fields:     make(map[Point]*Field),
	}
	l.parent = parent
	for k, v := range layerDefaults[kind] {
		l.attributes[k] = v
	}
	return l
}

// Kind returns the layer role.
func (l *Layer) Kind() LayerKind { return l.kind }

// Index is the position within the base or tile layer sequence; zero for singletons.
func (l *Layer) Index() int { return l.index }

// MapID identifies the owning map.
func (l *Layer) MapID() string { return l.mapID }

// Attribute returns the value of key, or "" when unset.
func (l *Layer) Attribute(key string) string { return l.attributes[key] }

// Attributes returns a copy of all attributes.
func (l *Layer) Attributes() map[string]string {
	out := make(map[string]string, len(l.attributes))
	for k, v := range l.attributes {
		out[k] = v
	}
	return out
}

// SetAttribute reports whether the value changed. An empty value removes the
// attribute, except for attributes that carry a default, which cannot be cleared.
func (l *Layer) SetAttribute(key, value string) bool {
	old, ok := l.attributes[key]
	if value == "" {
		if _, hasDefault := layerDefaults[l.kind][key]; hasDefault || !ok {
			return false
		}
		delete(l.attributes, key)
	} else {
		if ok && old == value {
			return false
		}
		l.attributes[key] = value
	}
	l.emit(Event{Kind: EventLayerChanged, MapID: l.mapID, Name: string(l.kind), Detail: key})
	return true
}

// Field returns the field at pos if any tile sits there.
func (l *Layer) Field(pos Point) (*Field, bool) {
	f, ok := l.fields[pos]
	return f, ok
}

// Fields returns all non-empty fields ordered by row, then column.
func (l *Layer) Fields() []*Field {
	out := make([]*Field, 0, len(l.fields))
	for _, f := range l.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].position, out[j].position
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

func (l *Layer) fieldAt(pos Point) *Field {
	f, ok := l.fields[pos]
	if !ok {
		f = &Field{position: pos}
		l.fields[pos] = f
	}
	return f
}

// dropIfEmpty removes a field once its last tile is gone.
func (l *Layer) dropIfEmpty(f *Field) {
	if len(f.tiles) == 0 {
		delete(l.fields, f.position)
	}
}

// LayerStack is the fixed-order composition of a map's layers.
type LayerStack struct {
	mapID      string
	parent     *notifier
	background *Layer
	grid       *Layer
	axis       *Layer
	text       *Layer
	base       []*Layer
	tile       []*Layer
}

func newLayerStack(mapID string, parent *notifier) *LayerStack {
	s := &LayerStack{mapID: mapID, parent: parent}
	s.background = newLayer(LayerBackground, 0, mapID, parent)
	s.grid = newLayer(LayerGrid, 0, mapID, parent)
	s.axis = newLayer(LayerAxis, 0, mapID, parent)
	s.text = newLayer(LayerText, 0, mapID, parent)
	s.base = []*Layer{newLayer(LayerBase, 0, mapID, parent)}
	s.tile = []*Layer{newLayer(LayerTile, 0, mapID, parent)}
	return s
}

func (s *LayerStack) Background() *Layer { return s.background }
func (s *LayerStack) Grid() *Layer       { return s.grid }
func (s *LayerStack) Axis() *Layer       { return s.axis }
func (s *LayerStack) Text() *Layer       { return s.text }

// BaseLayers returns the base layers, lowest first.
func (s *LayerStack) BaseLayers() []*Layer { return append([]*Layer(nil), s.base...) }

// TileLayers returns the tile layers, lowest first.
func (s *LayerStack) TileLayers() []*Layer { return append([]*Layer(nil), s.tile...) }

// Layer returns the base or tile layer at index, if it exists.
func (s *LayerStack) Layer(kind LayerKind, index int) (*Layer, bool) {
	var layers []*Layer
	switch kind {
	case LayerBase:
		layers = s.base
	case LayerTile:
		layers = s.tile
	default:
		return nil, false
	}
	if index < 0 || index >= len(layers) {
		return nil, false
	}
	return layers[index], true
}

// ensureLayer returns the base or tile layer at index, appending fresh empty
// layers when the sequence is shorter.
func (s *LayerStack) ensureLayer(kind LayerKind, index int) *Layer {
	if index < 0 {
		index = 0
	}
	layers := &s.base
	if kind == LayerTile {
		layers = &s.tile
	}
	for len(*layers) <= index {
		*layers = append(*layers, newLayer(kind, len(*layers), s.mapID, s.parent))
	}
	return (*layers)[index]
}

// All returns every layer in draw order.
func (s *LayerStack) All() []*Layer {
	return s.CollectVisibleLayers(true, true)
}

// CollectVisibleLayers returns the layers in draw order: background, base
// layers, grid, axis, tile layers, text. Grid and axis are omitted when hidden.
func (s *LayerStack) CollectVisibleLayers(showGrid, showAxis bool) []*Layer {
	out := make([]*Layer, 0, 4+len(s.base)+len(s.tile))
	out = append(out, s.background)
	out = append(out, s.base...)
	if showGrid {
		out = append(out, s.grid)
	}
	if showAxis {
		out = append(out, s.axis)
	}
	out = append(out, s.tile...)
	out = append(out, s.text)
	return out
}
