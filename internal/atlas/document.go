package atlas

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rpgmapper/backend/internal/models"
)

// Document returns the logical document tree of the atlas.
func (a *Atlas) Document() models.AtlasDoc {
	doc := models.AtlasDoc{Name: a.name, Regions: make([]models.RegionDoc, 0, len(a.regions))}
	for _, r := range a.regions {
		doc.Regions = append(doc.Regions, r.Document())
	}
	return doc
}

// Document returns the persisted form of the region.
func (r *Region) Document() models.RegionDoc {
	doc := models.RegionDoc{ID: r.id, Name: r.name, OrderValue: r.orderValue, Maps: make([]models.MapDoc, 0, len(r.maps))}
	for _, m := range r.maps {
		doc.Maps = append(doc.Maps, m.Document())
	}
	return doc
}

// Document returns the persisted form of the map.
func (m *Map) Document() models.MapDoc {
	s := m.layers
	layers := models.LayersDoc{
		Axis:       layerDocument(s.axis),
		Background: layerDocument(s.background),
		Grid:       layerDocument(s.grid),
		Text:       layerDocument(s.text),
		Base:       make([]models.LayerDoc, 0, len(s.base)),
		Tile:       make([]models.LayerDoc, 0, len(s.tile)),
	}
	for _, l := range s.base {
		layers.Base = append(layers.Base, layerDocument(l))
	}
	for _, l := range s.tile {
		layers.Tile = append(layers.Tile, layerDocument(l))
	}
	return models.MapDoc{
		ID:               m.id,
		Name:             m.name,
		CoordinateSystem: m.cs.Document(),
		Layers:           layers,
	}
}

// Document returns the persisted form of the layer.
func (l *Layer) Document() models.LayerDoc { return layerDocument(l) }

func layerDocument(l *Layer) models.LayerDoc {
	doc := models.LayerDoc{}
	if len(l.attributes) > 0 {
		doc.Attributes = l.Attributes()
	}
	for _, f := range l.Fields() {
		fd := models.FieldDoc{X: f.position.X, Y: f.position.Y, Tiles: make([]models.TileDoc, 0, len(f.tiles))}
		for _, t := range f.tiles {
			fd.Tiles = append(fd.Tiles, models.TileDoc{Attributes: t.Attributes()})
		}
		doc.Fields = append(doc.Fields, fd)
	}
	return doc
}

// FromDocument builds a fresh atlas from a document. Any structural problem
// fails the whole load with ErrCorruptDocument; nothing is partially built.
func FromDocument(doc models.AtlasDoc) (*Atlas, error) {
	if !IsValidName(doc.Name) {
		return nil, fmt.Errorf("%w: atlas name %q", ErrCorruptDocument, doc.Name)
	}
	a := New(doc.Name)
	ids := make(map[string]struct{})
	for i, rd := range doc.Regions {
		r, err := regionFromDocument(rd, ids)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		if err := a.InsertRegion(r, len(a.regions)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
	}
	return a, nil
}

func regionFromDocument(doc models.RegionDoc, ids map[string]struct{}) (*Region, error) {
	r := newRegion(documentID(doc.ID, ids), doc.Name)
	r.orderValue = doc.OrderValue
	for i, md := range doc.Maps {
		m, err := mapFromDocument(md, ids)
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}
		if err := r.InsertMap(m, len(r.maps)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
	}
	return r, nil
}

func mapFromDocument(doc models.MapDoc, ids map[string]struct{}) (*Map, error) {
	m := newMap(documentID(doc.ID, ids), doc.Name)
	if err := m.cs.ApplyDocument(doc.CoordinateSystem); err != nil {
		return nil, err
	}

	s := m.layers
	singletons := []struct {
		layer *Layer
		doc   models.LayerDoc
	}{
		{s.axis, doc.Layers.Axis},
		{s.background, doc.Layers.Background},
		{s.grid, doc.Layers.Grid},
		{s.text, doc.Layers.Text},
	}
	for _, sl := range singletons {
		if err := applyLayerDocument(m, sl.layer, sl.doc); err != nil {
			return nil, err
		}
	}
	for i, ld := range doc.Layers.Base {
		if err := applyLayerDocument(m, s.ensureLayer(LayerBase, i), ld); err != nil {
			return nil, err
		}
	}
	for i, ld := range doc.Layers.Tile {
		if err := applyLayerDocument(m, s.ensureLayer(LayerTile, i), ld); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func applyLayerDocument(m *Map, l *Layer, doc models.LayerDoc) error {
	for k, v := range doc.Attributes {
		l.attributes[k] = v
	}
	if len(doc.Fields) > 0 && l.kind != LayerBase && l.kind != LayerTile {
		return fmt.Errorf("%w: %s layer cannot hold tiles", ErrCorruptDocument, l.kind)
	}
	for _, fd := range doc.Fields {
		pos := Point{X: fd.X, Y: fd.Y}
		if _, dup := l.fields[pos]; dup {
			return fmt.Errorf("%w: duplicate field %d,%d on %s layer %d", ErrCorruptDocument, pos.X, pos.Y, l.kind, l.index)
		}
		f := &Field{position: pos}
		for _, td := range fd.Tiles {
			t, err := tileFromDocument(td, l)
			if err != nil {
				return err
			}
			t.placed = true
			t.mapID = m.id
			t.position = pos
			f.tiles = append(f.tiles, t)
		}
		if len(f.tiles) > 0 {
			l.fields[pos] = f
		}
	}
	return nil
}

// tileFromDocument rebuilds a tile sitting on layer l. The target comes from
// the layer it was saved on, not from the shape catalog.
func tileFromDocument(doc models.TileDoc, l *Layer) (*Tile, error) {
	t, err := NewTile(doc.Attributes, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	t.attributes = make(map[string]string, len(doc.Attributes))
	for k, v := range doc.Attributes {
		t.attributes[k] = v
	}
	t.target = l.kind
	t.zIndex = l.index
	return t, nil
}

// documentID keeps a stored id when it is a well-formed uuid not seen before
// in the same document, and mints a new one otherwise.
func documentID(id string, seen map[string]struct{}) string {
	if _, err := uuid.Parse(id); err != nil {
		id = newID()
	} else if _, dup := seen[id]; dup {
		id = newID()
	}
	seen[id] = struct{}{}
	return id
}
