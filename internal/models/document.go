package models

// AtlasDoc is the persisted logical document tree rooted at an atlas.
type AtlasDoc struct {
	Name    string      `json:"name" msgpack:"name"`
	Regions []RegionDoc `json:"regions" msgpack:"regions"`
}

// RegionDoc is a persisted region and its maps in insertion order.
type RegionDoc struct {
	ID         string   `json:"id,omitempty" msgpack:"id,omitempty"`
	Name       string   `json:"name" msgpack:"name"`
	OrderValue int      `json:"orderValue" msgpack:"orderValue"`
	Maps       []MapDoc `json:"maps" msgpack:"maps"`
}

// MapDoc is a persisted map.
type MapDoc struct {
	ID               string              `json:"id,omitempty" msgpack:"id,omitempty"`
	Name             string              `json:"name" msgpack:"name"`
	CoordinateSystem CoordinateSystemDoc `json:"coordinateSystem" msgpack:"coordinateSystem"`
	Layers           LayersDoc           `json:"layers" msgpack:"layers"`
}

// CoordinateSystemDoc is the structured form of a map's coordinate system.
// Size is required; absent optional fields take their defaults on load.
type CoordinateSystemDoc struct {
	Origin   *string      `json:"origin,omitempty" msgpack:"origin,omitempty"`
	Size     *SizeDoc     `json:"size" msgpack:"size"`
	Margin   *float64     `json:"margin,omitempty" msgpack:"margin,omitempty"`
	Offset   *PointFDoc   `json:"offset,omitempty" msgpack:"offset,omitempty"`
	Numerals *NumeralsDoc `json:"numerals,omitempty" msgpack:"numerals,omitempty"`
}

// SizeDoc is a width x height pair.
type SizeDoc struct {
	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`
}

// PointFDoc is a float point.
type PointFDoc struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// NumeralsDoc names the numeral converters of both axes.
type NumeralsDoc struct {
	X string `json:"x" msgpack:"x"`
	Y string `json:"y" msgpack:"y"`
}

// LayersDoc holds every layer of a map. Base and tile layers are listed low to high.
type LayersDoc struct {
	Axis       LayerDoc   `json:"axis" msgpack:"axis"`
	Background LayerDoc   `json:"background" msgpack:"background"`
	Base       []LayerDoc `json:"base" msgpack:"base"`
	Grid       LayerDoc   `json:"grid" msgpack:"grid"`
	Tile       []LayerDoc `json:"tile" msgpack:"tile"`
	Text       LayerDoc   `json:"text" msgpack:"text"`
}

// LayerDoc is a persisted layer: its attributes and, for base and tile layers, its fields.
type LayerDoc struct {
	Attributes map[string]string `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Fields     []FieldDoc        `json:"fields,omitempty" msgpack:"fields,omitempty"`
}

// FieldDoc lists the tiles placed at one position, in placement order.
type FieldDoc struct {
	X     int       `json:"x" msgpack:"x"`
	Y     int       `json:"y" msgpack:"y"`
	Tiles []TileDoc `json:"tiles" msgpack:"tiles"`
}

// TileDoc is a persisted tile.
type TileDoc struct {
	Attributes map[string]string `json:"attributes" msgpack:"attributes"`
}
