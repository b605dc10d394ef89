package models

// LayerInfo describes one layer of a map in draw order.
type LayerInfo struct {
	Kind       string            `json:"kind"`
	Index      int               `json:"index"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Fields     []FieldDoc        `json:"fields,omitempty"`
}

// RectDoc is a pixel rectangle.
type RectDoc struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CoordinateInfo is a screen position translated into map coordinates.
type CoordinateInfo struct {
	Screen   PointDoc  `json:"screen"`
	Logical  PointFDoc `json:"logical"`
	NumeralX string    `json:"numeralX"`
	NumeralY string    `json:"numeralY"`
	Inner    RectDoc   `json:"inner"`
	Outer    RectDoc   `json:"outer"`
	TileSize float64   `json:"tileSize"`
}

// SaveResult reports a saved session.
type SaveResult struct {
	File             *AtlasFileInfo `json:"file"`
	Session          EditorSession  `json:"session"`
	MissingResources []string       `json:"missingResources,omitempty"`
}
