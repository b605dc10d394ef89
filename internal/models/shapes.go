package models

// ShapeCatalog is the YAML declaration of the shapes a ShapeTile may reference.
type ShapeCatalog struct {
	Version string            `json:"version" yaml:"version"`
	Shapes  []ShapeDefinition `json:"shapes" yaml:"shapes"`
}

// ShapeDefinition declares where tiles of one shape resource are placed.
// Layer is "base" or "tile"; ZIndex indexes into that layer sequence.
// Insert is "additive" (default) or "exclusive".
type ShapeDefinition struct {
	Path   string `json:"path" yaml:"path"`
	Name   string `json:"name" yaml:"name"`
	Layer  string `json:"layer" yaml:"layer"`
	ZIndex int    `json:"zIndex" yaml:"z_index"`
	Insert string `json:"insert,omitempty" yaml:"insert,omitempty"`
}
