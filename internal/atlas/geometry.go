package atlas

import "fmt"

// Point is an integer grid position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PointF is a logical position with fractional components.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by o.
func (p PointF) Add(o PointF) PointF {
	return PointF{X: p.X + o.X, Y: p.Y + o.Y}
}

// Size is a width x height pair in tiles.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Within reports whether s lies componentwise within [min, max].
func (s Size) Within(min, max Size) bool {
	return s.Width >= min.Width && s.Height >= min.Height &&
		s.Width <= max.Width && s.Height <= max.Height
}

// RectF is an axis-aligned rectangle in pixels.
type RectF struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
