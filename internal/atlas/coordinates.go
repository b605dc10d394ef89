package atlas

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/numerals"
)

// Map size bounds in tiles.
var (
	MinimumSize = Size{Width: 1, Height: 1}
	MaximumSize = Size{Width: 1000, Height: 1000}
	DefaultSize = Size{Width: 10, Height: 10}
)

// Origin names the screen corner that maps to logical (0,0).
type Origin int

const (
	OriginTopLeft Origin = iota
	OriginTopRight
	OriginBottomLeft
	OriginBottomRight
)

var originNames = map[Origin]string{
	OriginTopLeft:     "topLeft",
	OriginTopRight:    "topRight",
	OriginBottomLeft:  "bottomLeft",
	OriginBottomRight: "bottomRight",
}

func (o Origin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Origin(%d)", int(o))
}

// IsValid reports whether o is one of the four corners.
func (o Origin) IsValid() bool {
	_, ok := originNames[o]
	return ok
}

// ParseOrigin resolves a corner name such as "bottomLeft".
func ParseOrigin(name string) (Origin, error) {
	for o, n := range originNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown origin %q", name)
}

// NumeralCoordinates are the axis labels of one logical position.
type NumeralCoordinates struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// CoordinateSystem holds the size, origin, margin, offset and axis numerals
// of one map and translates screen grid positions into logical ones.
type CoordinateSystem struct {
	notifier
	mapID    string
	size     Size
	origin   Origin
	margin   float64
	offset   PointF
	numeralX numerals.Converter
	numeralY numerals.Converter
}

func newCoordinateSystem(mapID string) *CoordinateSystem {
	return &CoordinateSystem{
		mapID:    mapID,
		size:     DefaultSize,
		origin:   OriginBottomLeft,
		numeralX: numerals.Create(numerals.Numeric),
		numeralY: numerals.Create(numerals.Numeric),
	}
}

func (cs *CoordinateSystem) Size() Size                   { return cs.size }
func (cs *CoordinateSystem) Origin() Origin               { return cs.origin }
func (cs *CoordinateSystem) Margin() float64              { return cs.margin }
func (cs *CoordinateSystem) Offset() PointF               { return cs.offset }
func (cs *CoordinateSystem) NumeralX() numerals.Converter { return cs.numeralX }
func (cs *CoordinateSystem) NumeralY() numerals.Converter { return cs.numeralY }

func (cs *CoordinateSystem) changed(kind EventKind, detail string) {
	cs.emit(Event{Kind: kind, MapID: cs.mapID, Detail: detail})
}

// Resize applies size only if it lies within [MinimumSize, MaximumSize].
// Out of range sizes are ignored, not clamped. It reports whether the size changed.
func (cs *CoordinateSystem) Resize(size Size) bool {
	if !size.Within(MinimumSize, MaximumSize) || size == cs.size {
		return false
	}
	cs.size = size
	cs.changed(EventSizeChanged, size.String())
	return true
}

// SetOrigin reports whether the origin changed.
func (cs *CoordinateSystem) SetOrigin(origin Origin) bool {
	if !origin.IsValid() || origin == cs.origin {
		return false
	}
	cs.origin = origin
	cs.changed(EventOriginChanged, origin.String())
	return true
}

// SetMargin accepts finite non-negative margins and reports whether the margin changed.
func (cs *CoordinateSystem) SetMargin(margin float64) bool {
	if !validMargin(margin) || margin == cs.margin {
		return false
	}
	cs.margin = margin
	cs.changed(EventMarginChanged, fmt.Sprintf("%g", margin))
	return true
}

// SetOffset reports whether the offset changed.
func (cs *CoordinateSystem) SetOffset(offset PointF) bool {
	if !finite(offset.X) || !finite(offset.Y) || offset == cs.offset {
		return false
	}
	cs.offset = offset
	cs.changed(EventOffsetChanged, fmt.Sprintf("%g,%g", offset.X, offset.Y))
	return true
}

// SetNumeralXAxis switches the X axis labels to the named converter.
func (cs *CoordinateSystem) SetNumeralXAxis(name string) bool {
	return cs.setNumeral(&cs.numeralX, "x", name)
}

// SetNumeralYAxis switches the Y axis labels to the named converter.
func (cs *CoordinateSystem) SetNumeralYAxis(name string) bool {
	return cs.setNumeral(&cs.numeralY, "y", name)
}

func (cs *CoordinateSystem) setNumeral(target *numerals.Converter, axis, name string) bool {
	c := numerals.Create(name)
	if !c.IsValid() || (*target).Name() == name {
		return false
	}
	*target = c
	cs.changed(EventNumeralChanged, axis+"="+name)
	return true
}

// InnerRect is the drawable area of the map: the tiles themselves, shifted
// by one tile for the axis labels plus the margin.
func (cs *CoordinateSystem) InnerRect(tileSize float64) RectF {
	border := tileSize + cs.margin*tileSize
	return RectF{
		X:      border,
		Y:      border,
		Width:  float64(cs.size.Width) * tileSize,
		Height: float64(cs.size.Height) * tileSize,
	}
}

// OuterRect is the inner rect grown by the axis label and margin border on every side.
func (cs *CoordinateSystem) OuterRect(tileSize float64) RectF {
	inner := cs.InnerRect(tileSize)
	return RectF{
		Width:  inner.Width + 2*inner.X,
		Height: inner.Height + 2*inner.Y,
	}
}

// TranslateToMap converts a screen grid position into logical map coordinates.
// The axes are flipped according to the origin corner before the offset is added.
func (cs *CoordinateSystem) TranslateToMap(p Point) PointF {
	x, y := p.X, p.Y
	switch cs.origin {
	case OriginTopRight:
		x = cs.size.Width - 1 - x
	case OriginBottomLeft:
		y = cs.size.Height - 1 - y
	case OriginBottomRight:
		x = cs.size.Width - 1 - x
		y = cs.size.Height - 1 - y
	}
	return PointF{X: float64(x), Y: float64(y)}.Add(cs.offset)
}

// NumeralCoordinates labels an already translated logical position.
func (cs *CoordinateSystem) NumeralCoordinates(p PointF) NumeralCoordinates {
	return NumeralCoordinates{
		X: cs.numeralX.Convert(int(math.Floor(p.X))),
		Y: cs.numeralY.Convert(int(math.Floor(p.Y))),
	}
}

// Document returns the structured form of the coordinate system.
func (cs *CoordinateSystem) Document() models.CoordinateSystemDoc {
	origin := cs.origin.String()
	margin := cs.margin
	return models.CoordinateSystemDoc{
		Origin:   &origin,
		Size:     &models.SizeDoc{Width: cs.size.Width, Height: cs.size.Height},
		Margin:   &margin,
		Offset:   &models.PointFDoc{X: cs.offset.X, Y: cs.offset.Y},
		Numerals: &models.NumeralsDoc{X: cs.numeralX.Name(), Y: cs.numeralY.Name()},
	}
}

// ApplyDocument validates doc completely and only then applies it.
// Structurally wrong values fail with ErrCorruptDocument; absent optional
// fields fall back to their defaults.
func (cs *CoordinateSystem) ApplyDocument(doc models.CoordinateSystemDoc) error {
	if doc.Size == nil {
		return fmt.Errorf("%w: coordinate system size is required", ErrCorruptDocument)
	}
	size := Size{Width: doc.Size.Width, Height: doc.Size.Height}
	if !size.Within(MinimumSize, MaximumSize) {
		return fmt.Errorf("%w: map size %s out of bounds", ErrCorruptDocument, size)
	}

	origin := OriginBottomLeft
	if doc.Origin != nil {
		o, err := ParseOrigin(*doc.Origin)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		origin = o
	}

	var margin float64
	if doc.Margin != nil {
		if !validMargin(*doc.Margin) {
			return fmt.Errorf("%w: invalid margin %g", ErrCorruptDocument, *doc.Margin)
		}
		margin = *doc.Margin
	}

	var offset PointF
	if doc.Offset != nil {
		offset = PointF{X: doc.Offset.X, Y: doc.Offset.Y}
		if !finite(offset.X) || !finite(offset.Y) {
			return fmt.Errorf("%w: invalid offset %g,%g", ErrCorruptDocument, offset.X, offset.Y)
		}
	}

	numeralX := numerals.Create(numerals.Numeric)
	numeralY := numerals.Create(numerals.Numeric)
	if doc.Numerals != nil {
		numeralX = numerals.Create(doc.Numerals.X)
		numeralY = numerals.Create(doc.Numerals.Y)
		if !numeralX.IsValid() || !numeralY.IsValid() {
			return fmt.Errorf("%w: unknown numerals %q/%q", ErrCorruptDocument, doc.Numerals.X, doc.Numerals.Y)
		}
	}

	cs.Resize(size)
	cs.SetOrigin(origin)
	cs.SetMargin(margin)
	cs.SetOffset(offset)
	cs.SetNumeralXAxis(numeralX.Name())
	cs.SetNumeralYAxis(numeralY.Name())
	return nil
}

// MarshalJSON encodes the coordinate system as its document.
func (cs *CoordinateSystem) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Document())
}

// UnmarshalJSON rejects values of the wrong type instead of defaulting them.
func (cs *CoordinateSystem) UnmarshalJSON(data []byte) error {
	var doc models.CoordinateSystemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if cs.numeralX == nil {
		*cs = *newCoordinateSystem(cs.mapID)
	}
	return cs.ApplyDocument(doc)
}

func validMargin(m float64) bool {
	return finite(m) && m >= 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
