package command

import (
	"fmt"
	"slices"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/numerals"
)

// ResizeMap changes the size of a map.
type ResizeMap struct {
	atlas   *atlas.Atlas
	mapID   string
	oldSize atlas.Size
	newSize atlas.Size
}

func NewResizeMap(a *atlas.Atlas, mapID string, size atlas.Size) *ResizeMap {
	return &ResizeMap{atlas: a, mapID: mapID, oldSize: a.MapByID(mapID).CoordinateSystem().Size(), newSize: size}
}

func (c *ResizeMap) Execute() error {
	if !c.newSize.Within(atlas.MinimumSize, atlas.MaximumSize) {
		return fmt.Errorf("%w: size %s outside %s..%s", ErrPrecondition, c.newSize, atlas.MinimumSize, atlas.MaximumSize)
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldSize = m.CoordinateSystem().Size()
	m.CoordinateSystem().Resize(c.newSize)
	return nil
}

func (c *ResizeMap) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	m.CoordinateSystem().Resize(c.oldSize)
	return nil
}

func (c *ResizeMap) Describe() string {
	return fmt.Sprintf("Resize map to %s", c.newSize)
}

// SetMapOrigin moves the logical origin to another corner.
type SetMapOrigin struct {
	atlas     *atlas.Atlas
	mapID     string
	oldOrigin atlas.Origin
	newOrigin atlas.Origin
}

func NewSetMapOrigin(a *atlas.Atlas, mapID string, origin atlas.Origin) *SetMapOrigin {
	return &SetMapOrigin{atlas: a, mapID: mapID, oldOrigin: a.MapByID(mapID).CoordinateSystem().Origin(), newOrigin: origin}
}

func (c *SetMapOrigin) Execute() error {
	if !c.newOrigin.IsValid() {
		return fmt.Errorf("%w: origin %s", ErrPrecondition, c.newOrigin)
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldOrigin = m.CoordinateSystem().Origin()
	m.CoordinateSystem().SetOrigin(c.newOrigin)
	return nil
}

func (c *SetMapOrigin) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	m.CoordinateSystem().SetOrigin(c.oldOrigin)
	return nil
}

func (c *SetMapOrigin) Describe() string {
	return fmt.Sprintf("Set map origin to %s", c.newOrigin)
}

// SetMapMargin changes the margin around the map, in tiles.
type SetMapMargin struct {
	atlas     *atlas.Atlas
	mapID     string
	oldMargin float64
	newMargin float64
}

func NewSetMapMargin(a *atlas.Atlas, mapID string, margin float64) *SetMapMargin {
	return &SetMapMargin{atlas: a, mapID: mapID, oldMargin: a.MapByID(mapID).CoordinateSystem().Margin(), newMargin: margin}
}

func (c *SetMapMargin) Execute() error {
	if !(c.newMargin >= 0) {
		return fmt.Errorf("%w: margin %g", ErrPrecondition, c.newMargin)
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldMargin = m.CoordinateSystem().Margin()
	m.CoordinateSystem().SetMargin(c.newMargin)
	return nil
}

func (c *SetMapMargin) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	m.CoordinateSystem().SetMargin(c.oldMargin)
	return nil
}

func (c *SetMapMargin) Describe() string {
	return fmt.Sprintf("Set map margin to %g", c.newMargin)
}

// Axis selects the X or Y axis of a map.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// SetMapNumeralAxis switches the numeral converter labelling one axis.
type SetMapNumeralAxis struct {
	atlas   *atlas.Atlas
	mapID   string
	axis    Axis
	oldName string
	newName string
}

func NewSetMapNumeralAxis(a *atlas.Atlas, mapID string, axis Axis, name string) *SetMapNumeralAxis {
	c := &SetMapNumeralAxis{atlas: a, mapID: mapID, axis: axis, newName: name}
	c.oldName = c.current(a.MapByID(mapID))
	return c
}

func (c *SetMapNumeralAxis) current(m *atlas.Map) string {
	if c.axis == AxisY {
		return m.CoordinateSystem().NumeralY().Name()
	}
	return m.CoordinateSystem().NumeralX().Name()
}

func (c *SetMapNumeralAxis) apply(m *atlas.Map, name string) {
	if c.axis == AxisY {
		m.CoordinateSystem().SetNumeralYAxis(name)
		return
	}
	m.CoordinateSystem().SetNumeralXAxis(name)
}

func (c *SetMapNumeralAxis) Execute() error {
	if c.axis != AxisX && c.axis != AxisY {
		return fmt.Errorf("%w: unknown axis %q", ErrPrecondition, c.axis)
	}
	if !numerals.IsKnown(c.newName) {
		return fmt.Errorf("%w: unknown numerals %q", ErrPrecondition, c.newName)
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldName = c.current(m)
	c.apply(m, c.newName)
	return nil
}

func (c *SetMapNumeralAxis) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.apply(m, c.oldName)
	return nil
}

func (c *SetMapNumeralAxis) Describe() string {
	return fmt.Sprintf("Set %s axis numerals to %s", c.axis, c.newName)
}

// SetMapNumeralOffset shifts the logical coordinates shown on the axes.
type SetMapNumeralOffset struct {
	atlas     *atlas.Atlas
	mapID     string
	oldOffset atlas.PointF
	newOffset atlas.PointF
}

func NewSetMapNumeralOffset(a *atlas.Atlas, mapID string, offset atlas.PointF) *SetMapNumeralOffset {
	return &SetMapNumeralOffset{atlas: a, mapID: mapID, oldOffset: a.MapByID(mapID).CoordinateSystem().Offset(), newOffset: offset}
}

func (c *SetMapNumeralOffset) Execute() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldOffset = m.CoordinateSystem().Offset()
	m.CoordinateSystem().SetOffset(c.newOffset)
	return nil
}

func (c *SetMapNumeralOffset) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	m.CoordinateSystem().SetOffset(c.oldOffset)
	return nil
}

func (c *SetMapNumeralOffset) Describe() string {
	return fmt.Sprintf("Set map numeral offset to %g,%g", c.newOffset.X, c.newOffset.Y)
}

// SetMapLayerAttribute changes one attribute of a singleton layer. The
// SetMap* constructors below build the concrete variants.
type SetMapLayerAttribute struct {
	atlas    *atlas.Atlas
	mapID    string
	kind     atlas.LayerKind
	key      string
	label    string
	allowed  []string
	oldValue string
	newValue string
}

func newSetMapLayerAttribute(a *atlas.Atlas, mapID string, kind atlas.LayerKind, key, label, value string, allowed ...string) *SetMapLayerAttribute {
	c := &SetMapLayerAttribute{atlas: a, mapID: mapID, kind: kind, key: key, label: label, allowed: allowed, newValue: value}
	if l := c.layer(a.MapByID(mapID)); l != nil {
		c.oldValue = l.Attribute(key)
	}
	return c
}

// NewSetMapAxisFont sets the font of the axis labels.
func NewSetMapAxisFont(a *atlas.Atlas, mapID, font string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerAxis, atlas.AttrFont, "axis font", font)
}

// NewSetMapAxisFontColor sets the color of the axis labels.
func NewSetMapAxisFontColor(a *atlas.Atlas, mapID, color string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerAxis, atlas.AttrFontColor, "axis font color", color)
}

// NewSetMapGridColor sets the color of the grid lines.
func NewSetMapGridColor(a *atlas.Atlas, mapID, color string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerGrid, atlas.AttrColor, "grid color", color)
}

// NewSetMapBackgroundColor sets the plain background color.
func NewSetMapBackgroundColor(a *atlas.Atlas, mapID, color string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerBackground, atlas.AttrColor, "background color", color)
}

// NewSetMapBackgroundImage sets the resource path of the background image.
// An empty path removes the image.
func NewSetMapBackgroundImage(a *atlas.Atlas, mapID, path string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerBackground, atlas.AttrImage, "background image", path)
}

// NewSetMapBackgroundRendering switches between plain color and image rendering.
func NewSetMapBackgroundRendering(a *atlas.Atlas, mapID, rendering string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerBackground, atlas.AttrRendering, "background rendering", rendering,
		atlas.RenderingPlain, atlas.RenderingImage)
}

// NewSetMapBackgroundImageRenderMode sets how the background image fills the map.
func NewSetMapBackgroundImageRenderMode(a *atlas.Atlas, mapID, mode string) *SetMapLayerAttribute {
	return newSetMapLayerAttribute(a, mapID, atlas.LayerBackground, atlas.AttrImageRenderMode, "background image render mode", mode,
		atlas.ImageRenderPlain, atlas.ImageRenderScaled, atlas.ImageRenderTiled)
}

func (c *SetMapLayerAttribute) layer(m *atlas.Map) *atlas.Layer {
	switch c.kind {
	case atlas.LayerAxis:
		return m.Layers().Axis()
	case atlas.LayerGrid:
		return m.Layers().Grid()
	case atlas.LayerBackground:
		return m.Layers().Background()
	case atlas.LayerText:
		return m.Layers().Text()
	}
	return nil
}

func (c *SetMapLayerAttribute) Execute() error {
	if c.newValue == "" && c.key != atlas.AttrImage {
		return fmt.Errorf("%w: empty %s", ErrPrecondition, c.label)
	}
	if len(c.allowed) > 0 && !slices.Contains(c.allowed, c.newValue) {
		return fmt.Errorf("%w: invalid %s %q", ErrPrecondition, c.label, c.newValue)
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	l := c.layer(m)
	if l == nil {
		return fmt.Errorf("%w: no %s layer", ErrPrecondition, c.kind)
	}
	c.oldValue = l.Attribute(c.key)
	l.SetAttribute(c.key, c.newValue)
	return nil
}

func (c *SetMapLayerAttribute) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	if l := c.layer(m); l != nil {
		l.SetAttribute(c.key, c.oldValue)
	}
	return nil
}

func (c *SetMapLayerAttribute) Describe() string {
	if c.newValue == "" {
		return fmt.Sprintf("Clear map %s", c.label)
	}
	return fmt.Sprintf("Set map %s to %s", c.label, c.newValue)
}
