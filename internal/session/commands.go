package session

import (
	"fmt"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/command"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/numerals"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Build validates req against the current atlas and constructs the command.
// Nothing is executed.
func (s *Session) Build(req models.CommandRequest) (command.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build(req)
}

func (s *Session) build(req models.CommandRequest) (command.Command, error) {
	return s.buildWith(req, newPending(s.atlas))
}

func (s *Session) buildWith(req models.CommandRequest, p *pending) (command.Command, error) {
	a := s.atlas
	switch command.Type(req.Type) {
	case command.TypeNop:
		return command.Nop{}, nil

	case command.TypeComposite:
		if len(req.Commands) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrValidation, command.ErrEmptyComposite)
		}
		c := command.NewComposite(req.Name)
		for i, child := range req.Commands {
			cmd, err := s.buildWith(child, p)
			if err != nil {
				return nil, fmt.Errorf("command %d: %w", i, err)
			}
			c.Add(cmd)
		}
		return c, nil

	case command.TypeSetAtlasName:
		if !atlas.IsValidName(req.Name) {
			return nil, invalid("atlas name %q", req.Name)
		}
		return command.NewSetAtlasName(a, req.Name), nil

	case command.TypeCreateRegion:
		if err := p.checkRegionName(req.Name); err != nil {
			return nil, err
		}
		p.createRegion(req.Name)
		return command.NewCreateRegion(a, req.Name), nil

	case command.TypeRemoveRegion:
		r, err := p.region(req.RegionID)
		if err != nil {
			return nil, err
		}
		p.removeRegion(r)
		return command.NewRemoveRegion(a, req.RegionID), nil

	case command.TypeSetRegionName:
		r, err := p.region(req.RegionID)
		if err != nil {
			return nil, err
		}
		if p.regionName(r) != req.Name {
			if err := p.checkRegionName(req.Name); err != nil {
				return nil, err
			}
			p.renameRegion(r, req.Name)
		}
		return command.NewSetRegionName(a, req.RegionID, req.Name), nil

	case command.TypeCreateMap:
		r, err := p.region(req.RegionID)
		if err != nil {
			return nil, err
		}
		if err := p.checkMapName(r, req.Name); err != nil {
			return nil, err
		}
		p.createMap(r, req.Name)
		return command.NewCreateMap(a, req.RegionID, req.Name), nil

	case command.TypeRemoveMap:
		m, err := p.mapByID(req.MapID)
		if err != nil {
			return nil, err
		}
		p.removeMap(m)
		return command.NewRemoveMap(a, req.MapID), nil

	case command.TypeSetMapName:
		m, err := p.mapByID(req.MapID)
		if err != nil {
			return nil, err
		}
		if p.mapName(m) != req.Name {
			if err := p.checkMapName(a.RegionByID(m.RegionID()), req.Name); err != nil {
				return nil, err
			}
			p.renameMap(m, req.Name)
		}
		return command.NewSetMapName(a, req.MapID, req.Name), nil

	case command.TypeResizeMap:
		if _, err := p.mapByID(req.MapID); err != nil {
			return nil, err
		}
		if req.Size == nil {
			return nil, invalid("size is required")
		}
		size := atlas.Size{Width: req.Size.Width, Height: req.Size.Height}
		if !size.Within(atlas.MinimumSize, atlas.MaximumSize) {
			return nil, invalid("size %s must lie within %s and %s", size, atlas.MinimumSize, atlas.MaximumSize)
		}
		return command.NewResizeMap(a, req.MapID, size), nil

	case command.TypeSetMapOrigin:
		if _, err := p.mapByID(req.MapID); err != nil {
			return nil, err
		}
		origin, err := atlas.ParseOrigin(req.Origin)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return command.NewSetMapOrigin(a, req.MapID, origin), nil

	case command.TypeSetMapMargin:
		if _, err := p.mapByID(req.MapID); err != nil {
			return nil, err
		}
		if req.Margin == nil || !(*req.Margin >= 0) {
			return nil, invalid("margin must be a non-negative number")
		}
		return command.NewSetMapMargin(a, req.MapID, *req.Margin), nil

	case command.TypeSetMapNumeralAxis:
		if _, err := p.mapByID(req.MapID); err != nil {
			return nil, err
		}
		axis := command.Axis(req.Axis)
		if axis != command.AxisX && axis != command.AxisY {
			return nil, invalid("axis %q must be x or y", req.Axis)
		}
		if !numerals.IsKnown(req.Numerals) {
			return nil, invalid("unknown numerals %q, expected one of %v", req.Numerals, numerals.Names())
		}
		return command.NewSetMapNumeralAxis(a, req.MapID, axis, req.Numerals), nil

	case command.TypeSetMapNumeralOffset:
		if _, err := p.mapByID(req.MapID); err != nil {
			return nil, err
		}
		if req.Offset == nil {
			return nil, invalid("offset is required")
		}
		return command.NewSetMapNumeralOffset(a, req.MapID, atlas.PointF{X: req.Offset.X, Y: req.Offset.Y}), nil

	case command.TypeSetMapAxisFont, command.TypeSetMapAxisFontColor, command.TypeSetMapGridColor,
		command.TypeSetMapBackgroundColor, command.TypeSetMapBackgroundImage,
		command.TypeSetMapBackgroundRendering, command.TypeSetMapBackgroundImageRenderMode:
		return s.buildLayerAttribute(command.Type(req.Type), req, p)

	case command.TypePlaceTile:
		m, err := p.mapByID(req.MapID)
		if err != nil {
			return nil, err
		}
		if req.Position == nil {
			return nil, invalid("position is required")
		}
		tile, err := atlas.NewTile(req.Tile, s.shapes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		pos := atlas.Point{X: req.Position.X, Y: req.Position.Y}
		if !tile.IsPlaceable(m, pos) {
			return nil, fmt.Errorf("%w: %s at %d,%d: %w", ErrValidation, tile, pos.X, pos.Y, atlas.ErrNotPlaceable)
		}
		return command.NewPlaceTile(a, req.MapID, tile, pos), nil

	case command.TypeRemoveTile:
		tile, err := s.placedTile(req, p)
		if err != nil {
			return nil, err
		}
		return command.NewRemoveTile(a, tile), nil
	}
	return nil, invalid("unknown command type %q", req.Type)
}

func (s *Session) buildLayerAttribute(t command.Type, req models.CommandRequest, p *pending) (command.Command, error) {
	if _, err := p.mapByID(req.MapID); err != nil {
		return nil, err
	}
	v := req.Value
	if v == "" && t != command.TypeSetMapBackgroundImage {
		return nil, invalid("%s needs a value", t)
	}
	a := s.atlas
	switch t {
	case command.TypeSetMapAxisFont:
		return command.NewSetMapAxisFont(a, req.MapID, v), nil
	case command.TypeSetMapAxisFontColor:
		return command.NewSetMapAxisFontColor(a, req.MapID, v), nil
	case command.TypeSetMapGridColor:
		return command.NewSetMapGridColor(a, req.MapID, v), nil
	case command.TypeSetMapBackgroundColor:
		return command.NewSetMapBackgroundColor(a, req.MapID, v), nil
	case command.TypeSetMapBackgroundImage:
		return command.NewSetMapBackgroundImage(a, req.MapID, v), nil
	case command.TypeSetMapBackgroundRendering:
		if v != atlas.RenderingPlain && v != atlas.RenderingImage {
			return nil, invalid("rendering %q must be %s or %s", v, atlas.RenderingPlain, atlas.RenderingImage)
		}
		return command.NewSetMapBackgroundRendering(a, req.MapID, v), nil
	default:
		switch v {
		case atlas.ImageRenderPlain, atlas.ImageRenderScaled, atlas.ImageRenderTiled:
		default:
			return nil, invalid("image render mode %q", v)
		}
		return command.NewSetMapBackgroundImageRenderMode(a, req.MapID, v), nil
	}
}

// placedTile finds the tile instance addressed by map, position, layer and
// index within the field.
func (s *Session) placedTile(req models.CommandRequest, p *pending) (*atlas.Tile, error) {
	m, err := p.mapByID(req.MapID)
	if err != nil {
		return nil, err
	}
	if req.Position == nil {
		return nil, invalid("position is required")
	}
	kind, err := atlas.ParseLayerKind(req.Layer)
	if err != nil {
		return nil, invalid("%v", err)
	}
	pos := atlas.Point{X: req.Position.X, Y: req.Position.Y}
	layer, ok := m.Layers().Layer(kind, req.ZIndex)
	if !ok {
		return nil, fmt.Errorf("%s layer %d: %w", kind, req.ZIndex, atlas.ErrNotFound)
	}
	f, ok := layer.Field(pos)
	if !ok || req.Index < 0 || req.Index >= f.Len() {
		return nil, fmt.Errorf("tile %d at %d,%d: %w", req.Index, pos.X, pos.Y, atlas.ErrNotFound)
	}
	return f.Tiles()[req.Index], nil
}
