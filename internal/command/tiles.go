package command

import (
	"fmt"

	"github.com/rpgmapper/backend/internal/atlas"
)

// PlaceTile places a copy of a tile on a map. The placed instance and the
// tiles it evicted are kept, so undo and redo move the same instances back
// and forth and later commands referring to them stay valid.
type PlaceTile struct {
	atlas    *atlas.Atlas
	mapID    string
	tile     *atlas.Tile
	position atlas.Point
	placed   *atlas.Tile
	evicted  []*atlas.Tile
	index    int
}

func NewPlaceTile(a *atlas.Atlas, mapID string, tile *atlas.Tile, position atlas.Point) *PlaceTile {
	return &PlaceTile{atlas: a, mapID: mapID, tile: tile, position: position, index: -1}
}

// Placed returns the tile instance on the map, or nil before the first execution.
func (c *PlaceTile) Placed() *atlas.Tile { return c.placed }

func (c *PlaceTile) Execute() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	if c.placed == nil {
		if !c.tile.IsPlaceable(m, c.position) {
			return precondition(atlas.ErrNotPlaceable, "place %s at %d,%d", c.tile, c.position.X, c.position.Y)
		}
		placed, evicted, err := c.tile.Place(m, c.position)
		if err != nil {
			return precondition(err, "place tile")
		}
		c.placed, c.evicted = placed, evicted
		return nil
	}
	for _, t := range c.evicted {
		t.Remove(m)
	}
	if err := m.RestoreTile(c.placed, c.index); err != nil {
		return precondition(err, "place tile")
	}
	return nil
}

func (c *PlaceTile) Undo() error {
	if c.placed == nil {
		return nil
	}
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	idx, ok := c.placed.Remove(m)
	if !ok {
		return precondition(atlas.ErrNotFound, "remove %s", c.placed)
	}
	c.index = idx
	if err := m.RestoreTiles(c.evicted); err != nil {
		return precondition(err, "restore evicted tiles")
	}
	return nil
}

func (c *PlaceTile) Describe() string {
	return fmt.Sprintf("Place %s at %d,%d", c.tile, c.position.X, c.position.Y)
}

// RemoveTile removes one placed tile instance from its map.
type RemoveTile struct {
	atlas *atlas.Atlas
	tile  *atlas.Tile
	index int
}

func NewRemoveTile(a *atlas.Atlas, tile *atlas.Tile) *RemoveTile {
	return &RemoveTile{atlas: a, tile: tile, index: -1}
}

func (c *RemoveTile) Execute() error {
	m, err := lookupMap(c.atlas, c.tile.MapID())
	if err != nil {
		return err
	}
	idx, ok := c.tile.Remove(m)
	if !ok {
		return precondition(atlas.ErrNotFound, "remove %s", c.tile)
	}
	c.index = idx
	return nil
}

func (c *RemoveTile) Undo() error {
	m, err := lookupMap(c.atlas, c.tile.MapID())
	if err != nil {
		return err
	}
	if err := m.RestoreTile(c.tile, c.index); err != nil {
		return precondition(err, "restore tile")
	}
	return nil
}

func (c *RemoveTile) Describe() string {
	p := c.tile.Position()
	return fmt.Sprintf("Remove %s at %d,%d", c.tile, p.X, p.Y)
}
