package command

import (
	"fmt"

	"github.com/rpgmapper/backend/internal/atlas"
)

// SetAtlasName renames the atlas.
type SetAtlasName struct {
	atlas   *atlas.Atlas
	oldName string
	newName string
}

func NewSetAtlasName(a *atlas.Atlas, name string) *SetAtlasName {
	return &SetAtlasName{atlas: a, oldName: a.Name(), newName: name}
}

func (c *SetAtlasName) Execute() error {
	if !atlas.IsValidName(c.newName) {
		return precondition(atlas.ErrInvalidName, "atlas name %q", c.newName)
	}
	c.oldName = c.atlas.Name()
	c.atlas.SetName(c.newName)
	return nil
}

func (c *SetAtlasName) Undo() error {
	c.atlas.SetName(c.oldName)
	return nil
}

func (c *SetAtlasName) Describe() string {
	return fmt.Sprintf("Set atlas name to %s", c.newName)
}

// CreateRegion adds a new region at the end of the atlas. Redo reinserts the
// same region, so its id stays stable across undo and redo.
type CreateRegion struct {
	atlas  *atlas.Atlas
	name   string
	region *atlas.Region
	index  int
}

func NewCreateRegion(a *atlas.Atlas, name string) *CreateRegion {
	return &CreateRegion{atlas: a, name: name, index: -1}
}

// Region returns the created region, or nil before the first execution.
func (c *CreateRegion) Region() *atlas.Region { return c.region }

func (c *CreateRegion) Execute() error {
	if c.region == nil {
		r, err := c.atlas.CreateRegion(c.name)
		if err != nil {
			return precondition(err, "create region")
		}
		c.region = r
		c.index = len(c.atlas.Regions()) - 1
		return nil
	}
	if err := c.atlas.InsertRegion(c.region, c.index); err != nil {
		return precondition(err, "create region")
	}
	return nil
}

func (c *CreateRegion) Undo() error {
	if c.region == nil {
		return nil
	}
	if _, _, err := c.atlas.RemoveRegion(c.region.ID()); err != nil {
		return precondition(err, "undo create region")
	}
	return nil
}

func (c *CreateRegion) Describe() string {
	return fmt.Sprintf("Create region %s", c.name)
}

// RemoveRegion detaches a region with all of its maps. Undo reinserts the
// very same subtree at its former position.
type RemoveRegion struct {
	atlas    *atlas.Atlas
	regionID string
	name     string
	region   *atlas.Region
	index    int
}

func NewRemoveRegion(a *atlas.Atlas, regionID string) *RemoveRegion {
	return &RemoveRegion{atlas: a, regionID: regionID, name: a.RegionByID(regionID).Name(), index: -1}
}

func (c *RemoveRegion) Execute() error {
	r, idx, err := c.atlas.RemoveRegion(c.regionID)
	if err != nil {
		return precondition(err, "remove region")
	}
	c.region, c.index = r, idx
	return nil
}

func (c *RemoveRegion) Undo() error {
	if c.region == nil {
		return nil
	}
	if err := c.atlas.InsertRegion(c.region, c.index); err != nil {
		return precondition(err, "restore region %s", c.name)
	}
	return nil
}

func (c *RemoveRegion) Describe() string {
	return fmt.Sprintf("Remove region %s", c.name)
}

// SetRegionName renames a region.
type SetRegionName struct {
	atlas    *atlas.Atlas
	regionID string
	oldName  string
	newName  string
}

func NewSetRegionName(a *atlas.Atlas, regionID, name string) *SetRegionName {
	return &SetRegionName{atlas: a, regionID: regionID, oldName: a.RegionByID(regionID).Name(), newName: name}
}

func (c *SetRegionName) Execute() error {
	r, err := lookupRegion(c.atlas, c.regionID)
	if err != nil {
		return err
	}
	c.oldName = r.Name()
	if err := c.atlas.RenameRegion(c.regionID, c.newName); err != nil {
		return precondition(err, "rename region")
	}
	return nil
}

func (c *SetRegionName) Undo() error {
	if err := c.atlas.RenameRegion(c.regionID, c.oldName); err != nil {
		return precondition(err, "undo rename region")
	}
	return nil
}

func (c *SetRegionName) Describe() string {
	return fmt.Sprintf("Rename region %s to %s", c.oldName, c.newName)
}

// CreateMap adds a new map at the end of a region.
type CreateMap struct {
	atlas    *atlas.Atlas
	regionID string
	name     string
	m        *atlas.Map
	index    int
}

func NewCreateMap(a *atlas.Atlas, regionID, name string) *CreateMap {
	return &CreateMap{atlas: a, regionID: regionID, name: name, index: -1}
}

// Map returns the created map, or nil before the first execution.
func (c *CreateMap) Map() *atlas.Map { return c.m }

func (c *CreateMap) Execute() error {
	r, err := lookupRegion(c.atlas, c.regionID)
	if err != nil {
		return err
	}
	if c.m == nil {
		m, err := r.CreateMap(c.name)
		if err != nil {
			return precondition(err, "create map")
		}
		c.m = m
		c.index = len(r.Maps()) - 1
		return nil
	}
	if err := r.InsertMap(c.m, c.index); err != nil {
		return precondition(err, "create map")
	}
	return nil
}

func (c *CreateMap) Undo() error {
	if c.m == nil {
		return nil
	}
	r, err := lookupRegion(c.atlas, c.regionID)
	if err != nil {
		return err
	}
	if _, _, err := r.RemoveMap(c.m.ID()); err != nil {
		return precondition(err, "undo create map")
	}
	return nil
}

func (c *CreateMap) Describe() string {
	return fmt.Sprintf("Create map %s", c.name)
}

// RemoveMap detaches a map. Undo reinserts it into the same region at its
// former position.
type RemoveMap struct {
	atlas    *atlas.Atlas
	mapID    string
	regionID string
	name     string
	m        *atlas.Map
	index    int
}

func NewRemoveMap(a *atlas.Atlas, mapID string) *RemoveMap {
	m := a.MapByID(mapID)
	return &RemoveMap{atlas: a, mapID: mapID, regionID: m.RegionID(), name: m.Name(), index: -1}
}

func (c *RemoveMap) Execute() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.regionID = m.RegionID()
	r, err := lookupRegion(c.atlas, c.regionID)
	if err != nil {
		return err
	}
	removed, idx, err := r.RemoveMap(c.mapID)
	if err != nil {
		return precondition(err, "remove map")
	}
	c.m, c.index = removed, idx
	return nil
}

func (c *RemoveMap) Undo() error {
	if c.m == nil {
		return nil
	}
	r, err := lookupRegion(c.atlas, c.regionID)
	if err != nil {
		return err
	}
	if err := r.InsertMap(c.m, c.index); err != nil {
		return precondition(err, "restore map %s", c.name)
	}
	return nil
}

func (c *RemoveMap) Describe() string {
	return fmt.Sprintf("Remove map %s", c.name)
}

// SetMapName renames a map within its region.
type SetMapName struct {
	atlas   *atlas.Atlas
	mapID   string
	oldName string
	newName string
}

func NewSetMapName(a *atlas.Atlas, mapID, name string) *SetMapName {
	return &SetMapName{atlas: a, mapID: mapID, oldName: a.MapByID(mapID).Name(), newName: name}
}

func (c *SetMapName) Execute() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	c.oldName = m.Name()
	return c.rename(m, c.newName)
}

func (c *SetMapName) Undo() error {
	m, err := lookupMap(c.atlas, c.mapID)
	if err != nil {
		return err
	}
	return c.rename(m, c.oldName)
}

func (c *SetMapName) rename(m *atlas.Map, name string) error {
	r, err := lookupRegion(c.atlas, m.RegionID())
	if err != nil {
		return err
	}
	if err := r.RenameMap(c.mapID, name); err != nil {
		return precondition(err, "rename map")
	}
	return nil
}

func (c *SetMapName) Describe() string {
	return fmt.Sprintf("Rename map %s to %s", c.oldName, c.newName)
}
