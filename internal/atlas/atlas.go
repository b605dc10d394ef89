// Package atlas holds the document model of the map editor: an atlas of
// regions, each an ordered collection of maps, each map owning a coordinate
// system and a fixed-order stack of layers holding placed tiles.
//
// Every mutable entity accepts listeners via Subscribe. Events are delivered
// synchronously after the mutation and bubble up map -> region -> atlas, so a
// single subscription on the atlas observes the whole tree. Lookups by name or
// id never return nil; they return an invalid sentinel checked with IsValid.
package atlas

import (
	"fmt"
	"sort"
)

// Atlas is the root of the document: a named, ordered collection of regions.
type Atlas struct {
	notifier
	name    string
	regions []*Region
}

// New creates an empty atlas.
func New(name string) *Atlas {
	return &Atlas{name: name}
}

// Name returns the atlas name.
func (a *Atlas) Name() string { return a.name }

// SetName reports whether the name changed. Invalid names are ignored.
func (a *Atlas) SetName(name string) bool {
	if !IsValidName(name) || name == a.name {
		return false
	}
	a.name = name
	a.emit(Event{Kind: EventAtlasNameChanged, Name: name})
	return true
}

// Regions returns the regions in insertion order.
func (a *Atlas) Regions() []*Region { return append([]*Region(nil), a.regions...) }

// SortedRegions returns the regions ordered by order value, then name.
func (a *Atlas) SortedRegions() []*Region {
	out := a.Regions()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].orderValue != out[j].orderValue {
			return out[i].orderValue < out[j].orderValue
		}
		return out[i].name < out[j].name
	})
	return out
}

// FindRegion returns the region called name or an invalid sentinel.
func (a *Atlas) FindRegion(name string) *Region {
	for _, r := range a.regions {
		if r.name == name {
			return r
		}
	}
	return invalidRegion()
}

// RegionByID returns the region with id or an invalid sentinel.
func (a *Atlas) RegionByID(id string) *Region {
	if i := a.indexOfRegion(id); i >= 0 {
		return a.regions[i]
	}
	return invalidRegion()
}

// FindMap returns the first map called name in region order, or an invalid sentinel.
func (a *Atlas) FindMap(name string) *Map {
	for _, r := range a.regions {
		if m := r.FindMap(name); m.IsValid() {
			return m
		}
	}
	return invalidMap()
}

// MapByID returns the map with id from any region, or an invalid sentinel.
func (a *Atlas) MapByID(id string) *Map {
	for _, r := range a.regions {
		if m := r.MapByID(id); m.IsValid() {
			return m
		}
	}
	return invalidMap()
}

// IsRegionNameAvailable reports whether name is valid and unused in this atlas.
func (a *Atlas) IsRegionNameAvailable(name string) bool {
	return IsValidName(name) && !a.FindRegion(name).IsValid()
}

// CreateRegion appends a new empty region.
func (a *Atlas) CreateRegion(name string) (*Region, error) {
	r := newRegion(newID(), name)
	r.orderValue = len(a.regions)
	if err := a.InsertRegion(r, len(a.regions)); err != nil {
		return nil, err
	}
	return r, nil
}

// InsertRegion attaches r at index, clamped to the current range.
func (a *Atlas) InsertRegion(r *Region, index int) error {
	if !IsValidName(r.name) {
		return fmt.Errorf("region %q: %w", r.name, ErrInvalidName)
	}
	if a.FindRegion(r.name).IsValid() {
		return fmt.Errorf("region %q: %w", r.name, ErrDuplicateName)
	}
	if index < 0 || index > len(a.regions) {
		index = len(a.regions)
	}
	a.regions = append(a.regions[:index], append([]*Region{r}, a.regions[index:]...)...)
	r.parent = &a.notifier
	a.emit(Event{Kind: EventRegionAdded, RegionID: r.id, Name: r.name})
	return nil
}

// RemoveRegion detaches the region with id, maps included, and returns it
// with its former index.
func (a *Atlas) RemoveRegion(id string) (*Region, int, error) {
	i := a.indexOfRegion(id)
	if i < 0 {
		return nil, -1, fmt.Errorf("region %s: %w", id, ErrNotFound)
	}
	r := a.regions[i]
	a.regions = append(a.regions[:i:i], a.regions[i+1:]...)
	a.emit(Event{Kind: EventRegionRemoved, RegionID: r.id, Name: r.name})
	r.parent = nil
	return r, i, nil
}

// RenameRegion changes a region name, keeping names unique in the atlas.
func (a *Atlas) RenameRegion(id, name string) error {
	i := a.indexOfRegion(id)
	if i < 0 {
		return fmt.Errorf("region %s: %w", id, ErrNotFound)
	}
	r := a.regions[i]
	if r.name == name {
		return nil
	}
	if !IsValidName(name) {
		return fmt.Errorf("region %q: %w", name, ErrInvalidName)
	}
	if a.FindRegion(name).IsValid() {
		return fmt.Errorf("region %q: %w", name, ErrDuplicateName)
	}
	r.setName(name)
	return nil
}

func (a *Atlas) indexOfRegion(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range a.regions {
		if r.id == id {
			return i
		}
	}
	return -1
}
