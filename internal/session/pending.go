package session

import (
	"fmt"

	"github.com/rpgmapper/backend/internal/atlas"
)

// pending tracks the names and removals that earlier children of a composite
// request will have applied by the time a later child runs. Validation reads
// through it instead of the live atlas.
type pending struct {
	atlas *atlas.Atlas

	regionNames map[string]string // region id -> name
	mapNames    map[string]string // map id -> name
	removed     map[string]bool   // region and map ids

	regionTaken map[string]bool
	mapTaken    map[string]map[string]bool // region id -> map name -> taken
}

func newPending(a *atlas.Atlas) *pending {
	return &pending{
		atlas:       a,
		regionNames: make(map[string]string),
		mapNames:    make(map[string]string),
		removed:     make(map[string]bool),
		regionTaken: make(map[string]bool),
		mapTaken:    make(map[string]map[string]bool),
	}
}

func (p *pending) region(id string) (*atlas.Region, error) {
	r := p.atlas.RegionByID(id)
	if !r.IsValid() || p.removed[id] {
		return nil, fmt.Errorf("region %q: %w", id, atlas.ErrNotFound)
	}
	return r, nil
}

func (p *pending) mapByID(id string) (*atlas.Map, error) {
	m := p.atlas.MapByID(id)
	if !m.IsValid() || p.removed[id] || p.removed[m.RegionID()] {
		return nil, fmt.Errorf("map %q: %w", id, atlas.ErrNotFound)
	}
	return m, nil
}

func (p *pending) regionName(r *atlas.Region) string {
	if name, ok := p.regionNames[r.ID()]; ok {
		return name
	}
	return r.Name()
}

func (p *pending) mapName(m *atlas.Map) string {
	if name, ok := p.mapNames[m.ID()]; ok {
		return name
	}
	return m.Name()
}

func (p *pending) regionAvailable(name string) bool {
	if taken, ok := p.regionTaken[name]; ok {
		return !taken
	}
	return p.atlas.IsRegionNameAvailable(name)
}

func (p *pending) mapAvailable(r *atlas.Region, name string) bool {
	if taken, ok := p.mapTaken[r.ID()][name]; ok {
		return !taken
	}
	return r.IsMapNameAvailable(name)
}

func (p *pending) setMapTaken(regionID, name string, taken bool) {
	names, ok := p.mapTaken[regionID]
	if !ok {
		names = make(map[string]bool)
		p.mapTaken[regionID] = names
	}
	names[name] = taken
}

func (p *pending) createRegion(name string) {
	p.regionTaken[name] = true
}

func (p *pending) renameRegion(r *atlas.Region, name string) {
	p.regionTaken[p.regionName(r)] = false
	p.regionTaken[name] = true
	p.regionNames[r.ID()] = name
}

func (p *pending) removeRegion(r *atlas.Region) {
	p.regionTaken[p.regionName(r)] = false
	p.removed[r.ID()] = true
}

func (p *pending) createMap(r *atlas.Region, name string) {
	p.setMapTaken(r.ID(), name, true)
}

func (p *pending) renameMap(m *atlas.Map, name string) {
	p.setMapTaken(m.RegionID(), p.mapName(m), false)
	p.setMapTaken(m.RegionID(), name, true)
	p.mapNames[m.ID()] = name
}

func (p *pending) removeMap(m *atlas.Map) {
	p.setMapTaken(m.RegionID(), p.mapName(m), false)
	p.removed[m.ID()] = true
}

func (p *pending) checkRegionName(name string) error {
	if !atlas.IsValidName(name) {
		return fmt.Errorf("%w: region name %q: %w", ErrValidation, name, atlas.ErrInvalidName)
	}
	if !p.regionAvailable(name) {
		return fmt.Errorf("%w: region name %q: %w", ErrValidation, name, atlas.ErrDuplicateName)
	}
	return nil
}

func (p *pending) checkMapName(r *atlas.Region, name string) error {
	if !atlas.IsValidName(name) {
		return fmt.Errorf("%w: map name %q: %w", ErrValidation, name, atlas.ErrInvalidName)
	}
	if !p.mapAvailable(r, name) {
		return fmt.Errorf("%w: map name %q in region %q: %w", ErrValidation, name, p.regionName(r), atlas.ErrDuplicateName)
	}
	return nil
}
