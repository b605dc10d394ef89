package atlas

import "fmt"

// Region is a named collection of maps kept in insertion order.
type Region struct {
	notifier
	id         string
	name       string
	orderValue int
	maps       []*Map
}

func newRegion(id, name string) *Region {
	return &Region{id: id, name: name}
}

func invalidRegion() *Region {
	return newRegion("", "")
}

func (r *Region) ID() string      { return r.id }
func (r *Region) Name() string    { return r.name }
func (r *Region) OrderValue() int { return r.orderValue }

// IsValid is false for the sentinel returned by failed lookups.
func (r *Region) IsValid() bool { return r != nil && r.id != "" }

// SetOrderValue reports whether the display order value changed.
func (r *Region) SetOrderValue(v int) bool {
	if v == r.orderValue {
		return false
	}
	r.orderValue = v
	r.emit(Event{Kind: EventRegionOrderChanged, RegionID: r.id, Name: r.name, Detail: fmt.Sprint(v)})
	return true
}

// Maps returns the maps in insertion order.
func (r *Region) Maps() []*Map { return append([]*Map(nil), r.maps...) }

// FindMap returns the map called name or an invalid sentinel.
func (r *Region) FindMap(name string) *Map {
	if i := r.indexOfName(name); i >= 0 {
		return r.maps[i]
	}
	return invalidMap()
}

// MapByID returns the map with id or an invalid sentinel.
func (r *Region) MapByID(id string) *Map {
	if i := r.indexOfID(id); i >= 0 {
		return r.maps[i]
	}
	return invalidMap()
}

// IsMapNameAvailable reports whether name is valid and unused in this region.
func (r *Region) IsMapNameAvailable(name string) bool {
	return IsValidName(name) && r.indexOfName(name) < 0
}

// CreateMap appends a new empty map.
func (r *Region) CreateMap(name string) (*Map, error) {
	m := newMap(newID(), name)
	if err := r.InsertMap(m, len(r.maps)); err != nil {
		return nil, err
	}
	return m, nil
}

// InsertMap attaches m at index, clamped to the current range.
func (r *Region) InsertMap(m *Map, index int) error {
	if !IsValidName(m.name) {
		return fmt.Errorf("map %q: %w", m.name, ErrInvalidName)
	}
	if r.indexOfName(m.name) >= 0 {
		return fmt.Errorf("map %q in region %q: %w", m.name, r.name, ErrDuplicateName)
	}
	if index < 0 || index > len(r.maps) {
		index = len(r.maps)
	}
	r.maps = append(r.maps[:index], append([]*Map{m}, r.maps[index:]...)...)
	m.regionID = r.id
	m.parent = &r.notifier
	r.emit(Event{Kind: EventMapAdded, RegionID: r.id, MapID: m.id, Name: m.name})
	return nil
}

// RemoveMap detaches the map with id and returns it with its former index.
func (r *Region) RemoveMap(id string) (*Map, int, error) {
	i := r.indexOfID(id)
	if i < 0 {
		return nil, -1, fmt.Errorf("map %s: %w", id, ErrNotFound)
	}
	m := r.maps[i]
	r.maps = append(r.maps[:i:i], r.maps[i+1:]...)
	r.emit(Event{Kind: EventMapRemoved, RegionID: r.id, MapID: m.id, Name: m.name})
	m.parent = nil
	m.regionID = ""
	return m, i, nil
}

// RenameMap changes a map name, keeping names unique in the region.
func (r *Region) RenameMap(id, name string) error {
	i := r.indexOfID(id)
	if i < 0 {
		return fmt.Errorf("map %s: %w", id, ErrNotFound)
	}
	m := r.maps[i]
	if m.name == name {
		return nil
	}
	if !r.IsMapNameAvailable(name) {
		if !IsValidName(name) {
			return fmt.Errorf("map %q: %w", name, ErrInvalidName)
		}
		return fmt.Errorf("map %q in region %q: %w", name, r.name, ErrDuplicateName)
	}
	m.setName(name)
	return nil
}

func (r *Region) setName(name string) {
	r.name = name
	r.emit(Event{Kind: EventRegionNameChanged, RegionID: r.id, Name: name})
}

func (r *Region) indexOfName(name string) int {
	for i, m := range r.maps {
		if m.name == name {
			return i
		}
	}
	return -1
}

func (r *Region) indexOfID(id string) int {
	if id == "" {
		return -1
	}
	for i, m := range r.maps {
		if m.id == id {
			return i
		}
	}
	return -1
}
