package atlas

// EventKind identifies what changed.
type EventKind string

const (
	EventAtlasNameChanged   EventKind = "atlas.name"
	EventRegionAdded        EventKind = "region.added"
	EventRegionRemoved      EventKind = "region.removed"
	EventRegionNameChanged  EventKind = "region.name"
	EventRegionOrderChanged EventKind = "region.order"
	EventMapAdded           EventKind = "map.added"
	EventMapRemoved         EventKind = "map.removed"
	EventMapNameChanged     EventKind = "map.name"
	EventSizeChanged        EventKind = "map.size"
	EventOriginChanged      EventKind = "map.origin"
	EventMarginChanged      EventKind = "map.margin"
	EventOffsetChanged      EventKind = "map.offset"
	EventNumeralChanged     EventKind = "map.numeral"
	EventLayerChanged       EventKind = "layer.changed"
	EventTilesChanged       EventKind = "map.tiles"
)

// Event is delivered to listeners synchronously after a committed mutation.
type Event struct {
	Kind     EventKind
	RegionID string
	MapID    string
	Name     string
	Detail   string
}

// Listener receives change events.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// notifier holds the listeners of one entity and forwards every event to
// the parent entity's notifier, so subscribing to an atlas observes the whole tree.
type notifier struct {
	subs   []subscription
	nextID int
	parent *notifier
}

// Subscribe registers fn and returns a function that removes it again.
func (n *notifier) Subscribe(fn Listener) func() {
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

func (n *notifier) emit(ev Event) {
	for cur := n; cur != nil; cur = cur.parent {
		for _, s := range append([]subscription(nil), cur.subs...) {
			s.fn(ev)
		}
	}
}
