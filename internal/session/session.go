package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/command"
	"github.com/rpgmapper/backend/internal/models"
)

// ErrValidation marks user input rejected before any command was built.
// Callers can recover from it, e.g. by asking for another name.
var ErrValidation = errors.New("validation failed")

// EventProcessorState is the kind of the event sent after every processor change.
const EventProcessorState = "processor.state"

// Default names used when seeding a new atlas.
const (
	DefaultAtlasName  = "New Atlas"
	DefaultRegionName = "New Region"
	DefaultMapName    = "New Map"
)

// Session is one editing context: an atlas, the processor that edits it and
// the current selection. Loading or creating an atlas replaces the whole
// session; nothing is handed over.
//
// The atlas model itself is single-threaded. Session serializes every access
// so hosts may call it from several goroutines.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	atlas     *atlas.Atlas
	processor *command.Processor
	shapes    atlas.ShapeResolver
	selection models.Selection
	fileID    string

	listeners map[int]func(models.ChangeEvent)
	nextID    int
}

// New wraps an existing atlas in a fresh session with an empty history.
// shapes may be nil, in which case shape tiles use atlas.DefaultShapeInfo.
func New(a *atlas.Atlas, shapes atlas.ShapeResolver) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		atlas:     a,
		processor: command.NewProcessor(),
		shapes:    shapes,
		listeners: make(map[int]func(models.ChangeEvent)),
	}
	a.Subscribe(s.onAtlasEvent)
	s.processor.Subscribe(s.onProcessorState)
	return s
}

// NewDefault creates a session around an atlas seeded with one region
// holding one map, and selects that map.
func NewDefault(shapes atlas.ShapeResolver) *Session {
	a := atlas.New(DefaultAtlasName)
	r, err := a.CreateRegion(DefaultRegionName)
	if err != nil {
		panic(fmt.Sprintf("seed default region: %v", err))
	}
	m, err := r.CreateMap(DefaultMapName)
	if err != nil {
		panic(fmt.Sprintf("seed default map: %v", err))
	}
	s := New(a, shapes)
	s.selection = models.Selection{RegionID: r.ID(), MapID: m.ID()}
	return s
}

// Atlas returns the edited atlas. Callers outside the session must not mutate it.
func (s *Session) Atlas() *atlas.Atlas { return s.atlas }

// Processor returns the undo and redo engine of the session.
func (s *Session) Processor() *command.Processor { return s.processor }

// FileID is the id of the stored archive the session was loaded from or last saved to.
func (s *Session) FileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileID
}

// View runs fn with exclusive access to the atlas for reading.
func (s *Session) View(fn func(a *atlas.Atlas) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.atlas)
}

// Document returns the persisted form of the atlas.
func (s *Session) Document() models.AtlasDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atlas.Document()
}

// Info summarizes the session for hosts.
func (s *Session) Info() models.EditorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() models.EditorSession {
	st := s.processor.State()
	return models.EditorSession{
		ID:            s.ID,
		AtlasName:     s.atlas.Name(),
		FileID:        s.fileID,
		Modified:      st.Modified,
		Modifications: st.Modifications,
		CanUndo:       st.CanUndo,
		CanRedo:       st.CanRedo,
		Selection:     s.selectionLocked(),
		CreatedAt:     s.CreatedAt,
	}
}

// History returns the history and undone descriptions, most recent first.
func (s *Session) History() models.HistoryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.HistoryInfo{History: s.processor.History(), Undone: s.processor.Undone()}
}

// Execute validates req, builds the command and runs it through the processor.
func (s *Session) Execute(req models.CommandRequest) (models.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := s.build(req)
	if err != nil {
		return models.CommandResult{}, err
	}
	if err := s.processor.Execute(cmd); err != nil {
		return models.CommandResult{}, err
	}

	res := models.CommandResult{Description: cmd.Describe()}
	switch c := cmd.(type) {
	case *command.CreateRegion:
		res.RegionID = c.Region().ID()
	case *command.CreateMap:
		res.RegionID = req.RegionID
		res.MapID = c.Map().ID()
	}
	res.Session = s.infoLocked()
	return res, nil
}

// Undo reverts the last command. It is a no-op without history.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processor.Undo()
}

// Redo re-applies the last undone command. It is a no-op when nothing was undone.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processor.Redo()
}

// MarkSaved records a successful save to fileID; the session is unmodified afterwards.
func (s *Session) MarkSaved(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileID = fileID
	s.processor.ResetModifications()
}

// Save hands the document and the current file id to persist while the
// session is locked. When persist succeeds the session is marked saved under
// the file id it returns.
func (s *Session) Save(persist func(doc models.AtlasDoc, fileID string) (string, error)) (models.EditorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileID, err := persist(s.atlas.Document(), s.fileID)
	if err != nil {
		return models.EditorSession{}, err
	}
	s.fileID = fileID
	s.processor.ResetModifications()
	fmt.Printf("[Session] Saved %s as %s\n", shortID(s.ID), shortID(fileID))
	return s.infoLocked(), nil
}

// IsModified reports whether the atlas changed since it was loaded or saved.
func (s *Session) IsModified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processor.IsModified()
}

// Select sets the current region, map and tile. Unknown ids are dropped.
func (s *Session) Select(sel models.Selection) models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = models.Selection{}
	if r := s.atlas.RegionByID(sel.RegionID); r.IsValid() {
		s.selection.RegionID = r.ID()
	}
	if m := s.atlas.MapByID(sel.MapID); m.IsValid() {
		s.selection.MapID = m.ID()
		s.selection.RegionID = m.RegionID()
	}
	if len(sel.Tile) > 0 {
		s.selection.Tile = make(map[string]string, len(sel.Tile))
		for k, v := range sel.Tile {
			s.selection.Tile[k] = v
		}
	}
	return s.selectionLocked()
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Session) selectionLocked() models.Selection {
	sel := s.selection
	if s.selection.Tile != nil {
		sel.Tile = make(map[string]string, len(s.selection.Tile))
		for k, v := range s.selection.Tile {
			sel.Tile[k] = v
		}
	}
	return sel
}

// Subscribe registers fn for model changes and processor state changes. fn
// runs synchronously while the session is locked and must not call back into it.
func (s *Session) Subscribe(fn func(models.ChangeEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) publish(ev models.ChangeEvent) {
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// onAtlasEvent runs inside a locked mutation.
func (s *Session) onAtlasEvent(ev atlas.Event) {
	switch ev.Kind {
	case atlas.EventRegionRemoved:
		if s.selection.RegionID == ev.RegionID {
			s.selection.RegionID = ""
			s.selection.MapID = ""
		}
	case atlas.EventMapRemoved:
		if s.selection.MapID == ev.MapID {
			s.selection.MapID = ""
		}
	}
	s.publish(models.ChangeEvent{
		Kind:     string(ev.Kind),
		RegionID: ev.RegionID,
		MapID:    ev.MapID,
		Name:     ev.Name,
		Detail:   ev.Detail,
	})
}

func (s *Session) onProcessorState(st command.State) {
	s.publish(models.ChangeEvent{
		Kind:   EventProcessorState,
		Detail: fmt.Sprintf("modifications=%d modified=%t undo=%t redo=%t", st.Modifications, st.Modified, st.CanUndo, st.CanRedo),
	})
}
