package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long an idle, unmodified session is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// ErrTooManySessions is returned when every slot holds a session that may not be evicted.
var ErrTooManySessions = errors.New("too many open sessions")

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Options configures a Manager.
type Options struct {
	MaxSessions int
	// SeedDefault makes Create seed new atlases with a region and a map.
	SeedDefault bool
	Shapes      atlas.ShapeResolver
}

// Manager holds the open editing sessions and tracks which one is current.
type Manager struct {
	sessions map[string]*SessionState
	current  string
	mu       sync.RWMutex
	opts     Options
}

// SessionState holds a session and its bookkeeping.
type SessionState struct {
	Session      *Session
	LastAccessed time.Time // Last time the session was accessed (for keep-alive)
}

// NewManager creates a session manager with default options.
func NewManager() *Manager {
	return NewManagerWithOptions(Options{MaxSessions: MaxSessions, SeedDefault: true})
}

// NewManagerWithOptions creates a session manager.
func NewManagerWithOptions(opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = MaxSessions
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		opts:     opts,
	}
}

// Shapes returns the shape resolver given to new sessions.
func (m *Manager) Shapes() atlas.ShapeResolver { return m.opts.Shapes }

// Create starts a session on a new atlas and makes it current. The atlas is
// seeded with a default region and map when seed is true.
func (m *Manager) Create(seed bool) (*Session, error) {
	var s *Session
	if seed {
		s = NewDefault(m.opts.Shapes)
	} else {
		s = New(atlas.New(DefaultAtlasName), m.opts.Shapes)
	}
	if err := m.add(s); err != nil {
		return nil, err
	}
	fmt.Printf("[Manager] Created session %s (seeded=%t)\n", shortID(s.ID), seed)
	return s, nil
}

// CreateDefault starts a session using the configured seeding policy.
func (m *Manager) CreateDefault() (*Session, error) {
	return m.Create(m.opts.SeedDefault)
}

// Adopt starts a session on an already loaded atlas and makes it current.
// The session starts unmodified and remembers fileID as its archive.
func (m *Manager) Adopt(a *atlas.Atlas, fileID string) (*Session, error) {
	s := New(a, m.opts.Shapes)
	s.fileID = fileID
	if err := m.add(s); err != nil {
		return nil, err
	}
	fmt.Printf("[Manager] Loaded atlas %q from %s into session %s\n", a.Name(), shortID(fileID), shortID(s.ID))
	return s, nil
}

func (m *Manager) add(s *Session) error {
	m.cleanupOldSessionsIfNeeded()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.opts.MaxSessions {
		return fmt.Errorf("%w: limit is %d", ErrTooManySessions, m.opts.MaxSessions)
	}
	m.sessions[s.ID] = &SessionState{Session: s, LastAccessed: time.Now()}
	m.current = s.ID
	return nil
}

// cleanupOldSessionsIfNeeded removes least recently used unmodified sessions if at capacity
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.opts.MaxSessions {
		return
	}

	// Modified sessions hold unsaved work and are never evicted
	var candidates []*SessionState
	for id, state := range m.sessions {
		if id == m.current || state.Session.IsModified() {
			continue
		}
		candidates = append(candidates, state)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed.Before(candidates[j].LastAccessed)
	})

	toFree := len(m.sessions) - m.opts.MaxSessions + 1
	for i := 0; i < toFree && i < len(candidates); i++ {
		id := candidates[i].Session.ID
		delete(m.sessions, id)
		fmt.Printf("[Manager] Cleaned up idle session %s to free a slot\n", shortID(id))
	}
}

// CleanupOldSessions removes unmodified sessions not accessed for maxAge,
// but keeps the current session and sessions accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, state := range m.sessions {
		if id == m.current || state.Session.IsModified() {
			continue
		}
		// Don't clean up sessions that are actively being used
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			fmt.Printf("[Manager] Cleaned up aged session %s (last accessed: %s ago)\n",
				shortID(id), now.Sub(state.LastAccessed).Round(time.Second))
		}
	}
	return removed
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// TouchSession updates the LastAccessed timestamp for a session.
// This should be called whenever a session is actively being used
// to prevent it from being cleaned up.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// Current returns the current session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[m.current]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// SetCurrent makes the session with id current.
func (m *Manager) SetCurrent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.current = id
	state.LastAccessed = time.Now()
	return nil
}

// IsCurrent reports whether id is the current session.
func (m *Manager) IsCurrent(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return id != "" && m.current == id
}

// DeleteSession discards a session and everything it owns. Deleting the
// current session leaves no session current.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	if m.current == id {
		m.current = ""
	}
	fmt.Printf("[Manager] Discarded session %s\n", shortID(id))
	return true
}

// ListSessions returns summaries of all sessions, newest first.
func (m *Manager) ListSessions() []models.EditorSession {
	m.mu.RLock()
	states := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		states = append(states, state)
	}
	current := m.current
	m.mu.RUnlock()

	out := make([]models.EditorSession, 0, len(states))
	for _, state := range states {
		info := state.Session.Info()
		info.Current = info.ID == current
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
