// handlers_session.go - Editing session handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessionMgr *session.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionMgr *session.Manager) SessionHandler {
	return &SessionHandlerImpl{sessionMgr: sessionMgr}
}

// lookupSession resolves the :sessionId parameter and keeps the session alive.
func lookupSession(c echo.Context, mgr *session.Manager) (*session.Session, error) {
	id := c.Param("sessionId")
	if id == "" {
		return nil, NewValidationError("sessionId")
	}
	s, ok := mgr.GetSession(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	mgr.TouchSession(id)
	return s, nil
}

func sessionInfo(mgr *session.Manager, s *session.Session) models.EditorSession {
	info := s.Info()
	info.Current = mgr.IsCurrent(s.ID)
	return info
}

// HandleCreateSession starts a session on a new atlas and makes it current.
// Without an explicit seed flag the configured default policy applies.
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
	}

	var (
		s   *session.Session
		err error
	)
	if req.AtlasName != "" && !atlas.IsValidName(req.AtlasName) {
		return NewValidationError("atlasName")
	}
	if req.Seed != nil {
		s, err = h.sessionMgr.Create(*req.Seed)
	} else {
		s, err = h.sessionMgr.CreateDefault()
	}
	if err != nil {
		return mapError(err, "session")
	}

	// The initial name is part of the new atlas, not an undoable edit
	if req.AtlasName != "" {
		s.View(func(a *atlas.Atlas) error {
			a.SetName(req.AtlasName)
			return nil
		})
	}

	return c.JSON(http.StatusCreated, sessionInfo(h.sessionMgr, s))
}

// HandleListSessions returns every open session, newest first
func (h *SessionHandlerImpl) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessionMgr.ListSessions())
}

// HandleGetCurrentSession returns the current session
func (h *SessionHandlerImpl) HandleGetCurrentSession(c echo.Context) error {
	s, ok := h.sessionMgr.Current()
	if !ok {
		return NewNotFoundError("session", "current")
	}
	h.sessionMgr.TouchSession(s.ID)
	return c.JSON(http.StatusOK, sessionInfo(h.sessionMgr, s))
}

// HandleSetCurrentSession makes a session current
func (h *SessionHandlerImpl) HandleSetCurrentSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	if err := h.sessionMgr.SetCurrent(id); err != nil {
		return mapError(err, "session")
	}
	s, _ := h.sessionMgr.GetSession(id)
	return c.JSON(http.StatusOK, sessionInfo(h.sessionMgr, s))
}

// HandleGetSession returns the summary of one session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionInfo(h.sessionMgr, s))
}

// HandleDeleteSession discards a session including unsaved changes
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	if !h.sessionMgr.DeleteSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive keeps an idle session from being cleaned up
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessionMgr.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"sessionId": id,
	})
}

// Request types

type createSessionRequest struct {
	Seed      *bool  `json:"seed"`
	AtlasName string `json:"atlasName"`
}
