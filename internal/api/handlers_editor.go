// handlers_editor.go - Atlas reads and command processor handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/session"
)

// DefaultTileSize is the tile edge in pixels used when no size is configured.
const DefaultTileSize = 32.0

// EditorHandlerImpl implements the EditorHandler interface
type EditorHandlerImpl struct {
	sessionMgr *session.Manager
	tileSize   float64
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(sessionMgr *session.Manager, tileSize float64) EditorHandler {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &EditorHandlerImpl{
		sessionMgr: sessionMgr,
		tileSize:   tileSize,
	}
}

// HandleGetAtlas returns the logical document tree as JSON
func (h *EditorHandlerImpl) HandleGetAtlas(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Document())
}

// HandleGetAtlasMsgpack returns the logical document tree as msgpack
func (h *EditorHandlerImpl) HandleGetAtlasMsgpack(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	codec := archive.MsgpackCodec{}
	data, err := codec.Marshal(s.Document())
	if err != nil {
		return NewInternalError("failed to encode atlas", err)
	}
	return c.Blob(http.StatusOK, codec.ContentType(), data)
}

// HandleExecuteCommand builds, validates and executes one command
func (h *EditorHandlerImpl) HandleExecuteCommand(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}

	var req models.CommandRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid command body", err)
	}
	if req.Type == "" {
		return NewValidationError("type")
	}

	res, err := s.Execute(req)
	if err != nil {
		return mapError(err, "command "+req.Type)
	}
	res.Session.Current = h.sessionMgr.IsCurrent(s.ID)
	return c.JSON(http.StatusOK, res)
}

// HandleUndo reverts the last command
func (h *EditorHandlerImpl) HandleUndo(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	if err := s.Undo(); err != nil {
		return mapError(err, "undo")
	}
	return c.JSON(http.StatusOK, sessionInfo(h.sessionMgr, s))
}

// HandleRedo re-applies the last undone command
func (h *EditorHandlerImpl) HandleRedo(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	if err := s.Redo(); err != nil {
		return mapError(err, "redo")
	}
	return c.JSON(http.StatusOK, sessionInfo(h.sessionMgr, s))
}

// HandleGetHistory returns the executed and undone command descriptions
func (h *EditorHandlerImpl) HandleGetHistory(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.History())
}

// HandleGetSelection returns the current selection
func (h *EditorHandlerImpl) HandleGetSelection(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Selection())
}

// HandleSetSelection replaces the selection; unknown ids are dropped
func (h *EditorHandlerImpl) HandleSetSelection(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	var sel models.Selection
	if err := c.Bind(&sel); err != nil {
		return NewBadRequestError("invalid selection body", err)
	}
	return c.JSON(http.StatusOK, s.Select(sel))
}

// HandleGetLayers returns the visible layers of a map in draw order
func (h *EditorHandlerImpl) HandleGetLayers(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	mapID := c.Param("mapId")

	showGrid, err := boolQuery(c, "showGrid", true)
	if err != nil {
		return err
	}
	showAxis, err := boolQuery(c, "showAxis", true)
	if err != nil {
		return err
	}

	var layers []models.LayerInfo
	err = s.View(func(a *atlas.Atlas) error {
		m := a.MapByID(mapID)
		if !m.IsValid() {
			return fmt.Errorf("map %q: %w", mapID, atlas.ErrNotFound)
		}
		for _, l := range m.Layers().CollectVisibleLayers(showGrid, showAxis) {
			doc := l.Document()
			layers = append(layers, models.LayerInfo{
				Kind:       string(l.Kind()),
				Index:      l.Index(),
				Attributes: doc.Attributes,
				Fields:     doc.Fields,
			})
		}
		return nil
	})
	if err != nil {
		return mapError(err, "map")
	}
	return c.JSON(http.StatusOK, layers)
}

// HandleGetCoordinates translates a screen grid position into map coordinates
func (h *EditorHandlerImpl) HandleGetCoordinates(c echo.Context) error {
	s, err := lookupSession(c, h.sessionMgr)
	if err != nil {
		return err
	}
	mapID := c.Param("mapId")

	x, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return NewValidationError("x")
	}
	y, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return NewValidationError("y")
	}
	tileSize := h.tileSize
	if v := c.QueryParam("tileSize"); v != "" {
		tileSize, err = strconv.ParseFloat(v, 64)
		if err != nil || tileSize <= 0 {
			return NewValidationError("tileSize")
		}
	}

	var info models.CoordinateInfo
	err = s.View(func(a *atlas.Atlas) error {
		m := a.MapByID(mapID)
		if !m.IsValid() {
			return fmt.Errorf("map %q: %w", mapID, atlas.ErrNotFound)
		}
		cs := m.CoordinateSystem()
		logical := cs.TranslateToMap(atlas.Point{X: x, Y: y})
		labels := cs.NumeralCoordinates(logical)
		info = models.CoordinateInfo{
			Screen:   models.PointDoc{X: x, Y: y},
			Logical:  models.PointFDoc{X: logical.X, Y: logical.Y},
			NumeralX: labels.X,
			NumeralY: labels.Y,
			Inner:    rectDoc(cs.InnerRect(tileSize)),
			Outer:    rectDoc(cs.OuterRect(tileSize)),
			TileSize: tileSize,
		}
		return nil
	})
	if err != nil {
		return mapError(err, "map")
	}
	return c.JSON(http.StatusOK, info)
}

// Helper functions

func rectDoc(r atlas.RectF) models.RectDoc {
	return models.RectDoc{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func boolQuery(c echo.Context, name string, def bool) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, NewValidationError(name)
	}
	return b, nil
}
