// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles the lifecycle of editing sessions and the current-session holder
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleListSessions(c echo.Context) error
	HandleGetCurrentSession(c echo.Context) error
	HandleSetCurrentSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// EditorHandler handles reads of the atlas and edits through the command processor
type EditorHandler interface {
	HandleGetAtlas(c echo.Context) error
	HandleGetAtlasMsgpack(c echo.Context) error
	HandleExecuteCommand(c echo.Context) error
	HandleUndo(c echo.Context) error
	HandleRedo(c echo.Context) error
	HandleGetHistory(c echo.Context) error
	HandleGetSelection(c echo.Context) error
	HandleSetSelection(c echo.Context) error
	HandleGetLayers(c echo.Context) error
	HandleGetCoordinates(c echo.Context) error
}

// AtlasFileHandler handles saved atlas archives
type AtlasFileHandler interface {
	HandleSaveSession(c echo.Context) error
	HandleLoadAtlas(c echo.Context) error
	HandleUploadAtlas(c echo.Context) error
	HandleGetRecentAtlases(c echo.Context) error
	HandleGetAtlasFile(c echo.Context) error
	HandleDownloadAtlas(c echo.Context) error
	HandleDeleteAtlasFile(c echo.Context) error
	HandleRenameAtlasFile(c echo.Context) error
}

// ResourceHandler handles resource blobs and the shape catalog
type ResourceHandler interface {
	HandlePutResource(c echo.Context) error
	HandleGetResource(c echo.Context) error
	HandleListResources(c echo.Context) error
	HandleDeleteResource(c echo.Context) error
	HandleGetShapes(c echo.Context) error
	HandleRegisterShape(c echo.Context) error
}

// EventHandler streams model change events to views
type EventHandler interface {
	HandleEvents(c echo.Context) error
}
