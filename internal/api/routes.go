// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/resource"
	"github.com/rpgmapper/backend/internal/session"
	"github.com/rpgmapper/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.Store
	Resources  resource.Store
	Shapes     *resource.Catalog
	SessionMgr *session.Manager
	Codec      archive.Codec

	// ShapeCatalogPath is where registered shapes are saved; empty keeps them in memory
	ShapeCatalogPath string
	TileSize         float64
	RecentLimit      int
	// WebSocketMaxMessageKB limits messages read from event stream clients
	WebSocketMaxMessageKB int
	Version               string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Session   SessionHandler
	Editor    EditorHandler
	AtlasFile AtlasFileHandler
	Resource  ResourceHandler
	Events    EventHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	if deps.Resources == nil {
		deps.Resources = resource.NewMemoryStore()
	}
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.SessionMgr),
		Session:   NewSessionHandler(deps.SessionMgr),
		Editor:    NewEditorHandler(deps.SessionMgr, deps.TileSize),
		AtlasFile: NewAtlasFileHandler(deps.Store, deps.Resources, deps.SessionMgr, deps.Codec, deps.RecentLimit),
		Resource:  NewResourceHandler(deps.Resources, deps.Shapes, deps.ShapeCatalogPath),
		Events:    NewWebSocketHandler(deps.SessionMgr, deps.WebSocketMaxMessageKB),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Session routes
	sessionGroup := e.Group("/api/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("", handlers.Session.HandleListSessions)
	sessionGroup.GET("/current", handlers.Session.HandleGetCurrentSession)
	sessionGroup.GET("/:sessionId", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:sessionId", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/:sessionId/current", handlers.Session.HandleSetCurrentSession)
	sessionGroup.POST("/:sessionId/keepalive", handlers.Session.HandleSessionKeepAlive)

	// Editing routes
	sessionGroup.GET("/:sessionId/atlas", handlers.Editor.HandleGetAtlas)
	sessionGroup.GET("/:sessionId/atlas/msgpack", handlers.Editor.HandleGetAtlasMsgpack)
	sessionGroup.POST("/:sessionId/commands", handlers.Editor.HandleExecuteCommand)
	sessionGroup.POST("/:sessionId/undo", handlers.Editor.HandleUndo)
	sessionGroup.POST("/:sessionId/redo", handlers.Editor.HandleRedo)
	sessionGroup.GET("/:sessionId/history", handlers.Editor.HandleGetHistory)
	sessionGroup.GET("/:sessionId/selection", handlers.Editor.HandleGetSelection)
	sessionGroup.PUT("/:sessionId/selection", handlers.Editor.HandleSetSelection)
	sessionGroup.GET("/:sessionId/maps/:mapId/layers", handlers.Editor.HandleGetLayers)
	sessionGroup.GET("/:sessionId/maps/:mapId/coordinates", handlers.Editor.HandleGetCoordinates)

	// Save goes through the session so the modified flag is reset with the write
	sessionGroup.POST("/:sessionId/save", handlers.AtlasFile.HandleSaveSession)

	// Stored atlas archives
	atlasGroup := e.Group("/api/atlases")
	atlasGroup.POST("", handlers.AtlasFile.HandleUploadAtlas)
	atlasGroup.GET("/recent", handlers.AtlasFile.HandleGetRecentAtlases)
	atlasGroup.GET("/:fileId", handlers.AtlasFile.HandleGetAtlasFile)
	atlasGroup.GET("/:fileId/download", handlers.AtlasFile.HandleDownloadAtlas)
	atlasGroup.POST("/:fileId/load", handlers.AtlasFile.HandleLoadAtlas)
	atlasGroup.PUT("/:fileId", handlers.AtlasFile.HandleRenameAtlasFile)
	atlasGroup.DELETE("/:fileId", handlers.AtlasFile.HandleDeleteAtlasFile)

	// Resources and shapes
	e.GET("/api/resources", handlers.Resource.HandleListResources)
	e.GET("/api/resources/*", handlers.Resource.HandleGetResource)
	e.PUT("/api/resources/*", handlers.Resource.HandlePutResource)
	e.DELETE("/api/resources/*", handlers.Resource.HandleDeleteResource)
	e.GET("/api/shapes", handlers.Resource.HandleGetShapes)
	e.POST("/api/shapes", handlers.Resource.HandleRegisterShape)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/sessions/:sessionId/events", handlers.Events.HandleEvents)
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	EnableCORS     bool
	AllowOrigins   string
	RequestLogging bool
	BodyLimit      string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				strings.HasSuffix(path, "/events") ||
				strings.HasSuffix(path, "/keepalive")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := strings.Split(opts.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
