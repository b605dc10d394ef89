package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/atlas"
	"github.com/rpgmapper/backend/internal/command"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/resource"
	"github.com/rpgmapper/backend/internal/session"
	"github.com/rpgmapper/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testServer struct {
	e           *echo.Echo
	mgr         *session.Manager
	store       *storage.LocalStore
	resources   *resource.MemoryStore
	shapes      *resource.Catalog
	catalogPath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(filepath.Join(dir, "atlases"))
	require.NoError(t, err)

	shapes := resource.NewCatalog()
	ts := &testServer{
		e:           echo.New(),
		mgr:         session.NewManagerWithOptions(session.Options{MaxSessions: 5, SeedDefault: true, Shapes: shapes}),
		store:       store,
		resources:   resource.NewMemoryStore(),
		shapes:      shapes,
		catalogPath: filepath.Join(dir, "shapes.yaml"),
	}
	handlers := NewHandlers(&Dependencies{
		Store:            ts.store,
		Resources:        ts.resources,
		Shapes:           ts.shapes,
		SessionMgr:       ts.mgr,
		ShapeCatalogPath: ts.catalogPath,
		Version:          "test",
	})
	ts.e.HTTPErrorHandler = ErrorHandler
	RegisterRoutes(ts.e, handlers)
	RegisterWebSocketRoutes(ts.e, handlers)
	return ts
}

func (ts *testServer) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		if _, raw := body.([]byte); !raw {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createSession(t *testing.T) models.EditorSession {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.EditorSession](t, rec)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler("1.2.3", session.NewManager())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if assert.NoError(t, h.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
		assert.Contains(t, rec.Body.String(), `"sessions":0`)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	first := ts.createSession(t)
	assert.True(t, first.Current)
	assert.Equal(t, session.DefaultAtlasName, first.AtlasName)
	assert.NotEmpty(t, first.Selection.MapID, "default atlas selects its map")
	assert.False(t, first.Modified)

	rec := ts.do(http.MethodPost, "/api/sessions", map[string]interface{}{"seed": false, "atlasName": "Dungeon"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[models.EditorSession](t, rec)
	assert.Equal(t, "Dungeon", second.AtlasName)
	assert.Empty(t, second.Selection.MapID)
	assert.False(t, second.Modified, "the initial name is not an edit")

	rec = ts.do(http.MethodGet, "/api/sessions/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second.ID, decode[models.EditorSession](t, rec).ID)

	rec = ts.do(http.MethodPost, "/api/sessions/"+first.ID+"/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.EditorSession](t, rec).Current)

	rec = ts.do(http.MethodGet, "/api/sessions/"+second.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.EditorSession](t, rec).Current)

	rec = ts.do(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.EditorSession](t, rec), 2)

	rec = ts.do(http.MethodPost, "/api/sessions/"+second.ID+"/keepalive", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/sessions/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "deleting the current session leaves none current")

	rec = ts.do(http.MethodGet, "/api/sessions/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, rec).Code)

	rec = ts.do(http.MethodDelete, "/api/sessions/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/sessions", map[string]interface{}{"atlasName": "a/b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ts.mgr.Len())

	// Every slot holds unsaved work
	for i := 0; i < 5; i++ {
		s := ts.createSession(t)
		rec := ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/commands", models.CommandRequest{Type: "setAtlasName", Name: fmt.Sprintf("World %d", i)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = ts.do(http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExecuteCommandUndoRedo(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	base := "/api/sessions/" + s.ID

	rec := ts.do(http.MethodPost, base+"/commands", models.CommandRequest{
		Type:     "createMap",
		RegionID: s.Selection.RegionID,
		Name:     "Cellar",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[models.CommandResult](t, rec)
	assert.NotEmpty(t, res.MapID)
	assert.Equal(t, s.Selection.RegionID, res.RegionID)
	assert.True(t, res.Session.Modified)
	assert.True(t, res.Session.CanUndo)
	assert.True(t, res.Session.Current)

	tests := []struct {
		name   string
		req    models.CommandRequest
		status int
		code   string
	}{
		{"duplicate map name", models.CommandRequest{Type: "createMap", RegionID: s.Selection.RegionID, Name: "Cellar"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown region", models.CommandRequest{Type: "createMap", RegionID: "nope", Name: "Attic"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown command", models.CommandRequest{Type: "teleport"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing type", models.CommandRequest{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty composite", models.CommandRequest{Type: "composite"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, base+"/commands", tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[APIError](t, rec).Code)
		})
	}

	rec = ts.do(http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[models.EditorSession](t, rec)
	assert.False(t, info.Modified)
	assert.True(t, info.CanRedo)

	rec = ts.do(http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[models.HistoryInfo](t, rec)
	assert.Empty(t, history.History)
	require.Len(t, history.Undone, 1)
	assert.Contains(t, history.Undone[0], "Cellar")

	rec = ts.do(http.MethodPost, base+"/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.EditorSession](t, rec).Modified)

	rec = ts.do(http.MethodGet, base+"/atlas", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[models.AtlasDoc](t, rec)
	require.Len(t, doc.Regions, 1)
	assert.Len(t, doc.Regions[0].Maps, 2)
}

func TestSelection(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	base := "/api/sessions/" + s.ID

	rec := ts.do(http.MethodPut, base+"/selection", models.Selection{
		MapID: s.Selection.MapID,
		Tile:  map[string]string{"type": "color", "color": "#00ff00"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[models.Selection](t, rec)
	assert.Equal(t, s.Selection.RegionID, sel.RegionID, "the region follows the selected map")
	assert.Equal(t, "#00ff00", sel.Tile["color"])

	rec = ts.do(http.MethodPut, base+"/selection", models.Selection{RegionID: "gone", MapID: "gone"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Selection{}, decode[models.Selection](t, rec))

	rec = ts.do(http.MethodGet, base+"/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Selection](t, rec).MapID)
}

func TestAtlasMsgpack(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)

	rec := ts.do(http.MethodGet, "/api/sessions/"+s.ID+"/atlas/msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var doc models.AtlasDoc
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, session.DefaultAtlasName, doc.Name)
	require.Len(t, doc.Regions, 1)
	assert.Equal(t, session.DefaultMapName, doc.Regions[0].Maps[0].Name)
}

func TestLayers(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	base := "/api/sessions/" + s.ID

	rec := ts.do(http.MethodPost, base+"/commands", models.CommandRequest{
		Type:     "placeTile",
		MapID:    s.Selection.MapID,
		Tile:     map[string]string{"type": "color", "color": "#ff0000"},
		Position: &models.PointDoc{X: 1, Y: 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	kinds := func(layers []models.LayerInfo) []string {
		var out []string
		for _, l := range layers {
			out = append(out, l.Kind)
		}
		return out
	}

	rec = ts.do(http.MethodGet, base+"/maps/"+s.Selection.MapID+"/layers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	layers := decode[[]models.LayerInfo](t, rec)
	assert.Equal(t, []string{"background", "base", "grid", "axis", "tile", "text"}, kinds(layers))
	require.Len(t, layers[1].Fields, 1)
	assert.Equal(t, 1, layers[1].Fields[0].X)
	assert.Equal(t, 2, layers[1].Fields[0].Y)

	rec = ts.do(http.MethodGet, base+"/maps/"+s.Selection.MapID+"/layers?showGrid=false&showAxis=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"background", "base", "tile", "text"}, kinds(decode[[]models.LayerInfo](t, rec)))

	rec = ts.do(http.MethodGet, base+"/maps/"+s.Selection.MapID+"/layers?showGrid=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, base+"/maps/unknown/layers", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoordinates(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	target := "/api/sessions/" + s.ID + "/maps/" + s.Selection.MapID + "/coordinates"

	// The default map is 10x10 with its origin in the bottom left corner
	rec := ts.do(http.MethodGet, target+"?x=2&y=0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[models.CoordinateInfo](t, rec)
	assert.Equal(t, models.PointFDoc{X: 2, Y: 9}, info.Logical)
	assert.Equal(t, "2", info.NumeralX)
	assert.Equal(t, "9", info.NumeralY)
	assert.Equal(t, DefaultTileSize, info.TileSize)
	assert.Equal(t, models.RectDoc{X: 32, Y: 32, Width: 320, Height: 320}, info.Inner)
	assert.Equal(t, models.RectDoc{Width: 384, Height: 384}, info.Outer)

	rec = ts.do(http.MethodGet, target+"?x=0&y=0&tileSize=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, decode[models.CoordinateInfo](t, rec).Inner.Width)

	for _, q := range []string{"?y=0", "?x=1&y=a", "?x=1&y=1&tileSize=-4"} {
		rec = ts.do(http.MethodGet, target+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	base := "/api/sessions/" + s.ID

	rec := ts.do(http.MethodPut, "/api/resources/img/bg.png", pngHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, base+"/commands", models.CommandRequest{
		Type: "composite",
		Name: "Set up background",
		Commands: []models.CommandRequest{
			{Type: "setMapBackgroundImage", MapID: s.Selection.MapID, Value: "/img/bg.png"},
			{Type: "setMapBackgroundRendering", MapID: s.Selection.MapID, Value: "image"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, base+"/save", map[string]string{"name": "campaign"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[models.SaveResult](t, rec)
	require.NotNil(t, saved.File)
	assert.Equal(t, "campaign", saved.File.Name)
	assert.Equal(t, "json", saved.File.Codec)
	assert.False(t, saved.Session.Modified)
	assert.Equal(t, saved.File.ID, saved.Session.FileID)
	assert.Empty(t, saved.MissingResources)

	rec = ts.do(http.MethodGet, "/api/atlases/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AtlasFileInfo](t, rec), 1)

	// Saving again overwrites the same archive
	rec = ts.do(http.MethodPost, base+"/commands", models.CommandRequest{Type: "setAtlasName", Name: "Campaign"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decode[models.SaveResult](t, rec)
	assert.Equal(t, saved.File.ID, again.File.ID)
	assert.Equal(t, "Campaign", again.File.AtlasName)

	// Loading re-imports the resources the archive carries
	require.NoError(t, ts.resources.Delete(t.Context(), "/img/bg.png"))
	rec = ts.do(http.MethodPost, "/api/atlases/"+saved.File.ID+"/load", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loaded := decode[models.EditorSession](t, rec)
	assert.NotEqual(t, s.ID, loaded.ID)
	assert.Equal(t, "Campaign", loaded.AtlasName)
	assert.Equal(t, saved.File.ID, loaded.FileID)
	assert.True(t, loaded.Current)
	assert.False(t, loaded.Modified)

	rec = ts.do(http.MethodGet, "/api/resources/img/bg.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = ts.do(http.MethodGet, "/api/sessions/"+loaded.ID+"/atlas", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[models.AtlasDoc](t, rec)
	background := doc.Regions[0].Maps[0].Layers.Background.Attributes
	assert.Equal(t, "/img/bg.png", background[atlas.AttrImage])
	assert.Equal(t, atlas.RenderingImage, background[atlas.AttrRendering])

	// As new creates a second archive
	rec = ts.do(http.MethodPost, "/api/sessions/"+loaded.ID+"/save", map[string]interface{}{"asNew": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, saved.File.ID, decode[models.SaveResult](t, rec).File.ID)

	rec = ts.do(http.MethodPost, "/api/atlases/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveReportsMissingResources(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)

	rec := ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/commands", models.CommandRequest{
		Type: "setMapBackgroundImage", MapID: s.Selection.MapID, Value: "img/missing.png",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/img/missing.png"}, decode[models.SaveResult](t, rec).MissingResources)
}

func TestSaveAfterArchiveDeleted(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)

	rec := ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[models.SaveResult](t, rec)

	rec = ts.do(http.MethodDelete, "/api/atlases/"+first.File.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, first.File.ID, decode[models.SaveResult](t, rec).File.ID)
}

func TestAtlasFiles(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSession(t)
	rec := ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[models.SaveResult](t, rec).File.ID

	rec = ts.do(http.MethodGet, "/api/atlases/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.DefaultAtlasName, decode[models.AtlasFileInfo](t, rec).AtlasName)

	rec = ts.do(http.MethodPut, "/api/atlases/"+id, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[models.AtlasFileInfo](t, rec).Name)

	rec = ts.do(http.MethodPut, "/api/atlases/"+id, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/atlases/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a, _, err := archive.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, session.DefaultAtlasName, a.Document.Name)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "Renamed")

	rec = ts.do(http.MethodDelete, "/api/atlases/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/api/atlases/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodGet, "/api/atlases/recent", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestUploadAtlas(t *testing.T) {
	ts := newTestServer(t)

	a := atlas.New("Uploaded")
	_, err := a.CreateRegion("North")
	require.NoError(t, err)
	data, err := archive.Encode(archive.Archive{Document: a.Document()}, archive.MsgpackCodec{})
	require.NoError(t, err)

	upload := func(content []byte) *httptest.ResponseRecorder {
		body := new(bytes.Buffer)
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "uploaded.rpgmap")
		part.Write(content)
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/atlases", body)
		req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
		rec := httptest.NewRecorder()
		ts.e.ServeHTTP(rec, req)
		return rec
	}

	rec := upload(data)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode[models.AtlasFileInfo](t, rec)
	assert.Equal(t, "uploaded.rpgmap", info.Name)
	assert.Equal(t, "Uploaded", info.AtlasName)
	assert.Equal(t, "msgpack", info.Codec)

	rec = ts.do(http.MethodPost, "/api/atlases/"+info.ID+"/load", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Uploaded", decode[models.EditorSession](t, rec).AtlasName)

	rec = upload([]byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/atlases", nil)
	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResources(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/api/resources/shapes/tree.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode[models.ResourceInfo](t, rec)
	assert.Equal(t, "/shapes/tree.svg", info.Path)
	assert.Equal(t, "image/svg+xml", info.MimeType)

	req := httptest.NewRequest(http.MethodPut, "/api/resources/img/note.txt", strings.NewReader("hello"))
	req.Header.Set(echo.HeaderContentType, "text/markdown")
	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "text/markdown", decode[models.ResourceInfo](t, rec).MimeType)

	rec = ts.do(http.MethodGet, "/api/resources/shapes/tree.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))

	rec = ts.do(http.MethodGet, "/api/resources?prefix=shapes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.ResourceInfo](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "/shapes/tree.svg", list[0].Path)

	rec = ts.do(http.MethodGet, "/api/resources", nil)
	assert.Len(t, decode[[]models.ResourceInfo](t, rec), 2)

	rec = ts.do(http.MethodPut, "/api/resources/empty.png", []byte{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/resources/shapes/tree.svg", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/api/resources/shapes/tree.svg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/resources/shapes/tree.svg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShapes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/shapes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.ShapeDefinition](t, rec))

	rec = ts.do(http.MethodPost, "/api/shapes", models.ShapeDefinition{Path: "shapes/tree.svg", Name: "Tree", Layer: "tile", ZIndex: 1, Insert: "exclusive"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	defs := decode[[]models.ShapeDefinition](t, rec)
	require.Len(t, defs, 1)
	assert.Equal(t, "/shapes/tree.svg", defs[0].Path)

	reloaded, err := resource.LoadCatalogFile(ts.catalogPath)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())

	for name, def := range map[string]models.ShapeDefinition{
		"missing path": {Name: "x", Layer: "tile"},
		"text layer":   {Path: "/a.svg", Layer: "text"},
		"negative z":   {Path: "/a.svg", Layer: "base", ZIndex: -1},
		"unknown mode": {Path: "/a.svg", Layer: "base", Insert: "sideways"},
	} {
		rec := ts.do(http.MethodPost, "/api/shapes", def)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}

	// Registered shapes place on their declared layer
	s := ts.createSession(t)
	rec = ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/commands", models.CommandRequest{
		Type:     "placeTile",
		MapID:    s.Selection.MapID,
		Tile:     map[string]string{"type": "shape", "path": "/shapes/tree.svg"},
		Position: &models.PointDoc{X: 0, Y: 0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/sessions/"+s.ID+"/commands", models.CommandRequest{
		Type:     "placeTile",
		MapID:    s.Selection.MapID,
		Tile:     map[string]string{"type": "shape", "path": "/shapes/rock.svg"},
		Position: &models.PointDoc{X: 0, Y: 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unregistered shapes are rejected")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: bad name", session.ErrValidation), http.StatusBadRequest},
		{"validation wrapping not found", fmt.Errorf("%w: %w", session.ErrValidation, atlas.ErrNotFound), http.StatusBadRequest},
		{"session", session.ErrSessionNotFound, http.StatusNotFound},
		{"file", storage.ErrFileNotFound, http.StatusNotFound},
		{"resource", resource.ErrNotFound, http.StatusNotFound},
		{"atlas entity", fmt.Errorf("map %q: %w", "x", atlas.ErrNotFound), http.StatusNotFound},
		{"corrupt", atlas.ErrCorruptDocument, http.StatusBadRequest},
		{"archive", archive.ErrInvalidArchive, http.StatusBadRequest},
		{"path", resource.ErrInvalidPath, http.StatusBadRequest},
		{"precondition", fmt.Errorf("%w: origin", command.ErrPrecondition), http.StatusConflict},
		{"capacity", session.ErrTooManySessions, http.StatusServiceUnavailable},
		{"api error", NewConflictError("busy"), http.StatusConflict},
		{"other", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, mapError(tt.err, "thing").Status)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", NewNotFoundError("session", "x"), http.StatusNotFound, "NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			ErrorHandler(tt.err, c)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[APIError](t, rec).Code)
		})
	}
}
