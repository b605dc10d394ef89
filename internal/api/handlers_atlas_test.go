package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/archive"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/session"
	"github.com/rpgmapper/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type atlasFixture struct {
	e         *echo.Echo
	mgr       *session.Manager
	store     *testutil.MockStorage
	resources *testutil.RecordingResourceStore
}

func newAtlasFixture(t *testing.T, codec archive.Codec) *atlasFixture {
	t.Helper()
	f := &atlasFixture{
		e:         echo.New(),
		mgr:       session.NewManager(),
		store:     testutil.NewMockStorage(t.TempDir()),
		resources: testutil.NewRecordingResourceStore(),
	}
	handlers := NewHandlers(&Dependencies{
		Store:      f.store,
		Resources:  f.resources,
		SessionMgr: f.mgr,
		Codec:      codec,
	})
	f.e.HTTPErrorHandler = ErrorHandler
	RegisterRoutes(f.e, handlers)
	return f
}

func (f *atlasFixture) post(t *testing.T, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return (&testServer{e: f.e}).do(http.MethodPost, target, body)
}

// editedSession returns a modified session whose map shows /img/a.png.
func (f *atlasFixture) editedSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := f.mgr.CreateDefault()
	require.NoError(t, err)
	_, err = f.resources.Put(t.Context(), "/img/a.png", pngHeader, "")
	require.NoError(t, err)
	_, err = s.Execute(models.CommandRequest{Type: "setMapBackgroundImage", MapID: s.Selection().MapID, Value: "/img/a.png"})
	require.NoError(t, err)
	return s
}

func TestSaveFailureKeepsSessionModified(t *testing.T) {
	f := newAtlasFixture(t, nil)
	s := f.editedSession(t)
	f.store.SaveErr = errors.New("disk full")

	rec := f.post(t, "/api/sessions/"+s.ID+"/save", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, f.store.SaveCalls)
	assert.True(t, s.IsModified())
	assert.Empty(t, s.FileID())
}

func TestSaveFailsWhenResourcesCannotBeRead(t *testing.T) {
	f := newAtlasFixture(t, nil)
	s := f.editedSession(t)
	f.resources.FailGets(errors.New("database closed"))

	rec := f.post(t, "/api/sessions/"+s.ID+"/save", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, f.store.SaveCalls, "nothing is stored when packing fails")
	assert.True(t, s.IsModified())
}

func TestSaveWithMsgpackCodec(t *testing.T) {
	f := newAtlasFixture(t, archive.MsgpackCodec{})
	s := f.editedSession(t)

	rec := f.post(t, "/api/sessions/"+s.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "msgpack", res.File.Codec)
	assert.Equal(t, []string{"/img/a.png"}, f.resources.Gets())

	data, err := f.store.GetFileData(res.File.ID)
	require.NoError(t, err)
	a, manifest, err := archive.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "msgpack", manifest.Codec)
	require.Len(t, a.Resources, 1)
	assert.Equal(t, pngHeader, a.Resources[0].Data)

	// Loading writes the archived resources back through the store
	rec = f.post(t, "/api/atlases/"+res.File.ID+"/load", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, f.resources.Puts(), "/img/a.png")
	assert.Equal(t, 2, f.mgr.Len())
}

func TestLoadRejectsBrokenArchives(t *testing.T) {
	f := newAtlasFixture(t, nil)
	f.store.AddFile("junk", "junk.rpgmap", []byte("not an archive"))

	rec := f.post(t, "/api/atlases/junk/load", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.mgr.Len())

	corrupt, err := archive.Encode(archive.Archive{Document: models.AtlasDoc{
		Name: "Broken",
		Regions: []models.RegionDoc{
			{Name: "Twin"},
			{Name: "Twin"},
		},
	}}, archive.JSONCodec{})
	require.NoError(t, err)
	f.store.AddFile("corrupt", "corrupt.rpgmap", corrupt)

	rec = f.post(t, "/api/atlases/corrupt/load", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, 0, f.mgr.Len())
}
