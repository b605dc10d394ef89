package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.e)
	defer server.Close()

	info := ts.createSession(t)
	s, ok := ts.mgr.GetSession(info.ID)
	require.True(t, ok)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/sessions/" + info.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readWS(t, conn)
	require.Equal(t, MsgTypeConnected, msg.Type)
	var connected models.EditorSession
	require.NoError(t, json.Unmarshal(msg.Payload, &connected))
	assert.Equal(t, info.ID, connected.ID)

	_, err = s.Execute(models.CommandRequest{Type: "setAtlasName", Name: "Streamed"})
	require.NoError(t, err)

	var kinds []string
	for len(kinds) < 2 {
		msg := readWS(t, conn)
		require.Equal(t, MsgTypeEvent, msg.Type)
		var ev models.ChangeEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{"atlas.name", session.EventProcessorState}, kinds)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MsgTypePong, readWS(t, conn).Type)
}

func TestEventStreamUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/sessions/missing/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
