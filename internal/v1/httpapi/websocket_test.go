package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenroom/backend/internal/v1/config"
	"github.com/listenroom/backend/internal/v1/types"
)

func testConfig() *config.Config {
	return &config.Config{Port: 0, AllowedOrigins: "http://allowed.example"}
}

func TestServeWs_RejectsDisallowedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	co := newTestCoordinator()

	r := gin.New()
	r.GET("/ws", ServeWs(testConfig(), co))

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestServeWs_JoinAndReceiveState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	co := newTestCoordinator()
	room := co.CreateRoom("Test Room")

	r := gin.New()
	r.GET("/ws", ServeWs(testConfig(), co))

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://allowed.example"}}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	joinMsg := types.InboundMessage{Type: types.MsgJoin, RoomId: string(room.Id), UserName: "Alice"}
	require.NoError(t, conn.WriteJSON(joinMsg))

	var state types.RoomStateMessage
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, types.MsgRoomState, state.Type)
	assert.Equal(t, room.Id, state.Room.Id)
	assert.NotEmpty(t, state.UserId)
}

func TestServeWs_NoOriginHeaderAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	co := newTestCoordinator()

	r := gin.New()
	r.GET("/ws", ServeWs(testConfig(), co))

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.Close()
}
