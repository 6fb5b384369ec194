package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/domain"
)

type wireFrame struct {
	Event string              `json:"event"`
	Data  domain.Notification `json:"data"`
}

func newTestServer(t *testing.T, trust bool) (*httptest.Server, *Hub, *auth.TokenManager) {
	t.Helper()
	hub := NewHub(8, nil, nil)
	tokens := auth.NewTokenManager("realtime-secret", time.Hour)
	srv := NewServer(hub, tokens, ServerConfig{
		TrustClientRoom: trust,
		AllowedOrigins:  []string{"http://localhost:5173"},
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    time.Second,
	}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return ts, hub, tokens
}

func dial(t *testing.T, ts *httptest.Server, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	return websocket.DefaultDialer.Dial(url, header)
}

func readNotification(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wireFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServer_JoinOwnRoomReceivesWelcomeAndNotifications(t *testing.T) {
	ts, hub, tokens := newTestServer(t, false)
	token, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, ts, "?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u1"}))

	welcome := readNotification(t, conn)
	assert.Equal(t, EventNotification, welcome.Event)
	assert.Equal(t, domain.NotificationSuccess, welcome.Data.Type)
	assert.Equal(t, WelcomeMessage, welcome.Data.Msg)

	delivered := hub.Notify("u1", domain.Notification{Type: domain.NotificationSuccess, Msg: "Fern saved to your garden"})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, "Fern saved to your garden", readNotification(t, conn).Data.Msg)
}

func TestServer_HeaderTokenAuthenticates(t *testing.T) {
	ts, hub, tokens := newTestServer(t, false)
	token, _, err := tokens.Issue("u2", domain.RoleUser)
	require.NoError(t, err)

	header := http.Header{}
	header.Set(auth.HeaderAuthToken, token)
	conn, _, err := dial(t, ts, "", header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u2"}))
	readNotification(t, conn)
	assert.Equal(t, 1, hub.RoomSize("u2"))
}

func TestServer_RejectsForeignRoomByDefault(t *testing.T) {
	ts, hub, tokens := newTestServer(t, false)
	token, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, ts, "?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u2"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u1"}))

	// the welcome for u1 proves both frames were processed in order
	readNotification(t, conn)
	assert.Equal(t, 0, hub.RoomSize("u2"))
	assert.Equal(t, 1, hub.RoomSize("u1"))
}

func TestServer_AnonymousJoinIgnoredUnlessTrusted(t *testing.T) {
	ts, hub, _ := newTestServer(t, false)
	conn, _, err := dial(t, ts, "", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u1"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize("u1"))
}

func TestServer_TrustedRoomsAcceptAnyJoin(t *testing.T) {
	ts, hub, _ := newTestServer(t, true)
	conn, _, err := dial(t, ts, "", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u9"}))
	welcome := readNotification(t, conn)
	assert.Equal(t, WelcomeMessage, welcome.Data.Msg)
	assert.Equal(t, 1, hub.RoomSize("u9"))
}

func TestServer_InvalidTokenRefusedBeforeUpgrade(t *testing.T) {
	ts, _, _ := newTestServer(t, false)
	_, resp, err := dial(t, ts, "?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_DisallowedOrigin(t *testing.T) {
	ts, _, _ := newTestServer(t, false)
	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := dial(t, ts, "", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_DisconnectLeavesRoom(t *testing.T) {
	ts, hub, tokens := newTestServer(t, false)
	token, _, err := tokens.Issue("u3", domain.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, ts, "?token="+token, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join_room", "data": "u3"}))
	readNotification(t, conn)
	require.Equal(t, 1, hub.RoomSize("u3"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize("u3") == 0 }, 2*time.Second, 10*time.Millisecond)
}
