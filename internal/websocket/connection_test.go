package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConnectionPair upgrades a loopback request and returns the server-side
// wrapper together with the client end.
func newConnectionPair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	connCh := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		connCh <- NewConnection(conn, 16, time.Second)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	serverConn := <-connCh
	t.Cleanup(func() { _ = serverConn.Close() })
	return serverConn, client
}

func TestConnection_SendDeliversFrame(t *testing.T) {
	serverConn, client := newConnectionPair(t)

	require.NoError(t, serverConn.Send([]byte(`{"type":"system","message":"hi"}`)))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.JSONEq(t, `{"type":"system","message":"hi"}`, string(data))
}

func TestConnection_SendAfterCloseFails(t *testing.T) {
	serverConn, _ := newConnectionPair(t)

	require.NoError(t, serverConn.Close())

	err := serverConn.Send([]byte(`{}`))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestConnection_WriteFailureClosesConnection(t *testing.T) {
	serverConn, _ := newConnectionPair(t)

	// Kill the underlying transport without going through Close, then force
	// the write pump onto it.
	require.NoError(t, serverConn.conn.Close())
	_ = serverConn.Send([]byte(`{"type":"system","message":"doomed"}`))

	require.Eventually(t, func() bool {
		return errors.Is(serverConn.Send([]byte(`{}`)), ErrConnectionClosed)
	}, 2*time.Second, 10*time.Millisecond, "sends after a write failure must report the connection closed")
}

func TestConnection_CloseIdempotent(t *testing.T) {
	serverConn, _ := newConnectionPair(t)

	require.NoError(t, serverConn.Close())
	assert.NoError(t, serverConn.Close())
}

func TestConnection_UniqueIDs(t *testing.T) {
	first, _ := newConnectionPair(t)
	second, _ := newConnectionPair(t)

	assert.NotEmpty(t, first.ID())
	assert.NotEqual(t, first.ID(), second.ID())
}
