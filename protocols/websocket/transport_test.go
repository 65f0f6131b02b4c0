package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcws/calcws-go/pkg/interfaces"
)

// echoServer upgrades every request and echoes frames back until told to
// stop via the returned close function.
func echoServer(t *testing.T) (endpoint string, closeConns func()) {
	t.Helper()

	upgrader := gws.Upgrader{}
	conns := make(chan *gws.Conn, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	closeConns = func() {
		for {
			select {
			case conn := <-conns:
				conn.Close()
			default:
				return
			}
		}
	}
	return "ws" + strings.TrimPrefix(server.URL, "http"), closeConns
}

func TestConnectSendReceive(t *testing.T) {
	endpoint, _ := echoServer(t)

	p, err := NewWebSocketProtocol(Config{Endpoint: endpoint, SetupTimeout: 2 * time.Second})
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	defer p.Close()

	assert.True(t, p.Alive())
	assert.False(t, p.ConnectedAt().IsZero())
	assert.Equal(t, "websocket", p.ProtocolType())

	require.NoError(t, p.Send([]byte(`{"ping":1}`), interfaces.MsgText))

	select {
	case msg := <-p.Receive():
		assert.Equal(t, interfaces.MsgText, msg.Type)
		assert.Equal(t, `{"ping":1}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestConnectFailure(t *testing.T) {
	p, err := NewWebSocketProtocol(Config{
		Endpoint:     "ws://127.0.0.1:1",
		SetupTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	err = p.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrConnectionFailed)
	assert.False(t, p.Alive())
}

func TestAliveAfterPeerClose(t *testing.T) {
	endpoint, closeConns := echoServer(t)

	p, err := NewWebSocketProtocol(Config{Endpoint: endpoint, SetupTimeout: 2 * time.Second})
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	defer p.Close()

	require.True(t, p.Alive())
	closeConns()

	// the read pump notices the drop without any write happening first
	require.Eventually(t, func() bool { return !p.Alive() },
		2*time.Second, 10*time.Millisecond)

	// receive channel is closed, not left dangling
	_, ok := <-p.Receive()
	assert.False(t, ok)
}

func TestCloseIdempotent(t *testing.T) {
	endpoint, _ := echoServer(t)

	p, err := NewWebSocketProtocol(Config{Endpoint: endpoint, SetupTimeout: 2 * time.Second})
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))

	require.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.False(t, p.Alive())
}

func TestSendBeforeConnect(t *testing.T) {
	p, err := NewWebSocketProtocol(Config{Endpoint: "ws://localhost:8765"})
	require.NoError(t, err)

	err = p.Send([]byte("x"), interfaces.MsgText)
	assert.ErrorIs(t, err, interfaces.ErrConnectionFailed)
	assert.False(t, p.Alive())
}
