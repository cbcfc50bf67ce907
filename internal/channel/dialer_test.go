package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketDialer_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.TextMessage, []byte("NUEVA_VENTA"))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"sale_event","total":150}`))
		// Wait for the client to hang up.
		_, _, _ = c.ReadMessage()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewWebsocketDialer(nil).Dial(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := Decode(data, DefaultLegacyMarker)
	require.NoError(t, err)
	assert.True(t, msg.Sale.Legacy)

	data, err = conn.ReadMessage()
	require.NoError(t, err)
	msg, err = Decode(data, DefaultLegacyMarker)
	require.NoError(t, err)
	assert.Equal(t, 150.0, msg.Sale.Amount)
}

func TestWebsocketDialer_RefusedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, err := NewWebsocketDialer(nil).Dial(context.Background(), url)
	assert.Error(t, err)
}

func TestManager_AgainstWebsocketServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"sale_event","sale_id":"V-9"}`))
		_, _, _ = c.ReadMessage()
	}))
	defer srv.Close()

	sales := make(chan SaleEvent, 1)
	m := NewManager(Options{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		Listener: saleFunc(func(e SaleEvent) { sales <- e }),
	})
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	select {
	case e := <-sales:
		assert.Equal(t, "V-9", e.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no sale event received")
	}
}

type saleFunc func(SaleEvent)

func (f saleFunc) StateChanged(State)       {}
func (f saleFunc) SaleReceived(e SaleEvent) { f(e) }
