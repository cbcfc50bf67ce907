package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one established push connection.
type Conn interface {
	// ReadMessage blocks until the next payload or a terminal error.
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Websocket dial defaults.
const (
	HandshakeTimeout = 10 * time.Second
	MaxMessageBytes  = 64 * 1024
)

// WebsocketDialer dials the push channel with gorilla/websocket.
type WebsocketDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewWebsocketDialer creates a dialer. header is sent with the handshake and may be nil.
func NewWebsocketDialer(header http.Header) *WebsocketDialer {
	return &WebsocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: HandshakeTimeout,
		},
		header: header,
	}
}

// Dial performs the websocket handshake.
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(MaxMessageBytes)
	return &wsConn{conn: c}, nil
}

// wsConn adapts *websocket.Conn to Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
