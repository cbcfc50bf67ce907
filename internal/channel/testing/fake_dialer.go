// Package testing provides test doubles for the channel package.
package testing

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/nexus-erp/nexusctl/internal/channel"
)

// ErrDialRefused is returned by FakeDialer when the next dial is scripted to fail.
var ErrDialRefused = errors.New("fake dial refused")

// FakeConn is an in-memory push connection driven by the test.
type FakeConn struct {
	incoming chan []byte
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	closed   bool
	dropErr  error
}

// NewFakeConn creates an open connection.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

// Push delivers one payload to the reader.
func (c *FakeConn) Push(data []byte) {
	select {
	case c.incoming <- data:
	case <-c.done:
	}
}

// Drop simulates the server closing the connection.
func (c *FakeConn) Drop() {
	c.mu.Lock()
	c.dropErr = io.EOF
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// ReadMessage returns pushed payloads until the connection is dropped or closed.
func (c *FakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.dropErr != nil {
			return nil, c.dropErr
		}
		return nil, errors.New("use of closed connection")
	}
}

// Close closes the connection from the client side.
func (c *FakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return nil
}

// Closed reports whether the client closed the connection.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeDialer hands out FakeConns. Failures can be scripted per attempt.
type FakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*FakeConn
	fails []bool
}

// NewFakeDialer creates a dialer whose dials all succeed.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{}
}

// FailNext makes the next n dials fail with ErrDialRefused.
func (d *FakeDialer) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < n; i++ {
		d.fails = append(d.fails, true)
	}
}

// Dial implements channel.Dialer.
func (d *FakeDialer) Dial(ctx context.Context, url string) (channel.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.fails) > 0 {
		d.fails = d.fails[1:]
		d.conns = append(d.conns, nil)
		return nil, ErrDialRefused
	}
	conn := NewFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

// Dials returns how many dial attempts were made.
func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

// URLs returns every dialled address.
func (d *FakeDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Conn returns the connection from attempt i, or nil if that attempt failed.
func (d *FakeDialer) Conn(i int) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}
