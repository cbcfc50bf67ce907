package testing

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeDialer_ScriptedFailures(t *testing.T) {
	d := NewFakeDialer()
	d.FailNext(1)

	_, err := d.Dial(context.Background(), "ws://a/ws")
	assert.ErrorIs(t, err, ErrDialRefused)
	assert.Nil(t, d.Conn(0))

	conn, err := d.Dial(context.Background(), "ws://a/ws")
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.Equal(t, 2, d.Dials())
	assert.Equal(t, []string{"ws://a/ws", "ws://a/ws"}, d.URLs())
}

func TestFakeDialer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFakeDialer().Dial(ctx, "ws://a/ws")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFakeConn_PushAndDrop(t *testing.T) {
	c := NewFakeConn()
	c.Push([]byte("hello"))

	data, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	c.Drop()
	_, err = c.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, c.Closed())
}

func TestFakeConn_Close(t *testing.T) {
	c := NewFakeConn()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.ReadMessage()
	assert.Error(t, err)
	assert.True(t, c.Closed())
}
