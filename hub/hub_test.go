package hub

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubBroadcastsEvents(t *testing.T) {
	h := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)

	h.Publish(Event{Type: EventCategoryCreated, Data: map[string]any{"id": 6, "name": "Birds"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventCategoryCreated, got.Type)
	assert.Equal(t, "Birds", got.Data["name"])
}

func TestHubForgetsClosedClients(t *testing.T) {
	h := New(zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPublishDoesNotBlockWhenQueueIsFull(t *testing.T) {
	h := New(zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.Publish(Event{Type: EventPhotoDeleted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))
}

func TestStalledClientDoesNotBlockRegistry(t *testing.T) {
	h := New(zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	// The client never reads, so a large frame fills the socket buffers and
	// the write blocks until its deadline.
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		h.send(bytes.Repeat([]byte("x"), 64<<20))
		close(done)
	}()
	time.Sleep(200 * time.Millisecond)

	counted := make(chan int, 1)
	go func() { counted <- h.Clients() }()
	select {
	case n := <-counted:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("client registry locked during a blocked write")
	}

	conn.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("send never returned")
	}
}
