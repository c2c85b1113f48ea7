package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/api/internal/model"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := NewHub(logger)
	go h.Run()
	return h
}

func receive(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubJobUpdatedReachesOnlySubscribers(t *testing.T) {
	h := newRunningHub(t)

	a := &Client{JobID: "a", Send: make(chan []byte, 4)}
	b := &Client{JobID: "b", Send: make(chan []byte, 4)}
	h.Register(a)
	h.Register(b)
	require.Eventually(t, func() bool { return h.Subscribers("a") == 1 && h.Subscribers("b") == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastJobUpdated("a", "gpt-x", 1234)

	msg := receive(t, a)
	assert.Equal(t, model.WSMessageTypeJobUpdated, msg["type"])
	assert.Equal(t, "gpt-x", msg["model"])
	assert.Equal(t, float64(1234), msg["updatedAtMs"])

	select {
	case <-b.Send:
		t.Fatal("subscriber of another job received the update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubStoreChangedReachesEveryone(t *testing.T) {
	h := newRunningHub(t)

	a := &Client{JobID: "a", Send: make(chan []byte, 4)}
	b := &Client{JobID: "b", Send: make(chan []byte, 4)}
	h.Register(a)
	h.Register(b)

	h.BroadcastStoreChanged()

	assert.Equal(t, model.WSMessageTypeStoreChanged, receive(t, a)["type"])
	assert.Equal(t, model.WSMessageTypeStoreChanged, receive(t, b)["type"])
}

func TestHubDropsSlowClient(t *testing.T) {
	h := newRunningHub(t)

	slow := &Client{JobID: "a", Send: make(chan []byte)}
	h.Register(slow)
	require.Eventually(t, func() bool { return h.Subscribers("a") == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastError("a", model.WSErrorCodeStoreUnavailable, "boom")

	require.Eventually(t, func() bool { return h.Subscribers("a") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-slow.Send
	assert.False(t, ok)

	// Unregistering an already dropped client is a no-op.
	h.Unregister(slow)
}
