package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, 16)}
}

func TestHubFanOutBySubscribedUser(t *testing.T) {
	t.Parallel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := newHubClient(hub)
	b := newHubClient(hub)
	hub.register <- a
	hub.register <- b
	hub.subscribe <- subscription{client: a, userID: "u1"}
	hub.subscribe <- subscription{client: b, userID: "u2"}

	// The subscription lands on the hub goroutine asynchronously, so keep
	// notifying until the matching client sees an event.
	var got []byte
	require.Eventually(t, func() bool {
		hub.Notify(Event{Type: "created", Entity: "trade", UserID: "u1"})
		select {
		case got = <-a.send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	var evt Event
	require.NoError(t, json.Unmarshal(got, &evt))
	assert.Equal(t, "created", evt.Type)
	assert.Equal(t, "trade", evt.Entity)
	assert.Equal(t, "u1", evt.UserID)

	select {
	case msg := <-b.send:
		t.Fatalf("client subscribed to another user received %s", msg)
	default:
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newHubClient(hub)
	hub.register <- c
	hub.subscribe <- subscription{client: c, userID: "u1"}

	require.Eventually(t, func() bool {
		hub.Notify(Event{Type: "created", Entity: "trade", UserID: "u1"})
		select {
		case <-c.send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	hub.unsubscribe <- subscription{client: c, userID: "u1"}

	// Once the unsubscribe lands, further events stop arriving. Drain any
	// in-flight deliveries until the channel stays quiet.
	require.Eventually(t, func() bool {
		hub.Notify(Event{Type: "created", Entity: "trade", UserID: "u1"})
		time.Sleep(20 * time.Millisecond)
		select {
		case <-c.send:
			return false
		default:
			return true
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubUnregisterClosesClient(t *testing.T) {
	t.Parallel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newHubClient(hub)
	hub.register <- c
	hub.subscribe <- subscription{client: c, userID: "u1"}
	hub.unregister <- c

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotifyNeverBlocks(t *testing.T) {
	t.Parallel()

	// No Run goroutine: the queue fills and overflow is dropped instead of
	// stalling the caller.
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for i := 0; i < cap(hub.events)+10; i++ {
		hub.Notify(Event{Type: "created", Entity: "trade", UserID: "u1"})
	}
	assert.Len(t, hub.events, cap(hub.events))
}
