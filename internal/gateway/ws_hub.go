package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event announces a successful journal mutation so other open sessions can
// refresh. Delivery is best effort; a session that misses an event just
// shows a stale view until its next read.
type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	UserID string `json:"userId"`
}

type subscription struct {
	client *Client
	userID string
}

type Hub struct {
	clients map[*Client]bool
	subs    map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	events      chan Event

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		subs:        make(map[string]map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		subscribe:   make(chan subscription, 64),
		unsubscribe: make(chan subscription, 64),
		events:      make(chan Event, 256),
		logger:      logger,
	}
}

// Notify queues an event for fan-out. Never blocks the mutation path: when
// the queue is full the event is dropped.
func (h *Hub) Notify(evt Event) {
	select {
	case h.events <- evt:
	default:
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for userID, clients := range h.subs {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.subs, userID)
						}
					}
				}
				close(client.send)
			}
		case sub := <-h.subscribe:
			if _, ok := h.subs[sub.userID]; !ok {
				h.subs[sub.userID] = make(map[*Client]bool)
			}
			h.subs[sub.userID][sub.client] = true
		case sub := <-h.unsubscribe:
			if clients, ok := h.subs[sub.userID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.subs, sub.userID)
				}
			}
		case evt := <-h.events:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			h.fanOut(evt.UserID, data)
		}
	}
}

func (h *Hub) fanOut(userID string, data []byte) {
	clients, ok := h.subs[userID]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
		}
	}
}
