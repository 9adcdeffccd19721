package sse

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

type Event string

const (
	EventMessageAppended     Event = "ConversationMessageAppended"
	EventStepChanged         Event = "ConversationStepChanged"
	EventSuggestionsUpdated  Event = "ConversationSuggestionsUpdated"
	EventTranscriptTruncated Event = "ConversationTranscriptTruncated"
	EventOTPCooldown         Event = "ConversationOTPCooldown"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan Message
	done     chan struct{}
}

func (c *Client) Done() <-chan struct{} { return c.done }

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Channels: make(map[string]bool),
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true
	h.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range client.Channels {
		if clients, ok := h.subscriptions[channel]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, channel)
			}
		}
	}
	select {
	case <-client.done:
	default:
		close(client.done)
	}
}

// Publish fans a message out to every subscriber of the channel. Slow
// consumers are skipped rather than blocking the caller.
func (h *Hub) Publish(channel string, event Event, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.subscriptions[channel]
	if !ok {
		return
	}
	msg := Message{Channel: channel, Event: event, Data: data}
	for client := range clients {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Debug("dropping SSE message for slow client", "client_id", client.ID, "channel", channel, "event", event)
		}
	}
}

// ConversationChannel names the per-conversation SSE channel.
func ConversationChannel(id uuid.UUID) string {
	return "conversation:" + id.String()
}
