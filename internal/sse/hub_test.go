package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func TestPublish_ReachesSubscribersOnly(t *testing.T) {
	hub := newTestHub(t)
	channel := ConversationChannel(uuid.New())

	subscribed := hub.NewClient()
	hub.Subscribe(subscribed, channel)
	other := hub.NewClient()
	hub.Subscribe(other, ConversationChannel(uuid.New()))

	hub.Publish(channel, EventStepChanged, map[string]any{"step": "university"})

	select {
	case msg := <-subscribed.Outbound:
		if msg.Event != EventStepChanged || msg.Channel != channel {
			t.Fatalf("message: %+v", msg)
		}
	default:
		t.Fatalf("subscriber received nothing")
	}
	select {
	case msg := <-other.Outbound:
		t.Fatalf("unrelated client received %+v", msg)
	default:
	}
}

func TestPublish_DropsForSlowClients(t *testing.T) {
	hub := newTestHub(t)
	channel := "conversation:slow"
	client := hub.NewClient()
	hub.Subscribe(client, channel)

	// Fill the buffer and then some; Publish must never block.
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Publish(channel, EventMessageAppended, i)
	}
	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("buffered: want=%d got=%d", cap(client.Outbound), got)
	}
}

func TestRemoveClient_ClosesDoneAndStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	channel := "conversation:gone"
	client := hub.NewClient()
	hub.Subscribe(client, channel)

	hub.RemoveClient(client)
	select {
	case <-client.Done():
	default:
		t.Fatalf("done channel should be closed")
	}

	hub.Publish(channel, EventMessageAppended, "late")
	select {
	case msg := <-client.Outbound:
		t.Fatalf("removed client received %+v", msg)
	default:
	}

	// Removing twice is harmless.
	hub.RemoveClient(client)
}
