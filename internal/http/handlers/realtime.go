package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
	"github.com/deepedumate/loan-aggregator-sub000/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// GET /api/conversations/:id/stream
// Streams conversation events (messages, step changes, suggestion updates)
// until the client disconnects.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	client := h.hub.NewClient()
	h.hub.Subscribe(client, sse.ConversationChannel(id))
	defer h.hub.RemoveClient(client)

	h.log.Info("SSE stream open", "conversation_id", id, "client_id", client.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-client.Outbound:
			if !open {
				return false
			}
			data, err := json.Marshal(msg.Data)
			if err != nil {
				h.log.Warn("SSE payload marshal failed", "event", msg.Event, "error", err)
				return true
			}
			c.SSEvent(string(msg.Event), string(data))
			return true
		case <-client.Done():
			return false
		case <-ctx.Done():
			return false
		}
	})

	h.log.Info("SSE stream closed", "conversation_id", id, "client_id", client.ID)
	c.Status(http.StatusOK)
}
