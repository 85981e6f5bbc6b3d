package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/core"
)

// StreamHandlers serves the live message stream over SSE and WebSocket.
// Each connection gets its own hub subscription and runs until the client
// disconnects or the hub shuts down. A lagging session skips what it missed
// and keeps going.
type StreamHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewStreamHandlers creates a new stream handlers instance.
func NewStreamHandlers(hub *core.Hub, logger *zerolog.Logger) *StreamHandlers {
	return &StreamHandlers{hub: hub, log: logger}
}

// Events streams messages as server-sent events. An optional ?room= query
// filters delivery to one room.
// GET /api/events
func (h *StreamHandlers) Events(c *gin.Context) {
	room := c.Query("room")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case msg := <-sub.C():
			h.noteLag(sub)
			if room != "" && msg.Room != room {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
				h.log.Debug().Err(err).Str("subscription", sub.ID).Msg("sse client gone")
				return
			}
			c.Writer.Flush()

		case <-ctx.Done():
			return

		case <-h.hub.Done():
			// Shutdown: stop before a partial frame can be written.
			return
		}
	}
}

// WebSocket streams messages as JSON text frames.
// GET /ws
func (h *StreamHandlers) WebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	room := c.Query("room")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// The stream is write-only; CloseRead surfaces client disconnects
	// through context cancellation.
	ctx := conn.CloseRead(c.Request.Context())

	for {
		select {
		case msg := <-sub.C():
			h.noteLag(sub)
			if room != "" && msg.Room != room {
				continue
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				h.log.Debug().Err(err).Str("subscription", sub.ID).Msg("ws client gone")
				return
			}

		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closing")
			return

		case <-h.hub.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}

// noteLag records overflow evictions. Missed messages are tolerated, never
// fatal to the session.
func (h *StreamHandlers) noteLag(sub *core.Subscription) {
	if n := sub.Lagged(); n > 0 {
		h.log.Debug().Uint64("missed", n).Str("subscription", sub.ID).Msg("stream lagged, continuing")
	}
}
