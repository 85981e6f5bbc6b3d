package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/core"
	"github.com/chainchat-dev/chainchat-server/internal/relay"
)

// MessageHandlers accepts inbound messages and hands them to the
// orchestrator.
type MessageHandlers struct {
	orch *relay.Orchestrator
	log  *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(orch *relay.Orchestrator, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{orch: orch, log: logger}
}

// PostMessageRequest represents the message submission body.
type PostMessageRequest struct {
	Room     string `json:"room" binding:"required"`
	Username string `json:"username" binding:"required"`
	Text     string `json:"text"`
	Wallet   string `json:"wallet" binding:"required"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Post handles message submission.
// POST /api/messages
func (h *MessageHandlers) Post(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg := core.Message{
		Room:     req.Room,
		Username: req.Username,
		Text:     req.Text,
		Wallet:   req.Wallet,
	}

	res, err := h.orch.Ingest(c.Request.Context(), msg)
	if err != nil {
		var ce *core.CoreError
		if errors.As(err, &ce) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: ce.Message, Code: ce.Code})
			return
		}
		h.log.Error().Err(err).Msg("ingest failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Effect failures are diagnostics in the body, not an error status: the
	// message is already broadcast.
	c.JSON(http.StatusAccepted, res)
}
