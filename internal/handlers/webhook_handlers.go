package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/webhook"
)

// ZapierInput is the body of POST /api/zapier/webhook.
type ZapierInput struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ZapierWebhook is the handler for POST /api/zapier/webhook
// It forwards {event, data} to the configured hook.
func (h *Handlers) ZapierWebhook(c *gin.Context) {
	var input ZapierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	input.Event = strings.TrimSpace(input.Event)
	if input.Event == "" {
		badRequest(c, "Event type is required")
		return
	}

	if err := h.Relay.Send(c.Request.Context(), input.Event, input.Data); err != nil {
		if errors.Is(err, webhook.ErrNotConfigured) {
			fail(c, http.StatusInternalServerError, "Zapier webhook URL not configured", err.Error())
			return
		}
		h.Log.Error("zapier relay", zap.String("event", input.Event), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to send webhook", err.Error())
		return
	}
	respond(c, http.StatusOK, "Webhook sent successfully", gin.H{"event": input.Event})
}
