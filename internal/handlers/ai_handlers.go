package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexustechhub/nexus-api/internal/outreach"
)

// PreviewInput is the sample recipient a message is rendered for.
type PreviewInput struct {
	Recipient outreach.RecipientInput `json:"recipient"`
}

// PreviewMessage is the handler for POST /api/outreach/campaigns/:id/messages/:messageId/preview
// It fills the template for a sample recipient and runs it through the AI
// personalizer when one is configured. Nothing is sent.
func (h *Handlers) PreviewMessage(c *gin.Context) {
	// 1. Resolve the message
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramID(c, "messageId")
	if !ok {
		return
	}

	// 2. Parse Input
	var input PreviewInput
	if !bindBody(c, &input) {
		return
	}

	// 3. Render
	preview, err := h.Outreach.Preview(c.Request.Context(), id, messageID, input.Recipient)
	if err != nil {
		h.outreachError(c, "Failed to preview message", err)
		return
	}
	respond(c, http.StatusOK, "Message preview", preview)
}
