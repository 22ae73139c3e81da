package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/outreach"
)

//
// --- Outreach Handlers (Admin) ---
//

// outreachError maps service errors to 400/404/500.
func (h *Handlers) outreachError(c *gin.Context, op string, err error) {
	switch {
	case outreach.IsNotFound(err):
		notFound(c, err.Error())
	case outreach.IsBadRequest(err):
		badRequest(c, err.Error())
	default:
		h.internalError(c, op, err)
	}
}

func bindBody(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// --- Campaigns ---

// ListCampaigns is the handler for GET /api/outreach/campaigns?status=&page=&limit=
func (h *Handlers) ListCampaigns(c *gin.Context) {
	campaigns, page, err := h.Outreach.ListCampaigns(c.Request.Context(), c.Query("status"), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		h.outreachError(c, "Failed to fetch campaigns", err)
		return
	}
	respond(c, http.StatusOK, "Campaigns retrieved", gin.H{"campaigns": campaigns, "pagination": page})
}

// CreateCampaign is the handler for POST /api/outreach/campaigns
func (h *Handlers) CreateCampaign(c *gin.Context) {
	var input outreach.CampaignInput
	if !bindBody(c, &input) {
		return
	}
	campaign, err := h.Outreach.CreateCampaign(c.Request.Context(), input, middleware.CustomerID(c))
	if err != nil {
		h.outreachError(c, "Failed to create campaign", err)
		return
	}
	respond(c, http.StatusCreated, "Campaign created successfully", campaign)
}

// GetCampaign is the handler for GET /api/outreach/campaigns/:id
func (h *Handlers) GetCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Outreach.GetCampaign(c.Request.Context(), id)
	if err != nil {
		h.outreachError(c, "Failed to fetch campaign", err)
		return
	}
	respond(c, http.StatusOK, "Campaign retrieved", detail)
}

// UpdateCampaign is the handler for PUT /api/outreach/campaigns/:id
func (h *Handlers) UpdateCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input outreach.CampaignUpdate
	if !bindBody(c, &input) {
		return
	}
	campaign, err := h.Outreach.UpdateCampaign(c.Request.Context(), id, input)
	if err != nil {
		h.outreachError(c, "Failed to update campaign", err)
		return
	}
	respond(c, http.StatusOK, "Campaign updated successfully", campaign)
}

// DeleteCampaign is the handler for DELETE /api/outreach/campaigns/:id
func (h *Handlers) DeleteCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Outreach.DeleteCampaign(c.Request.Context(), id); err != nil {
		h.outreachError(c, "Failed to delete campaign", err)
		return
	}
	respond(c, http.StatusOK, "Campaign deleted successfully", nil)
}

// ActionInput is the body of POST /api/outreach/campaigns/:id
type ActionInput struct {
	Action          string         `json:"action"`
	ScheduleOptions map[string]any `json:"scheduleOptions"`
}

// CampaignAction is the handler for POST /api/outreach/campaigns/:id
// Actions: schedule, execute, pause, resume, stop.
func (h *Handlers) CampaignAction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ActionInput
	if !bindBody(c, &input) {
		return
	}
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action == "" {
		badRequest(c, "Action is required")
		return
	}

	res, err := h.Outreach.Act(c.Request.Context(), id, action, input.ScheduleOptions)
	if err != nil {
		h.outreachError(c, "Failed to perform campaign action", err)
		return
	}
	respond(c, http.StatusOK, "Campaign "+action+" completed", res)
}

// --- Messages ---

// ListMessages is the handler for GET /api/outreach/campaigns/:id/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.Outreach.ListMessages(c.Request.Context(), id)
	if err != nil {
		h.outreachError(c, "Failed to fetch messages", err)
		return
	}
	respond(c, http.StatusOK, "Messages retrieved", msgs)
}

// CreateMessage is the handler for POST /api/outreach/campaigns/:id/messages
func (h *Handlers) CreateMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input outreach.MessageInput
	if !bindBody(c, &input) {
		return
	}
	msg, err := h.Outreach.CreateMessage(c.Request.Context(), id, input)
	if err != nil {
		h.outreachError(c, "Failed to create message", err)
		return
	}
	respond(c, http.StatusCreated, "Message created successfully", msg)
}

// UpdateMessage is the handler for PUT /api/outreach/campaigns/:id/messages/:messageId
func (h *Handlers) UpdateMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramID(c, "messageId")
	if !ok {
		return
	}
	var input outreach.MessageUpdate
	if !bindBody(c, &input) {
		return
	}
	msg, err := h.Outreach.UpdateMessage(c.Request.Context(), id, messageID, input)
	if err != nil {
		h.outreachError(c, "Failed to update message", err)
		return
	}
	respond(c, http.StatusOK, "Message updated successfully", msg)
}

// DeleteMessage is the handler for DELETE /api/outreach/campaigns/:id/messages/:messageId
func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramID(c, "messageId")
	if !ok {
		return
	}
	if err := h.Outreach.DeleteMessage(c.Request.Context(), id, messageID); err != nil {
		h.outreachError(c, "Failed to delete message", err)
		return
	}
	respond(c, http.StatusOK, "Message deleted successfully", nil)
}

// --- Recipients ---

// ListRecipients is the handler for GET /api/outreach/campaigns/:id/recipients?status=&search=&page=&limit=
func (h *Handlers) ListRecipients(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	recipients, page, err := h.Outreach.ListRecipients(c.Request.Context(), id,
		c.Query("status"), c.Query("search"), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		h.outreachError(c, "Failed to fetch recipients", err)
		return
	}
	respond(c, http.StatusOK, "Recipients retrieved", gin.H{"recipients": recipients, "pagination": page})
}

// AddRecipientsInput is the body of POST /api/outreach/campaigns/:id/recipients
type AddRecipientsInput struct {
	Recipients []outreach.RecipientInput `json:"recipients"`
}

// AddRecipients is the handler for POST /api/outreach/campaigns/:id/recipients
func (h *Handlers) AddRecipients(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input AddRecipientsInput
	if !bindBody(c, &input) {
		return
	}
	res, err := h.Outreach.AddRecipients(c.Request.Context(), id, input.Recipients)
	if err != nil {
		h.outreachError(c, "Failed to add recipients", err)
		return
	}
	respond(c, http.StatusOK, "Recipients added successfully", res)
}

// RemoveRecipientsInput is the body of DELETE /api/outreach/campaigns/:id/recipients
type RemoveRecipientsInput struct {
	RecipientIDs []int64 `json:"recipientIds"`
}

// RemoveRecipients is the handler for DELETE /api/outreach/campaigns/:id/recipients
func (h *Handlers) RemoveRecipients(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input RemoveRecipientsInput
	if !bindBody(c, &input) {
		return
	}
	removed, err := h.Outreach.RemoveRecipients(c.Request.Context(), id, input.RecipientIDs)
	if err != nil {
		h.outreachError(c, "Failed to remove recipients", err)
		return
	}
	respond(c, http.StatusOK, "Recipients removed successfully", gin.H{"removed": removed})
}
