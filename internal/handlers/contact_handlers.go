package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/database"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/models"
	"github.com/nexustechhub/nexus-api/internal/validation"
	"github.com/nexustechhub/nexus-api/internal/webhook"
)

//
// --- Contact & Newsletter Handlers (Public, rate limited) ---
//

func validationFailed(c *gin.Context, errs []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Please correct the following errors:",
		"errors":  errs,
	})
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// relay forwards an event to the automation hook without failing the request.
func (h *Handlers) relay(c *gin.Context, event string, data any) {
	if h.Relay == nil {
		return
	}
	if err := h.Relay.Send(c.Request.Context(), event, data); err != nil {
		if errors.Is(err, webhook.ErrNotConfigured) {
			return
		}
		h.Log.Warn("webhook relay failed", zap.String("event", event), zap.Error(err))
	}
}

// SubmitContact is the handler for POST /api/contact
func (h *Handlers) SubmitContact(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. --- Bind & Validate (all rules, not just the first) ---
	var form validation.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if errs := form.Validate(); len(errs) > 0 {
		validationFailed(c, errs)
		return
	}

	// 2. --- Sanitize ---
	clean := form.Sanitized()
	now := time.Now().UTC()

	// 3. --- Persist (best effort) ---
	inquiry := models.ContactInquiry{
		Name:        clean.Name,
		Email:       clean.Email,
		Phone:       optionalString(clean.Phone),
		Company:     optionalString(clean.Company),
		Subject:     clean.Subject,
		Message:     clean.Message,
		InquiryType: clean.InquiryType,
		Status:      "new",
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		CreatedAt:   now,
	}
	var err error
	inquiry.ID, err = database.InsertID(ctx, h.DB, `
		INSERT INTO contact_inquiries (name, email, phone, company, subject, message, inquiry_type, status, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inquiry.Name, inquiry.Email, inquiry.Phone, inquiry.Company, inquiry.Subject, inquiry.Message,
		inquiry.InquiryType, inquiry.Status, inquiry.IPAddress, inquiry.UserAgent, inquiry.CreatedAt)
	if err != nil {
		h.Log.Error("store contact inquiry", zap.Error(err))
	}

	// 4. --- Notify Staff ---
	msg := email.ContactNotification(h.ContactEmail, email.ContactDetails{
		Name:        clean.Name,
		Email:       clean.Email,
		Phone:       clean.Phone,
		Company:     clean.Company,
		Subject:     clean.Subject,
		Message:     clean.Message,
		InquiryType: clean.InquiryType,
	})
	if err := h.Mailer.Send(ctx, msg); err != nil {
		h.Log.Error("send contact notification", zap.Error(err))
		fail(c, http.StatusInternalServerError,
			"Sorry, there was an error sending your message. Please try again or contact us directly.",
			"Failed to send email")
		return
	}

	// 5. --- Relay & Respond ---
	h.relay(c, "contact.submitted", gin.H{
		"name":        clean.Name,
		"email":       clean.Email,
		"phone":       clean.Phone,
		"company":     clean.Company,
		"subject":     clean.Subject,
		"message":     clean.Message,
		"inquiryType": clean.InquiryType,
	})

	respond(c, http.StatusOK, "Thank you for your inquiry! We will get back to you within 24 hours.", gin.H{
		"messageId": uuid.NewString(),
		"timestamp": now.Format(time.RFC3339),
	})
}

// Subscribe is the handler for POST /api/newsletter
func (h *Handlers) Subscribe(c *gin.Context) {
	ctx := c.Request.Context()

	var form validation.NewsletterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if errs := form.Validate(); len(errs) > 0 {
		validationFailed(c, errs)
		return
	}
	name := validation.Sanitize(form.Name)
	sub := models.NewsletterSubscriber{
		Email:     strings.ToLower(validation.Sanitize(form.Email)),
		Name:      optionalString(name),
		Status:    "subscribed",
		CreatedAt: time.Now().UTC(),
	}

	// 1. --- Upsert Subscriber ---
	_, err := h.DB.ExecContext(ctx, h.DB.Rebind(
		"INSERT INTO newsletter_subscribers (email, name, status, created_at) VALUES (?, ?, ?, ?)"),
		sub.Email, sub.Name, sub.Status, sub.CreatedAt)
	if err != nil {
		if !database.IsUniqueViolation(err) {
			h.internalError(c, "Failed to subscribe", err)
			return
		}
		_, err = h.DB.ExecContext(ctx, h.DB.Rebind(
			"UPDATE newsletter_subscribers SET status = ?, name = COALESCE(?, name) WHERE email = ?"),
			sub.Status, sub.Name, sub.Email)
		if err != nil {
			h.internalError(c, "Failed to subscribe", err)
			return
		}
	}

	// 2. --- Welcome Mail & Relay (best effort) ---
	if err := h.Mailer.Send(ctx, email.NewsletterWelcome(sub.Email, name)); err != nil {
		h.Log.Warn("send newsletter welcome", zap.String("email", sub.Email), zap.Error(err))
	}
	h.relay(c, "newsletter.subscribed", gin.H{"email": sub.Email, "name": name})

	respond(c, http.StatusOK, "Successfully subscribed to the newsletter!", sub)
}
