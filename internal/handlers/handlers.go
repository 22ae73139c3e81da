package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/catalog"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/outreach"
	"github.com/nexustechhub/nexus-api/internal/search"
	"github.com/nexustechhub/nexus-api/internal/tax"
	"github.com/nexustechhub/nexus-api/internal/webhook"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB         *sqlx.DB // Primary Read/Write connection
	DBReadOnly *sqlx.DB // Read-Only connection (falls back to DB)
	Log        *zap.Logger

	Catalog     *catalog.Repository
	Recommender *catalog.Recommender
	Search      *search.Service
	Tax         *tax.Calculator
	Outreach    *outreach.Service

	Mailer email.Mailer
	Relay  webhook.Relay

	Auth      auth.Provider
	Customers *auth.Customers

	// ContactEmail receives contact form notifications.
	ContactEmail string
	// FreeShippingThreshold is the subtotal (fils) from which standard shipping is free.
	FreeShippingThreshold int64
}

// --- Response envelope ---

func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string, err string) {
	c.JSON(status, gin.H{"success": false, "message": message, "error": err})
}

func badRequest(c *gin.Context, err string) {
	fail(c, http.StatusBadRequest, "Invalid request", err)
}

func notFound(c *gin.Context, err string) {
	fail(c, http.StatusNotFound, "Not found", err)
}

// internalError logs the cause and hides it from the client.
func (h *Handlers) internalError(c *gin.Context, op string, err error) {
	h.Log.Error(op, zap.Error(err), zap.String("path", c.FullPath()))
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, "Internal server error", op)
}

// --- Param helpers ---

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return n
}

func queryInt64(c *gin.Context, name string) int64 {
	n, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *Handlers) readDB() *sqlx.DB {
	if h.DBReadOnly != nil {
		return h.DBReadOnly
	}
	return h.DB
}
