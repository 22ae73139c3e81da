package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexustechhub/nexus-api/internal/fallback"
	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/models"
)

//
// --- Recommendation Handlers (Public) ---
//
// These never fail: when the query errors or finds nothing the canned
// catalog is returned and "source" says so.
//

func recommendations(c *gin.Context, products []models.Product, source fallback.Source) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Recommendations retrieved",
		"source":  source,
		"data":    products,
	})
}

// Similar is the handler for GET /api/recommendations/similar?productId=&categoryId=&limit=
func (h *Handlers) Similar(c *gin.Context) {
	productID, categoryID := queryInt64(c, "productId"), queryInt64(c, "categoryId")
	if productID == 0 && categoryID == 0 {
		badRequest(c, "productId or categoryId is required")
		return
	}
	products, source := h.Recommender.Similar(c.Request.Context(), productID, categoryID, queryInt(c, "limit", 0))
	recommendations(c, products, source)
}

// FrequentlyBoughtTogether is the handler for GET /api/recommendations/frequently-bought-together?productId=&limit=
func (h *Handlers) FrequentlyBoughtTogether(c *gin.Context) {
	productID := queryInt64(c, "productId")
	if productID == 0 {
		badRequest(c, "productId is required")
		return
	}
	products, source := h.Recommender.FrequentlyBoughtTogether(c.Request.Context(), productID, queryInt(c, "limit", 0))
	recommendations(c, products, source)
}

// Personalized is the handler for GET /api/recommendations/personalized?limit=
// Signed-in customers get picks from their order history; everyone else the top rated.
func (h *Handlers) Personalized(c *gin.Context) {
	products, source := h.Recommender.Personalized(c.Request.Context(), middleware.CustomerID(c), queryInt(c, "limit", 0))
	recommendations(c, products, source)
}
