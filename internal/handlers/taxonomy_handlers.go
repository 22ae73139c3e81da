package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- Category & Brand Handlers (Public) ---

// GetAllCategories is the handler for GET /api/categories (tree structure).
func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch categories", err)
		return
	}
	respond(c, http.StatusOK, "Categories retrieved", categories)
}

// GetAllBrands is the handler for GET /api/brands
func (h *Handlers) GetAllBrands(c *gin.Context) {
	brands, err := h.Catalog.ListBrands(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch brands", err)
		return
	}
	respond(c, http.StatusOK, "Brands retrieved", brands)
}
