package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/catalog"
	"github.com/nexustechhub/nexus-api/internal/fallback"
	"github.com/nexustechhub/nexus-api/internal/models"
)

//
// --- Product Handlers (Public) ---
//

// ListProducts is the handler for GET /api/products
// Query: categoryId, brandId, q, inStock, page, limit.
func (h *Handlers) ListProducts(c *gin.Context) {
	// 1. --- Read filters ---
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := catalog.ClampLimit(queryInt(c, "limit", 12), 12)
	filter := catalog.ProductFilter{
		CategoryID:  queryInt64(c, "categoryId"),
		BrandID:     queryInt64(c, "brandId"),
		Search:      c.Query("q"),
		InStockOnly: c.Query("inStock") == "true",
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	// 2. --- Query, or fall back to the sample catalog ---
	products, total, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	source := fallback.Live
	if err != nil {
		h.Log.Warn("list products failed, using fallback catalog", zap.Error(err))
		products = sampleProducts(filter)
		total, source = len(products), fallback.Canned
		products = pageOf(products, filter.Offset, limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Products retrieved",
		"source":  source,
		"data": gin.H{
			"products":   products,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

func sampleProducts(f catalog.ProductFilter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := []models.Product{}
	for _, p := range catalog.MockProducts() {
		if f.CategoryID > 0 && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if f.BrandID > 0 && (p.BrandID == nil || *p.BrandID != f.BrandID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if f.InStockOnly && !p.InStock() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func pageOf(items []models.Product, offset, limit int) []models.Product {
	if offset >= len(items) {
		return []models.Product{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// GetProduct is the handler for GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			notFound(c, "Product not found")
			return
		}
		h.internalError(c, "Failed to fetch product", err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved", product)
}

// SearchProducts is the handler for GET /api/search?q=&limit=
func (h *Handlers) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, "Search query 'q' is required")
		return
	}
	res := h.Search.Search(c.Request.Context(), q, queryInt(c, "limit", 0))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Search results",
		"source":  res.Source,
		"data":    res,
	})
}
