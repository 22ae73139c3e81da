package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexustechhub/nexus-api/internal/tax"
)

//
// --- Checkout Tax & Shipping Handlers (Public) ---
//

func isTaxInputError(err error) bool {
	return errors.Is(err, tax.ErrNoItems) || errors.Is(err, tax.ErrNegativeAmount) || errors.Is(err, tax.ErrBadQuantity) ||
		errors.Is(err, tax.ErrAmountTooLarge)
}

// CalculateTax is the handler for POST /api/tax/calculate
// Amounts are minor units (fils).
func (h *Handlers) CalculateTax(c *gin.Context) {
	var req tax.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.Tax.Calculate(c.Request.Context(), req)
	if err != nil {
		if isTaxInputError(err) {
			badRequest(c, err.Error())
			return
		}
		h.internalError(c, "Failed to calculate tax", err)
		return
	}
	respond(c, http.StatusOK, "Tax calculated", res)
}

// GetShippingOptions is the handler for GET /api/shipping/options?subtotal=&city=
func (h *Handlers) GetShippingOptions(c *gin.Context) {
	subtotal := queryInt64(c, "subtotal")
	opts := tax.ShippingOptions(subtotal, h.FreeShippingThreshold, c.Query("city"))
	respond(c, http.StatusOK, "Shipping options retrieved", gin.H{
		"options":               opts,
		"freeShippingThreshold": h.FreeShippingThreshold,
		"qualifiesForFree":      subtotal >= h.FreeShippingThreshold,
	})
}
