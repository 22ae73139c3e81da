package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/nexustechhub/nexus-api/internal/database"
	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/models"
	"github.com/nexustechhub/nexus-api/internal/tax"
)

//
// --- Order Handlers (Customer) ---
//

// CheckoutItem is one requested line.
type CheckoutItem struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gte=1"`
}

// CheckoutInput is the body of POST /api/orders.
type CheckoutInput struct {
	Items          []CheckoutItem `json:"items" binding:"required,min=1,dive"`
	ShippingOption string         `json:"shippingOption"`
	Address        tax.Address    `json:"address"`
}

// orderLine is a product row joined with the requested quantity.
type orderLine struct {
	ProductID int64   `db:"id"`
	Name      string  `db:"name"`
	Price     float64 `db:"price"`
	Stock     int     `db:"stock_quantity"`
	Quantity  int     `db:"-"`
}

type checkoutError struct{ msg string }

func (e checkoutError) Error() string { return e.msg }

// Checkout is the handler for POST /api/orders
func (h *Handlers) Checkout(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. --- Get Customer ID ---
	customerID := middleware.CustomerID(c)

	// 2. --- Bind Input ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if input.ShippingOption == "" {
		input.ShippingOption = "standard"
	}

	// 3. --- Load Products & Check Stock ---
	quantities := map[int64]int{}
	ids := []int64{}
	for _, it := range input.Items {
		if _, seen := quantities[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}
	lines, err := h.loadOrderLines(c, ids, quantities)
	if err != nil {
		if ce, ok := err.(checkoutError); ok {
			badRequest(c, ce.msg)
			return
		}
		h.internalError(c, "Failed to load products", err)
		return
	}

	// 4. --- Price the Order ---
	req := tax.Request{Address: input.Address}
	for _, l := range lines {
		req.Items = append(req.Items, tax.LineItem{
			Amount:    tax.ToMinor(l.Price),
			Quantity:  int64(l.Quantity),
			Reference: fmt.Sprintf("product-%d", l.ProductID),
		})
	}
	shipping, ok := tax.FindShipping(tax.ShippingOptions(req.Subtotal(), h.FreeShippingThreshold, input.Address.City), input.ShippingOption)
	if !ok {
		badRequest(c, fmt.Sprintf("Shipping option %q is not available for this address", input.ShippingOption))
		return
	}
	req.Shipping = shipping.Amount
	priced, err := h.Tax.Calculate(ctx, req)
	if err != nil {
		if isTaxInputError(err) {
			badRequest(c, err.Error())
			return
		}
		h.internalError(c, "Failed to calculate tax", err)
		return
	}

	// 5. --- Begin Transaction ---
	tx, err := h.DB.BeginTxx(ctx, nil)
	if err != nil {
		h.internalError(c, "Failed to start transaction", err)
		return
	}
	defer tx.Rollback() // Safety net

	// 6. --- Create Order ---
	now := time.Now().UTC()
	order := models.Order{
		CustomerID: customerID,
		Status:     models.OrderPending,
		Currency:   priced.Currency,
		Subtotal:   priced.Subtotal,
		Shipping:   priced.Shipping,
		VAT:        priced.VAT,
		Total:      priced.Total,
		TaxSource:  string(priced.Source),
		CreatedAt:  now,
		Items:      []models.OrderItem{},
	}
	order.ID, err = database.InsertID(ctx, tx, `
		INSERT INTO orders (customer_id, status, currency, subtotal, shipping, vat, total, tax_source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.CustomerID, order.Status, order.Currency, order.Subtotal, order.Shipping, order.VAT, order.Total, order.TaxSource, now)
	if err != nil {
		h.internalError(c, "Failed to create order", err)
		return
	}

	// 7. --- Snapshot Items & Deduct Stock ---
	stockQuery := tx.Rebind("UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?")
	for _, l := range lines {
		itemID, err := database.InsertID(ctx, tx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at)
			VALUES (?, ?, ?, ?, ?)`, order.ID, l.ProductID, l.Quantity, l.Price, now)
		if err != nil {
			h.internalError(c, "Failed to save order item", err)
			return
		}
		res, err := tx.ExecContext(ctx, stockQuery, l.Quantity, l.ProductID, l.Quantity)
		if err != nil {
			h.internalError(c, "Failed to deduct stock", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			badRequest(c, fmt.Sprintf("Not enough stock for %s", l.Name))
			return
		}
		order.Items = append(order.Items, models.OrderItem{
			ID: itemID, OrderID: order.ID, ProductID: l.ProductID, ProductName: l.Name,
			Quantity: l.Quantity, UnitPrice: l.Price,
		})
	}

	// 8. --- Commit Transaction ---
	if err := tx.Commit(); err != nil {
		h.internalError(c, "Failed to commit order", err)
		return
	}

	respond(c, http.StatusCreated, "Order created successfully", order)
}

// loadOrderLines fetches the requested products and rejects unknown or
// short-stocked ones.
func (h *Handlers) loadOrderLines(c *gin.Context, ids []int64, quantities map[int64]int) ([]orderLine, error) {
	query, args, err := sqlx.In("SELECT id, name, price, stock_quantity FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []orderLine
	if err := h.DB.SelectContext(c.Request.Context(), &rows, h.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	byID := make(map[int64]orderLine, len(rows))
	for _, r := range rows {
		byID[r.ProductID] = r
	}

	lines := make([]orderLine, 0, len(ids))
	var missing []string
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			missing = append(missing, fmt.Sprint(id))
			continue
		}
		l.Quantity = quantities[id]
		if l.Stock < l.Quantity {
			return nil, checkoutError{fmt.Sprintf("Not enough stock for %s", l.Name)}
		}
		lines = append(lines, l)
	}
	if len(missing) > 0 {
		return nil, checkoutError{"Unknown product id(s): " + strings.Join(missing, ", ")}
	}
	return lines, nil
}

// GetMyOrders is the handler for GET /api/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.readDB()

	// 1. --- Query Orders ---
	orders := []models.Order{}
	query := db.Rebind(`
		SELECT id, customer_id, status, currency, subtotal, shipping, vat, total, tax_source, created_at
		FROM orders WHERE customer_id = ? ORDER BY created_at DESC, id DESC`)
	if err := db.SelectContext(ctx, &orders, query, middleware.CustomerID(c)); err != nil {
		h.internalError(c, "Failed to fetch orders", err)
		return
	}
	if len(orders) == 0 {
		respond(c, http.StatusOK, "Orders retrieved", orders)
		return
	}

	// 2. --- Attach Items ---
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}
	itemsQuery, args, err := sqlx.In(`
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, '') AS product_name, oi.quantity, oi.unit_price
		FROM order_items oi LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (?) ORDER BY oi.id`, ids)
	if err != nil {
		h.internalError(c, "Failed to fetch order items", err)
		return
	}
	var items []models.OrderItem
	if err := db.SelectContext(ctx, &items, db.Rebind(itemsQuery), args...); err != nil {
		h.internalError(c, "Failed to fetch order items", err)
		return
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it)
	}

	respond(c, http.StatusOK, "Orders retrieved", orders)
}
