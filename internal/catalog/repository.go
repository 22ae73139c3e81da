// Package catalog reads products, categories and brands and computes
// product recommendations.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nexustechhub/nexus-api/internal/models"
)

// ErrProductNotFound is returned by GetProduct for unknown ids.
var ErrProductNotFound = errors.New("product not found")

const productColumns = `
	p.id, p.name, p.slug, p.price, p.discount_percentage, p.stock_quantity,
	p.category_id, c.name AS category_name, p.brand_id, b.name AS brand,
	p.image_url, p.rating, p.review_count`

const productJoins = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

// Repository runs the catalog queries. It only reads, so it is normally
// handed the read-only pool.
type Repository struct {
	db *sqlx.DB
}

// NewRepository returns a Repository over db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ProductFilter narrows ListProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID  int64
	BrandID     int64
	Search      string
	InStockOnly bool
	Limit       int
	Offset      int
}

// ListProducts returns one page of products plus the total match count.
// A category filter also matches its direct subcategories.
func (r *Repository) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID > 0 {
		where = append(where, "(p.category_id = ? OR c.parent_id = ?)")
		args = append(args, f.CategoryID, f.CategoryID)
	}
	if f.BrandID > 0 {
		where = append(where, "p.brand_id = ?")
		args = append(args, f.BrandID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "LOWER(p.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	if f.InStockOnly {
		where = append(where, "p.stock_quantity > 0")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*)" + productJoins + clause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 24
	}
	query := r.db.Rebind("SELECT" + productColumns + productJoins + clause +
		" ORDER BY p.rating DESC, p.id ASC LIMIT ? OFFSET ?")
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, append(args, limit, f.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns a single product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	query := r.db.Rebind("SELECT" + productColumns + productJoins + " WHERE p.id = ?")
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// AllProducts returns every product, for search indexing.
func (r *Repository) AllProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	query := "SELECT" + productColumns + productJoins + " ORDER BY p.id"
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("all products: %w", err)
	}
	return products, nil
}

// SearchByName matches product names case-insensitively.
func (r *Repository) SearchByName(ctx context.Context, q string, limit int) ([]models.Product, error) {
	products, _, err := r.ListProducts(ctx, ProductFilter{Search: q, Limit: limit})
	return products, err
}

// ListCategories returns the category tree: roots with nested children.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	// 1. Fetch all categories flat
	var all []models.Category
	if err := r.db.SelectContext(ctx, &all, "SELECT id, name, slug, parent_id FROM categories ORDER BY LOWER(name) ASC"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return buildTree(all), nil
}

// buildTree folds a flat, ordered category list into its roots. Children are
// attached deepest-first so every level carries its own subtree.
func buildTree(all []models.Category) []models.Category {
	byParent := make(map[int64][]int)
	for i := range all {
		if all[i].ParentID != nil {
			byParent[*all[i].ParentID] = append(byParent[*all[i].ParentID], i)
		}
	}

	var build func(i int, depth int) models.Category
	build = func(i int, depth int) models.Category {
		cat := all[i]
		cat.Children = []models.Category{}
		if depth > len(all) {
			return cat // cycle guard
		}
		for _, child := range byParent[cat.ID] {
			cat.Children = append(cat.Children, build(child, depth+1))
		}
		return cat
	}

	known := make(map[int64]bool, len(all))
	for _, c := range all {
		known[c.ID] = true
	}
	roots := []models.Category{}
	for i := range all {
		// orphans (parent missing) are promoted to roots
		if all[i].ParentID == nil || !known[*all[i].ParentID] {
			roots = append(roots, build(i, 0))
		}
	}
	return roots
}

// ListBrands returns all brands by name.
func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands := []models.Brand{}
	if err := r.db.SelectContext(ctx, &brands, "SELECT id, name, slug FROM brands ORDER BY LOWER(name) ASC"); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// SimilarToProduct scores in-stock products against the given one:
// +3 same category, +2 same brand, +1 price within 50.
func (r *Repository) SimilarToProduct(ctx context.Context, productID int64, limit int) ([]models.Product, error) {
	query := r.db.Rebind(`
		SELECT` + productColumns + `,
			(CASE WHEN p.category_id = t.category_id THEN 3 ELSE 0 END
			 + CASE WHEN p.brand_id = t.brand_id THEN 2 ELSE 0 END
			 + CASE WHEN ABS(p.price - t.price) < 50 THEN 1 ELSE 0 END) AS score` + productJoins + `
		JOIN products t ON t.id = ?
		WHERE p.id <> t.id AND p.stock_quantity > 0
		ORDER BY score DESC, p.rating DESC
		LIMIT ?`)
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, productID, limit); err != nil {
		return nil, fmt.Errorf("similar to product %d: %w", productID, err)
	}
	return products, nil
}

// TopInCategory returns the best rated in-stock products of a category.
func (r *Repository) TopInCategory(ctx context.Context, categoryID int64, limit int) ([]models.Product, error) {
	query := r.db.Rebind("SELECT" + productColumns + productJoins + `
		WHERE p.category_id = ? AND p.stock_quantity > 0
		ORDER BY p.rating DESC, p.review_count DESC
		LIMIT ?`)
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, categoryID, limit); err != nil {
		return nil, fmt.Errorf("top in category %d: %w", categoryID, err)
	}
	return products, nil
}

// BoughtTogether counts how often other products share an order with productID.
func (r *Repository) BoughtTogether(ctx context.Context, productID int64, limit int) ([]models.Product, error) {
	query := r.db.Rebind(`
		SELECT` + productColumns + `, COUNT(*) AS score
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi2.product_id <> oi1.product_id
		JOIN products p ON p.id = oi2.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN brands b ON b.id = p.brand_id
		WHERE oi1.product_id = ?
		GROUP BY p.id, p.name, p.slug, p.price, p.discount_percentage, p.stock_quantity,
			p.category_id, c.name, p.brand_id, b.name, p.image_url, p.rating, p.review_count
		ORDER BY score DESC, p.rating DESC
		LIMIT ?`)
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, productID, limit); err != nil {
		return nil, fmt.Errorf("bought together with %d: %w", productID, err)
	}
	return products, nil
}

// ForCustomer returns in-stock products from categories the customer has
// bought from, minus what they already bought. Anonymous callers get the
// top rated in-stock products.
func (r *Repository) ForCustomer(ctx context.Context, customerID string, limit int) ([]models.Product, error) {
	products := []models.Product{}
	if customerID == "" {
		query := r.db.Rebind("SELECT" + productColumns + productJoins + `
			WHERE p.stock_quantity > 0
			ORDER BY p.rating DESC, p.review_count DESC
			LIMIT ?`)
		if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
			return nil, fmt.Errorf("top rated: %w", err)
		}
		return products, nil
	}

	query := r.db.Rebind("SELECT" + productColumns + productJoins + `
		WHERE p.stock_quantity > 0
		  AND p.category_id IN (
			SELECT bp.category_id FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			JOIN products bp ON bp.id = oi.product_id
			WHERE o.customer_id = ?)
		  AND p.id NOT IN (
			SELECT oi.product_id FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.customer_id = ?)
		ORDER BY p.rating DESC, p.review_count DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &products, query, customerID, customerID, limit); err != nil {
		return nil, fmt.Errorf("personalized for %s: %w", customerID, err)
	}
	return products, nil
}
