package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexustechhub/nexus-api/internal/database/dbtest"
	"github.com/nexustechhub/nexus-api/internal/models"
)

func ids(products []models.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestListProductsFilters(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	all, total, err := repo.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, all, 5)
	require.NotNil(t, all[0].Brand)

	samsung, total, err := repo.ListProducts(ctx, ProductFilter{BrandID: 2, InStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []int64{4}, ids(samsung))

	found, _, err := repo.ListProducts(ctx, ProductFilter{Search: "BATTERY"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 4}, ids(found))
}

func TestGetProductNotFound(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	_, err := repo.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListCategoriesTree(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)

	tree, err := NewRepository(db).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "iPhone Parts", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "iPhone 13 Series", tree[0].Children[0].Name)
	assert.Empty(t, tree[1].Children)
}

func TestSimilarToProductScoring(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)

	got, err := NewRepository(db).SimilarToProduct(context.Background(), 1, 4)
	require.NoError(t, err)

	// 3 scores 3+2+1 (same category, brand, price within 50), 2 scores 3+2,
	// 4 scores 0, 5 is out of stock.
	assert.Equal(t, []int64{3, 2, 4}, ids(got))
	require.NotNil(t, got[0].Score)
	assert.Equal(t, 6, *got[0].Score)
}

func TestBoughtTogether(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)
	now := time.Now().UTC()
	for orderID, products := range map[int][]int{1: {1, 2}, 2: {1, 2, 4}, 3: {1, 3}} {
		_, err := db.Exec(`INSERT INTO orders (id, customer_id, status, currency, subtotal, shipping, vat, total, tax_source, created_at)
			VALUES (?, 'c1', 'paid', 'aed', 0, 0, 0, 0, 'fallback', ?)`, orderID, now)
		require.NoError(t, err)
		for _, pid := range products {
			_, err := db.Exec(`INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at) VALUES (?, ?, 1, 1, ?)`, orderID, pid, now)
			require.NoError(t, err)
		}
	}
	repo := NewRepository(db)

	got, err := repo.BoughtTogether(context.Background(), 1, 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, 2, *got[0].Score)

	// c1 bought 1-4 from both categories; only the out-of-stock 5 is left.
	personal, err := repo.ForCustomer(context.Background(), "c1", 8)
	require.NoError(t, err)
	assert.Empty(t, personal)
}
