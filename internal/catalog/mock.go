package catalog

import (
	"sort"
	"strings"

	"github.com/nexustechhub/nexus-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

// mockProducts is the canned catalog served when the database is unavailable.
var mockProducts = []models.Product{
	{ID: 1, Name: "iPhone 13 Pro OLED Screen", Slug: "iphone-13-pro-oled-screen", Price: 129.99, CategoryID: ptr[int64](1), CategoryName: ptr("iPhone Parts"), ImageURL: ptr("/images/products/iphone-screen.jpg"), Rating: 4.5, ReviewCount: 28, StockQuantity: 15},
	{ID: 2, Name: "Samsung Galaxy S22 Battery", Slug: "samsung-galaxy-s22-battery", Price: 39.99, CategoryID: ptr[int64](2), CategoryName: ptr("Samsung Parts"), ImageURL: ptr("/images/products/samsung-battery.jpg"), Rating: 4.2, ReviewCount: 17, StockQuantity: 23, DiscountPercentage: 15},
	{ID: 3, Name: "Professional Repair Tool Kit", Slug: "professional-repair-tool-kit", Price: 89.99, CategoryID: ptr[int64](5), CategoryName: ptr("Repair Tools"), ImageURL: ptr("/images/products/repair-tools.jpg"), Rating: 4.8, ReviewCount: 42, StockQuantity: 8},
	{ID: 4, Name: `iPad Pro 12.9" LCD Assembly`, Slug: "ipad-pro-12-9-lcd-assembly", Price: 199.99, CategoryID: ptr[int64](3), CategoryName: ptr("iPad Parts"), ImageURL: ptr("/images/products/ipad-screen.jpg"), Rating: 4.6, ReviewCount: 13, StockQuantity: 5, DiscountPercentage: 10},
	{ID: 5, Name: "iPhone 12 Battery Replacement Kit", Slug: "iphone-12-battery-replacement-kit", Price: 49.99, CategoryID: ptr[int64](1), CategoryName: ptr("iPhone Parts"), ImageURL: ptr("/images/products/iphone-battery.jpg"), Rating: 4.7, ReviewCount: 32, StockQuantity: 25, DiscountPercentage: 10},
	{ID: 6, Name: "Samsung Galaxy S21 Screen Assembly", Slug: "samsung-galaxy-s21-screen-assembly", Price: 119.99, CategoryID: ptr[int64](2), CategoryName: ptr("Samsung Parts"), ImageURL: ptr("/images/products/samsung-screen.jpg"), Rating: 4.5, ReviewCount: 18, StockQuantity: 12},
	{ID: 7, Name: "iPad Mini 6 Digitizer", Slug: "ipad-mini-6-digitizer", Price: 89.99, CategoryID: ptr[int64](3), CategoryName: ptr("iPad Parts"), ImageURL: ptr("/images/products/ipad-digitizer.jpg"), Rating: 4.3, ReviewCount: 14, StockQuantity: 8, DiscountPercentage: 5},
	{ID: 8, Name: "Precision Screwdriver Set", Slug: "precision-screwdriver-set", Price: 29.99, CategoryID: ptr[int64](5), CategoryName: ptr("Repair Tools"), ImageURL: ptr("/images/products/screwdriver-set.jpg"), Rating: 4.9, ReviewCount: 47, StockQuantity: 35},
	{ID: 9, Name: "iPhone X Battery", Slug: "iphone-x-battery", Price: 34.99, CategoryID: ptr[int64](1), CategoryName: ptr("iPhone Parts"), ImageURL: ptr("/images/products/iphone-x-battery.jpg"), Rating: 4.6, ReviewCount: 38, StockQuantity: 42, DiscountPercentage: 5},
	{ID: 10, Name: "Samsung Galaxy Note 20 Battery", Slug: "samsung-galaxy-note-20-battery", Price: 44.99, CategoryID: ptr[int64](2), CategoryName: ptr("Samsung Parts"), ImageURL: ptr("/images/products/samsung-note-battery.jpg"), Rating: 4.4, ReviewCount: 22, StockQuantity: 18},
}

// mockCombinations lists canned "bought together" ids per product.
var mockCombinations = map[int64][]int64{
	1: {5, 3, 8},
	2: {6, 3, 8},
	3: {1, 6, 8},
	4: {7, 3, 8},
	5: {1, 3, 8},
	6: {2, 3, 8},
	7: {4, 3, 8},
	8: {1, 6, 3},
}

// MockProducts returns a copy of the canned catalog.
func MockProducts() []models.Product {
	out := make([]models.Product, len(mockProducts))
	copy(out, mockProducts)
	return out
}

func mockByID(id int64) (models.Product, bool) {
	for _, p := range mockProducts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func sameCategory(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// mockSimilar excludes productID, puts its category first and then sorts by
// rating. A category filter that leaves nothing is ignored.
func mockSimilar(productID, categoryID int64, n int) []models.Product {
	items := MockProducts()

	if productID > 0 {
		current, found := mockByID(productID)
		filtered := items[:0]
		for _, p := range items {
			if p.ID != productID {
				filtered = append(filtered, p)
			}
		}
		items = filtered
		sort.SliceStable(items, func(i, j int) bool {
			if found {
				si, sj := sameCategory(items[i].CategoryID, current.CategoryID), sameCategory(items[j].CategoryID, current.CategoryID)
				if si != sj {
					return si
				}
			}
			return items[i].Rating > items[j].Rating
		})
	}

	if categoryID > 0 {
		var inCategory []models.Product
		for _, p := range items {
			if p.CategoryID != nil && *p.CategoryID == categoryID {
				inCategory = append(inCategory, p)
			}
		}
		if len(inCategory) > 0 {
			items = inCategory
		}
	}
	return head(items, n)
}

// mockBoughtTogether serves the combination table, or the top rated mock
// products for ids it does not know.
func mockBoughtTogether(productID int64, n int) []models.Product {
	var out []models.Product
	for _, id := range mockCombinations[productID] {
		if p, ok := mockByID(id); ok {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = topRated(productID)
	}
	return head(out, n)
}

// mockPersonalized serves the top rated mock products.
func mockPersonalized(n int) []models.Product {
	return head(topRated(0), n)
}

// mockSearch filters the canned catalog by name.
func mockSearch(q string, n int) []models.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []models.Product
	for _, p := range mockProducts {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return head(out, n)
}

func topRated(exclude int64) []models.Product {
	var out []models.Product
	for _, p := range mockProducts {
		if p.ID != exclude {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ReviewCount > out[j].ReviewCount
	})
	return out
}

func head(items []models.Product, n int) []models.Product {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
