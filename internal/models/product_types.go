package models

// Product is the model for the 'products' table, joined with its category
// and brand names.
type Product struct {
	ID                 int64   `json:"id" db:"id"`
	Name               string  `json:"name" db:"name"`
	Slug               string  `json:"slug" db:"slug"`
	Price              float64 `json:"price" db:"price"`
	DiscountPercentage float64 `json:"discountPercentage" db:"discount_percentage"`
	StockQuantity      int     `json:"stockQuantity" db:"stock_quantity"`

	CategoryID   *int64  `json:"categoryId,omitempty" db:"category_id"`
	CategoryName *string `json:"categoryName,omitempty" db:"category_name"`
	BrandID      *int64  `json:"brandId,omitempty" db:"brand_id"`
	Brand        *string `json:"brand,omitempty" db:"brand"`

	ImageURL    *string `json:"imageUrl,omitempty" db:"image_url"`
	Rating      float64 `json:"rating" db:"rating"`
	ReviewCount int     `json:"reviewCount" db:"review_count"`

	// Score is only set by recommendation queries (similarity or co-purchase count).
	Score *int `json:"score,omitempty" db:"score"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}
