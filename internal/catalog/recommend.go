package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/fallback"
	"github.com/nexustechhub/nexus-api/internal/models"
)

// Default result sizes per recommendation kind.
const (
	DefaultSimilarLimit      = 4
	DefaultBoughtTogether    = 3
	DefaultPersonalizedLimit = 8
	MaxLimit                 = 24
)

// ClampLimit applies the default for n <= 0 and caps it at MaxLimit.
func ClampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Recommender answers recommendation requests from the database, degrading
// to the canned catalog when the query fails or finds nothing. Results are
// never empty.
type Recommender struct {
	repo *Repository
	log  *zap.Logger
}

// NewRecommender returns a Recommender over repo.
func NewRecommender(repo *Repository, log *zap.Logger) *Recommender {
	return &Recommender{repo: repo, log: log}
}

// Similar returns products similar to productID, or the top products of
// categoryID when no product is given.
func (r *Recommender) Similar(ctx context.Context, productID, categoryID int64, n int) ([]models.Product, fallback.Source) {
	n = ClampLimit(n, DefaultSimilarLimit)
	fetch := func(ctx context.Context) ([]models.Product, error) {
		if productID > 0 {
			return r.repo.SimilarToProduct(ctx, productID, n)
		}
		return r.repo.TopInCategory(ctx, categoryID, n)
	}
	return fallback.Slice(ctx, r.log, "recommendations.similar", fetch, func() []models.Product {
		return mockSimilar(productID, categoryID, n)
	})
}

// FrequentlyBoughtTogether returns products that share orders with productID.
func (r *Recommender) FrequentlyBoughtTogether(ctx context.Context, productID int64, n int) ([]models.Product, fallback.Source) {
	n = ClampLimit(n, DefaultBoughtTogether)
	fetch := func(ctx context.Context) ([]models.Product, error) {
		return r.repo.BoughtTogether(ctx, productID, n)
	}
	return fallback.Slice(ctx, r.log, "recommendations.bought_together", fetch, func() []models.Product {
		return mockBoughtTogether(productID, n)
	})
}

// Personalized returns recommendations for customerID ("" for anonymous).
func (r *Recommender) Personalized(ctx context.Context, customerID string, n int) ([]models.Product, fallback.Source) {
	n = ClampLimit(n, DefaultPersonalizedLimit)
	fetch := func(ctx context.Context) ([]models.Product, error) {
		return r.repo.ForCustomer(ctx, customerID, n)
	}
	return fallback.Slice(ctx, r.log, "recommendations.personalized", fetch, func() []models.Product {
		return mockPersonalized(n)
	})
}

// MockSearch exposes the canned name filter to the search fallback chain.
func MockSearch(q string, n int) []models.Product {
	return mockSearch(q, n)
}
