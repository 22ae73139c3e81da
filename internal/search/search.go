// Package search answers product searches. Algolia is queried when it is
// configured; otherwise (or when it fails) the database is searched, and as
// a last resort the canned catalog.
package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	algolia "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/catalog"
	"github.com/nexustechhub/nexus-api/internal/fallback"
	"github.com/nexustechhub/nexus-api/internal/models"
)

// Backend is a remote search index.
type Backend interface {
	Search(ctx context.Context, q string, limit int) ([]models.Product, error)
	Index(ctx context.Context, products []models.Product) error
}

// Service runs the search fallback chain.
type Service struct {
	backend Backend // nil when Algolia is not configured
	repo    *catalog.Repository
	log     *zap.Logger
}

// NewService returns a Service. backend may be nil.
func NewService(backend Backend, repo *catalog.Repository, log *zap.Logger) *Service {
	return &Service{backend: backend, repo: repo, log: log}
}

// Result is a search answer with its origin.
type Result struct {
	Query    string           `json:"query"`
	Products []models.Product `json:"products"`
	Engine   string           `json:"engine"` // algolia, database or fallback
	Source   fallback.Source  `json:"source"`
}

// Search looks q up, trying the index, then the database, then the canned catalog.
func (s *Service) Search(ctx context.Context, q string, limit int) Result {
	q = strings.TrimSpace(q)
	limit = catalog.ClampLimit(limit, 12)

	if s.backend != nil {
		products, err := s.backend.Search(ctx, q, limit)
		if err == nil {
			return Result{Query: q, Products: nonNil(products), Engine: "algolia", Source: fallback.Live}
		}
		s.log.Warn("algolia search failed, using database", zap.String("q", q), zap.Error(err))
	}

	products, err := s.repo.SearchByName(ctx, q, limit)
	if err == nil {
		return Result{Query: q, Products: nonNil(products), Engine: "database", Source: fallback.Live}
	}
	s.log.Warn("database search failed, using fallback catalog", zap.String("q", q), zap.Error(err))

	return Result{Query: q, Products: nonNil(catalog.MockSearch(q, limit)), Engine: "fallback", Source: fallback.Canned}
}

// Reindex pushes every product to the index. It is a no-op without a backend.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.backend == nil {
		return 0, nil
	}
	products, err := s.repo.AllProducts(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.backend.Index(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

func nonNil(p []models.Product) []models.Product {
	if p == nil {
		return []models.Product{}
	}
	return p
}

// AlgoliaBackend is a Backend over one Algolia index.
type AlgoliaBackend struct {
	index *algolia.Index
}

// NewAlgoliaBackend opens the named index.
func NewAlgoliaBackend(appID, apiKey, indexName string) *AlgoliaBackend {
	return &AlgoliaBackend{index: algolia.NewClient(appID, apiKey).InitIndex(indexName)}
}

// record is a product as stored in the index.
type record struct {
	ObjectID string `json:"objectID"`
	models.Product
}

// Search implements Backend.
func (b *AlgoliaBackend) Search(ctx context.Context, q string, limit int) ([]models.Product, error) {
	res, err := b.index.Search(q, opt.HitsPerPage(limit), ctx)
	if err != nil {
		return nil, err
	}
	var hits []models.Product
	if err := res.UnmarshalHits(&hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// Index implements Backend.
func (b *AlgoliaBackend) Index(ctx context.Context, products []models.Product) error {
	records := make([]record, 0, len(products))
	for _, p := range products {
		records = append(records, record{ObjectID: strconv.FormatInt(p.ID, 10), Product: p})
	}
	res, err := b.index.SaveObjects(records, ctx)
	if err != nil {
		return err
	}
	return res.Wait()
}
