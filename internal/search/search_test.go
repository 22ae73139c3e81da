package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/catalog"
	"github.com/nexustechhub/nexus-api/internal/database/dbtest"
	"github.com/nexustechhub/nexus-api/internal/fallback"
	"github.com/nexustechhub/nexus-api/internal/models"
)

type fakeBackend struct {
	hits    []models.Product
	err     error
	indexed []models.Product
}

func (f *fakeBackend) Search(ctx context.Context, q string, limit int) ([]models.Product, error) {
	return f.hits, f.err
}

func (f *fakeBackend) Index(ctx context.Context, products []models.Product) error {
	f.indexed = products
	return f.err
}

func TestSearchUsesBackend(t *testing.T) {
	db := dbtest.Open(t)
	backend := &fakeBackend{hits: []models.Product{{ID: 42, Name: "From index"}}}
	svc := NewService(backend, catalog.NewRepository(db), zap.NewNop())

	res := svc.Search(context.Background(), " screen ", 5)
	assert.Equal(t, "screen", res.Query)
	assert.Equal(t, "algolia", res.Engine)
	assert.Equal(t, fallback.Live, res.Source)
	require.Len(t, res.Products, 1)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)
	svc := NewService(&fakeBackend{err: errors.New("algolia down")}, catalog.NewRepository(db), zap.NewNop())

	res := svc.Search(context.Background(), "galaxy", 5)
	assert.Equal(t, "database", res.Engine)
	assert.Len(t, res.Products, 2)
}

func TestSearchFallsBackToCatalog(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Close())
	svc := NewService(nil, catalog.NewRepository(db), zap.NewNop())

	res := svc.Search(context.Background(), "battery", 50)
	assert.Equal(t, "fallback", res.Engine)
	assert.Equal(t, fallback.Canned, res.Source)
	assert.NotEmpty(t, res.Products)
}

func TestReindex(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedCatalog(t, db)
	backend := &fakeBackend{}
	svc := NewService(backend, catalog.NewRepository(db), zap.NewNop())

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, backend.indexed, 5)

	n, err = NewService(nil, catalog.NewRepository(db), zap.NewNop()).Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
