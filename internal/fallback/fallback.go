// Package fallback implements the storefront's degrade-to-canned-data rule:
// a read that errors or comes back empty is answered from static data, and
// the caller is told which one it got.
package fallback

import (
	"context"

	"go.uber.org/zap"
)

// Source tells the client whether data came from the live store.
type Source string

const (
	Live   Source = "live"
	Canned Source = "fallback"
)

// Slice runs fetch and returns its items when it succeeds with at least one
// row. Otherwise it logs the reason under op and returns canned().
func Slice[T any](ctx context.Context, log *zap.Logger, op string, fetch func(context.Context) ([]T, error), canned func() []T) ([]T, Source) {
	items, err := fetch(ctx)
	switch {
	case err != nil:
		log.Warn("live source failed, serving fallback data", zap.String("op", op), zap.Error(err))
	case len(items) == 0:
		log.Info("live source returned no rows, serving fallback data", zap.String("op", op))
	default:
		return items, Live
	}
	return canned(), Canned
}
