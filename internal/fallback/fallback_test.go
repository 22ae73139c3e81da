package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func canned() []int { return []int{7, 8} }

func TestSliceLive(t *testing.T) {
	got, src := Slice(context.Background(), zap.NewNop(), "test", func(context.Context) ([]int, error) {
		return []int{1}, nil
	}, canned)
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, Live, src)
}

func TestSliceFallsBack(t *testing.T) {
	cases := map[string]func(context.Context) ([]int, error){
		"error": func(context.Context) ([]int, error) { return nil, errors.New("db down") },
		"empty": func(context.Context) ([]int, error) { return []int{}, nil },
	}
	for name, fetch := range cases {
		t.Run(name, func(t *testing.T) {
			got, src := Slice(context.Background(), zap.NewNop(), "test", fetch, canned)
			assert.Equal(t, []int{7, 8}, got)
			assert.Equal(t, Canned, src)
		})
	}
}
