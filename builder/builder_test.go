package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiplookup/hydrocache/cache"
)

func sumVolume(heel, trim, draught float64) float64 {
	return heel + trim + draught
}

func TestRunWritesGridInOrder(t *testing.T) {
	grid := Grid{
		Heel:    []float64{0, 10},
		Trim:    []float64{0, 5},
		Draught: []float64{1, 2},
	}

	var buf bytes.Buffer
	err := Run(context.Background(), &buf, grid, sumVolume)
	assert.NoError(t, err)

	want := "0 0 1 1\n0 5 1 6\n10 0 1 11\n10 5 1 16\n" +
		"0 0 2 2\n0 5 2 7\n10 0 2 12\n10 5 2 17\n"
	assert.Equal(t, want, buf.String())
}

func TestRunHonorsCancellation(t *testing.T) {
	grid := Grid{
		Heel:    []float64{0},
		Trim:    []float64{0},
		Draught: []float64{1, 2, 3},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Run(ctx, &buf, grid, sumVolume)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRunFeedsCache is a round-trip test: the dataset Run produces is read
// back by cache.New, and exact-grid queries recover the rows Run wrote.
func TestRunFeedsCache(t *testing.T) {
	grid := Grid{
		Heel:    []float64{0, 1, 2},
		Trim:    []float64{0, 1},
		Draught: []float64{0, 1},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "built.txt")
	out, err := os.Create(path)
	assert.NoError(t, err)

	err = Run(context.Background(), out, grid, sumVolume)
	assert.NoError(t, err)
	assert.NoError(t, out.Close())

	c := cache.New(path)
	f := func(v float64) *float64 { return &v }

	rows, ok := c.Get([]*float64{f(1), f(1), f(1)})
	assert.True(t, ok)
	assert.Equal(t, [][]float64{{1, 1, 1, 3}}, rows)
}
