package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiplookup/hydrocache/table"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

const exampleDataset = `0.0 0.0 0.0 10.0
1.0 0.0 0.0 20.0
0.0 1.0 0.0 11.0
0.0 0.0 1.0 10.1
1.0 1.0 0.0 21.0
1.0 1.0 1.0 21.1
0.0 1.0 1.0 11.1
1.0 0.0 1.0 20.1
`

func writeDataset(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.txt")
	assert.NoError(t, writeFile(path, contents))
	return path
}

func f(v float64) *float64 { return &v }

func TestGetLoadsAndQueries(t *testing.T) {
	path := writeDataset(t, exampleDataset)
	c := New(path)

	rows, ok := c.Get([]*float64{f(0.0), f(1.0), f(1.0)})
	assert.True(t, ok)
	assert.Equal(t, [][]float64{{0.0, 1.0, 1.0, 11.1}}, rows)
}

func TestGetIgnoresBlankLines(t *testing.T) {
	path := writeDataset(t, "0.0 0.0 0.0 10.0\n\n   \n1.0 0.0 0.0 20.0\n")
	c := New(path)

	rows, ok := c.Get(nil)
	assert.True(t, ok)
	assert.Len(t, rows, 1)
	assert.Equal(t, 15.0, rows[0][3])
}

func TestGetOutOfBoundsQueryLength(t *testing.T) {
	path := writeDataset(t, exampleDataset)
	c := New(path)

	_, ok := c.Get([]*float64{f(0), f(0), f(0), f(0), f(0)})
	assert.False(t, ok)
}

func TestGetPanicsOnInconsistentDataset(t *testing.T) {
	path := writeDataset(t, "0.0 0.0\n1.0 0.0 0.0\n")
	c := New(path)

	assert.PanicsWithValue(t, (&InconsistentDatasetError{Line: 2, Got: 3, Want: 2}).Error(), func() {
		c.Get(nil)
	})
}

func TestGetPanicsOnParseError(t *testing.T) {
	path := writeDataset(t, "0.0 not-a-number\n")
	c := New(path)

	assert.Panics(t, func() {
		c.Get(nil)
	})
}

func TestGetPanicsOnMissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	assert.Panics(t, func() {
		c.Get(nil)
	})
}

func TestGetWithPrecision(t *testing.T) {
	path := writeDataset(t, "0.0049 1.0\n0.02 2.0\n")
	c := New(path, WithPrecision(2))

	rows, ok := c.Get([]*float64{f(0.0001)})
	assert.True(t, ok)
	assert.Equal(t, [][]float64{{0.0049, 1.0}}, rows)
}

// TestGetParsesExactlyOnce exercises the sync.Once-guarded load under
// concurrent contention: every goroutine must observe the identical
// parsed Table, proving the file was read and analyzed exactly once
// rather than once per racing caller.
func TestGetParsesExactlyOnce(t *testing.T) {
	path := writeDataset(t, exampleDataset)
	c := New(path)

	const n = 50
	tables := make([]*table.Table, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			rows, ok := c.Get([]*float64{f(0.0), f(1.0), f(1.0)})
			assert.True(t, ok)
			assert.Equal(t, [][]float64{{0.0, 1.0, 1.0, 11.1}}, rows)
			tables[i] = c.table
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, tables[0], tables[i])
	}
}
