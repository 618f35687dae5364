// Package cache binds a text dataset path to a lazily-parsed Table. The
// first query triggers parsing; every later query reuses the stored
// result. A malformed dataset is treated as a deployment bug: Get panics
// with the stored error message rather than returning it, matching the
// repository's contract that the cache is built once at startup from a
// trusted source.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/grailbio/base/log"

	"github.com/shiplookup/hydrocache/approxord"
	"github.com/shiplookup/hydrocache/column"
	"github.com/shiplookup/hydrocache/table"
)

// IoError reports a failure reading the source file. Line is 0 when the
// failure happened before any line was read (e.g. the file could not be
// opened).
type IoError struct {
	Line  int
	Cause error
}

func (e *IoError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("cache: io error: %v", e.Cause)
	}
	return fmt.Sprintf("cache: io error at line %d: %v", e.Line, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// ParseError reports a token on Line that could not be parsed as a
// 64-bit float.
type ParseError struct {
	Line  int
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cache: parse error at line %d: %v", e.Line, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// InconsistentDatasetError reports a row whose token count disagrees
// with the column count fixed by the dataset's first non-empty line.
type InconsistentDatasetError struct {
	Line int
	Got  int
	Want int
}

func (e *InconsistentDatasetError) Error() string {
	return fmt.Sprintf("cache: inconsistent dataset at line %d: got %d tokens, want %d", e.Line, e.Got, e.Want)
}

// Opt configures a Cache.
type Opt func(*options)

type options struct {
	cmp approxord.Comparator
}

// WithPrecision enables truncated-digit comparison (approxord.Precision)
// uniformly across every column's analysis and queries.
func WithPrecision(digits uint) Opt {
	return func(o *options) { o.cmp = approxord.Precision{Digits: digits} }
}

// Cache binds a dataset path to a Table that is parsed at most once.
type Cache struct {
	path string
	opts options

	once  sync.Once
	table *table.Table
	err   error
}

// New creates a Cache bound to path. Parsing does not happen until the
// first Get.
func New(path string, opts ...Opt) *Cache {
	o := options{cmp: approxord.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{path: path, opts: o}
}

// Get answers a query against the dataset, parsing it on first use. A
// prior parse failure causes Get to panic with the stored error's
// message, per spec.md §4.4 and §7: a malformed dataset is unrecoverable
// at runtime.
func (c *Cache) Get(query []*float64) ([][]float64, bool) {
	c.once.Do(func() {
		t, err := c.load()
		if err != nil {
			log.Error.Printf("cache: %s: %v", c.path, err)
		}
		c.table, c.err = t, err
	})
	if c.err != nil {
		panic(c.err.Error())
	}

	rows, ok, err := c.table.Get(query)
	if err != nil {
		panic(err.Error())
	}
	return rows, ok
}

func (c *Cache) load() (*table.Table, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, &IoError{Cause: err}
	}
	defer f.Close() // nolint: errcheck

	var buffers [][]float64
	width := -1
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)

		if width == -1 {
			width = len(tokens)
			buffers = make([][]float64, width)
		} else if len(tokens) != width {
			return nil, &InconsistentDatasetError{Line: lineNo, Got: len(tokens), Want: width}
		}

		for i, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Cause: err}
			}
			buffers[i] = append(buffers[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &IoError{Line: lineNo, Cause: err}
	}

	columns := make([]*column.Column, len(buffers))
	for i, buf := range buffers {
		col, err := column.New(buf, column.WithComparator(c.opts.cmp))
		if err != nil {
			return nil, errors.Wrapf(err, "cache: analyzing column %d", i)
		}
		columns[i] = col
	}

	t, err := table.New(columns)
	if err != nil {
		return nil, errors.Wrap(err, "cache: building table")
	}
	log.Debug.Printf("cache: %s: loaded %d columns, %d rows", c.path, t.NumColumns(), t.NumRows())
	return t, nil
}
