// Command hydrocache-lookup is a demonstration front end for package
// cache: it either queries an existing dataset or builds one from a
// step grid using a constant-volume stand-in (real hull geometry is out
// of scope; see builder.VolumeFunc).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/shiplookup/hydrocache/builder"
	"github.com/shiplookup/hydrocache/cache"
)

var (
	dataset   = flag.String("dataset", "", "path to the dataset file to query or build")
	precision = flag.Int("precision", -1, "if >= 0, compare scalars truncated to this many fractional digits")
	query     = flag.String("query", "", `comma-separated query, e.g. "0.0,,1.0" (empty slot = unconstrained)`)

	build = flag.Bool("build", false, "build a dataset instead of querying one")
	grid  = flag.String("grid", "", `grid spec "heel:lo:hi:step,trim:lo:hi:step,draught:lo:hi:step"`)
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	flag.Parse()

	if *dataset == "" {
		log.Fatalf("hydrocache-lookup: -dataset is required")
	}

	if *build {
		runBuild()
		return
	}
	runQuery()
}

func runBuild() {
	g, err := parseGrid(*grid)
	if err != nil {
		log.Fatalf("hydrocache-lookup: %v", err)
	}

	out, err := os.Create(*dataset)
	if err != nil {
		log.Fatalf("hydrocache-lookup: creating %s: %v", *dataset, err)
	}
	defer out.Close() // nolint: errcheck

	constantVolume := func(heel, trim, draught float64) float64 { return 0 }
	if err := builder.Run(context.Background(), out, g, constantVolume); err != nil {
		log.Fatalf("hydrocache-lookup: building %s: %v", *dataset, err)
	}
	log.Error.Printf("hydrocache-lookup: wrote %s", *dataset)
}

func runQuery() {
	var opts []cache.Opt
	if *precision >= 0 {
		opts = append(opts, cache.WithPrecision(uint(*precision)))
	}
	c := cache.New(*dataset, opts...)

	q, err := parseQuery(*query)
	if err != nil {
		log.Fatalf("hydrocache-lookup: %v", err)
	}

	rows, ok := c.Get(q)
	if !ok {
		fmt.Println("query out of bounds")
		return
	}
	for _, row := range rows {
		fmt.Println(formatRow(row))
	}
}

func parseQuery(s string) ([]*float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	q := make([]*float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("query slot %d: %v", i, err)
		}
		q[i] = &v
	}
	return q, nil
}

func parseGrid(s string) (builder.Grid, error) {
	g := builder.Default()
	if s == "" {
		return g, fmt.Errorf("-grid is required with -build")
	}
	for _, axis := range strings.Split(s, ",") {
		fields := strings.Split(axis, ":")
		if len(fields) != 4 {
			return g, fmt.Errorf("malformed axis %q, want name:lo:hi:step", axis)
		}
		name := fields[0]
		lo, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return g, fmt.Errorf("axis %q: %v", name, err)
		}
		hi, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return g, fmt.Errorf("axis %q: %v", name, err)
		}
		step, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return g, fmt.Errorf("axis %q: %v", name, err)
		}
		if step <= 0 {
			return g, fmt.Errorf("axis %q: step must be positive", name)
		}

		var steps []float64
		for v := lo; v <= hi; v += step {
			steps = append(steps, v)
		}

		switch name {
		case "heel":
			g.Heel = steps
		case "trim":
			g.Trim = steps
		case "draught":
			g.Draught = steps
		default:
			return g, fmt.Errorf("unknown axis %q, want heel, trim, or draught", name)
		}
	}
	return g, nil
}

func formatRow(row []float64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
