// Package builder produces the text dataset that package cache consumes:
// for every (heel, trim, draught) grid point it evaluates a caller-supplied
// volume function and writes one "heel trim draught volume" line. It is
// the dataset producer spec.md keeps external to the lookup engine.
package builder

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Grid is the set of step values swept on each axis. Order within each
// slice is preserved; duplicate or unsorted values are the caller's
// responsibility, same as the axes of any Column the resulting dataset
// feeds into.
type Grid struct {
	Heel    []float64
	Trim    []float64
	Draught []float64
}

// Default returns an empty Grid, mirroring the repository's
// FloatingPositionCacheConf default (empty step lists).
func Default() Grid {
	return Grid{}
}

// VolumeFunc computes the submerged volume for one grid point. Real
// geometry evaluation (transforming a waterline model and intersecting it
// against a hull) stays outside this package; VolumeFunc is the seam spec.md
// reserves for that collaborator.
type VolumeFunc func(heel, trim, draught float64) float64

// Run sweeps grid in draught-major, heel-mid, trim-minor order, writing one
// line per point to w. It honors ctx cancellation between draught steps: if
// ctx is done, Run stops and returns ctx.Err() without flushing its buffer,
// so w holds at most a prefix of the rows produced so far (possibly none).
func Run(ctx context.Context, w io.Writer, grid Grid, vol VolumeFunc) error {
	bw := bufio.NewWriter(w)

	for _, draught := range grid.Draught {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, heel := range grid.Heel {
			for _, trim := range grid.Trim {
				volume := vol(heel, trim, draught)
				if _, err := bw.WriteString(formatRow(heel, trim, draught, volume)); err != nil {
					return errors.Wrap(err, "builder: writing row")
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "builder: flushing output")
	}
	return nil
}

func formatRow(heel, trim, draught, volume float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return f(heel) + " " + f(trim) + " " + f(draught) + " " + f(volume) + "\n"
}
