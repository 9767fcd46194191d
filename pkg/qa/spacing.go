// Package qa validates the geometry of a slice collection before it is
// trusted for stacking. Spacing irregularities (a missing slice, a repeated
// acquisition) shift anatomy along the normal axis without failing any
// decode step, so they are surfaced here as an explicit report.
package qa

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"dicomstack/internal/models"
	"dicomstack/pkg/geometry"
)

// Report summarizes the gaps between consecutive slices along the normal
// axis, in ascending position order.
type Report struct {
	// Gaps holds the |distance| between each consecutive pair
	Gaps []float64

	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Uniform is true when the gap spread stays within the relative
	// tolerance the report was built with
	Uniform bool
}

// Spacing computes the spacing report for a slice collection. The relative
// tolerance bounds the accepted spread: gaps are uniform when
// (max-min) <= tol*mean. At least two slices with placement metadata are
// required.
func Spacing(slices []*models.Slice, tol float64) (*Report, error) {
	if len(slices) < 2 {
		return nil, errors.Errorf("spacing needs at least 2 slices, got %d", len(slices))
	}

	positions := make([]float64, len(slices))
	for i, s := range slices {
		pos, err := geometry.PositionAlongNormal(s)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
	}
	sort.Float64s(positions)

	gaps := make([]float64, len(positions)-1)
	for i := range gaps {
		gaps[i] = positions[i+1] - positions[i]
	}

	r := &Report{
		Gaps: gaps,
		Mean: stat.Mean(gaps, nil),
		Min:  gaps[0],
		Max:  gaps[0],
	}
	for _, g := range gaps {
		if g < r.Min {
			r.Min = g
		}
		if g > r.Max {
			r.Max = g
		}
	}
	if len(gaps) > 1 {
		r.StdDev = stat.StdDev(gaps, nil)
	}

	spread := r.Max - r.Min
	r.Uniform = spread <= tol*r.Mean

	return r, nil
}
