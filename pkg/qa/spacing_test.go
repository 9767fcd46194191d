package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomstack/internal/models"
)

func axialAt(z float64) *models.Slice {
	orient := [6]float64{1, 0, 0, 0, 1, 0}
	pos := [3]float64{0, 0, z}
	return &models.Slice{Path: "s.dcm", Orientation: &orient, Position: &pos}
}

func TestSpacingUniform(t *testing.T) {
	// Evenly spaced, given out of order.
	slices := []*models.Slice{axialAt(6), axialAt(0), axialAt(3), axialAt(9)}

	r, err := Spacing(slices, 0.01)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 3, 3}, r.Gaps)
	assert.Equal(t, 3.0, r.Mean)
	assert.Equal(t, 0.0, r.StdDev)
	assert.True(t, r.Uniform)
}

func TestSpacingDetectsMissingSlice(t *testing.T) {
	// A gap of 6 where the rest are 3 means one slice is missing.
	slices := []*models.Slice{axialAt(0), axialAt(3), axialAt(9), axialAt(12)}

	r, err := Spacing(slices, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 3.0, r.Min)
	assert.Equal(t, 6.0, r.Max)
	assert.False(t, r.Uniform)
}

func TestSpacingTwoSlices(t *testing.T) {
	r, err := Spacing([]*models.Slice{axialAt(0), axialAt(2.5)}, 0.01)
	require.NoError(t, err)

	assert.Equal(t, []float64{2.5}, r.Gaps)
	assert.Equal(t, 0.0, r.StdDev)
	assert.True(t, r.Uniform)
}

func TestSpacingTooFewSlices(t *testing.T) {
	_, err := Spacing([]*models.Slice{axialAt(0)}, 0.01)
	require.Error(t, err)
}

func TestSpacingMissingPlacement(t *testing.T) {
	_, err := Spacing([]*models.Slice{axialAt(0), {Path: "bare.dcm"}}, 0.01)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bare.dcm")
}
