// Package geometry computes slice placement from DICOM direction-cosine
// metadata: the slice normal, the scalar position of a slice along that
// normal, inter-slice distances, and the acquisition plane.
//
// The position along the normal, not the raw ImagePositionPatient value or
// any single component of it, is the correct sort key for slices in a
// series: slice planes are not guaranteed to be axis-aligned in patient
// space, so a raw-coordinate sort can silently produce a spatially wrong
// volume.
//
// All functions are pure and deterministic. Failures on missing metadata
// propagate to the caller; nothing here defaults to a guessed plane or
// normal.
package geometry

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"dicomstack/internal/models"
)

var (
	// ErrMissingOrientation is returned when a slice carries no usable
	// ImageOrientationPatient metadata.
	ErrMissingOrientation = errors.New("missing or malformed orientation")

	// ErrMissingScanOptions is returned when a slice carries no ScanOptions
	// metadata. Callers must treat the absence as "unknown", not "false".
	ErrMissingScanOptions = errors.New("missing scan options")
)

// Plane identifies an anatomical acquisition plane.
type Plane int

const (
	PlaneAxial Plane = iota
	PlaneSagittal
	PlaneCoronal
	PlaneOblique
)

// String returns the lowercase plane name.
func (p Plane) String() string {
	switch p {
	case PlaneAxial:
		return "axial"
	case PlaneSagittal:
		return "sagittal"
	case PlaneCoronal:
		return "coronal"
	default:
		return "oblique"
	}
}

// orientation validates and returns the slice's direction cosines.
// All six components must be finite; malformed metadata fails, it never
// crashes downstream classification.
func orientation(s *models.Slice) (*[6]float64, error) {
	if s.Orientation == nil {
		return nil, errors.Wrapf(ErrMissingOrientation, "slice %s", s.Path)
	}
	for i, c := range s.Orientation {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.Wrapf(ErrMissingOrientation,
				"slice %s: non-finite cosine at component %d", s.Path, i)
		}
	}
	return s.Orientation, nil
}

// Normal returns the slice's normal vector: the cross product of the row
// direction cosines (components 0-2) and the column direction cosines
// (components 3-5).
func Normal(s *models.Slice) (r3.Vec, error) {
	cos, err := orientation(s)
	if err != nil {
		return r3.Vec{}, err
	}
	row := r3.Vec{X: cos[0], Y: cos[1], Z: cos[2]}
	col := r3.Vec{X: cos[3], Y: cos[4], Z: cos[5]}
	return r3.Cross(row, col), nil
}

// PositionAlongNormal returns the slice's signed scalar coordinate on the
// acquisition's normal axis: the dot product of ImagePositionPatient with
// the slice normal.
func PositionAlongNormal(s *models.Slice) (float64, error) {
	n, err := Normal(s)
	if err != nil {
		return 0, err
	}
	if s.Position == nil {
		return 0, errors.Wrapf(ErrMissingOrientation, "slice %s: no position", s.Path)
	}
	p := r3.Vec{X: s.Position[0], Y: s.Position[1], Z: s.Position[2]}
	return r3.Dot(n, p), nil
}

// DistanceBetween returns the absolute distance between two slices along
// their normal axis. Used for spacing validation, not for sorting.
func DistanceBetween(a, b *models.Slice) (float64, error) {
	pa, err := PositionAlongNormal(a)
	if err != nil {
		return 0, err
	}
	pb, err := PositionAlongNormal(b)
	if err != nil {
		return 0, err
	}
	return math.Abs(pb - pa), nil
}

// ClassifyPlane determines the anatomical acquisition plane from the
// direction cosines. Each cosine is rounded to the nearest integer first:
// axis-aligned acquisitions have cosines of exactly 0 or ±1 and rounding
// cleans floating-point noise. The cross product of the rounded vectors
// then points along the dominant axis.
//
// When rounding leaves more than one nonzero component, the checks resolve
// the tie in a fixed order: x before y before z.
func ClassifyPlane(s *models.Slice) (Plane, error) {
	cos, err := orientation(s)
	if err != nil {
		return PlaneOblique, err
	}
	row := r3.Vec{X: math.Round(cos[0]), Y: math.Round(cos[1]), Z: math.Round(cos[2])}
	col := r3.Vec{X: math.Round(cos[3]), Y: math.Round(cos[4]), Z: math.Round(cos[5])}
	n := r3.Cross(row, col)

	switch {
	case math.Abs(n.X) == 1:
		return PlaneSagittal, nil
	case math.Abs(n.Y) == 1:
		return PlaneCoronal, nil
	case math.Abs(n.Z) == 1:
		return PlaneAxial, nil
	default:
		return PlaneOblique, nil
	}
}

// IsAxial reports whether the slice was acquired in the axial plane.
func IsAxial(s *models.Slice) (bool, error) {
	p, err := ClassifyPlane(s)
	return p == PlaneAxial, err
}

// IsSagittal reports whether the slice was acquired in the sagittal plane.
func IsSagittal(s *models.Slice) (bool, error) {
	p, err := ClassifyPlane(s)
	return p == PlaneSagittal, err
}

// IsCoronal reports whether the slice was acquired in the coronal plane.
func IsCoronal(s *models.Slice) (bool, error) {
	p, err := ClassifyPlane(s)
	return p == PlaneCoronal, err
}

// IsFatSuppressed reports whether the slice's ScanOptions contains the
// fat-suppression token "FS".
func IsFatSuppressed(s *models.Slice) (bool, error) {
	opts, ok := s.Tags["ScanOptions"]
	if !ok || opts.IsMissing() {
		return false, errors.Wrapf(ErrMissingScanOptions, "slice %s", s.Path)
	}
	return strings.Contains(opts.String(), "FS"), nil
}
