package models

import (
	"gonum.org/v1/gonum/mat"
)

// Slice represents a single decoded 2D image slice with its patient-space
// placement metadata.
type Slice struct {
	// Path is the source file this slice was decoded from
	Path string

	// Orientation holds the 6 direction cosines from ImageOrientationPatient:
	// two unit vectors (row, column) in patient space. Nil when the source
	// carried no orientation metadata.
	Orientation *[6]float64

	// Position is the patient-space coordinate of the slice's top-left
	// corner (ImagePositionPatient). Nil when absent.
	Position *[3]float64

	// SeriesID is the opaque grouping key for the acquisition series
	// (SeriesInstanceUID). Empty when absent.
	SeriesID string

	// Pixels is the decoded 2D pixel plane
	Pixels *mat.Dense

	// Tags is the full decoded metadata set, keyed by DICOM keyword
	Tags map[string]TagValue
}

// Volume represents an ordered 3D stack of 2D pixel planes.
// The voxel data is a 1D array in row-major order, plane by plane.
// A Volume is immutable once produced.
type Volume struct {
	data  []float64
	rows  int
	cols  int
	depth int
}

// NewVolume builds a volume over the given flat buffer. The volume owns the
// buffer after the call; len(data) must equal rows*cols*depth.
func NewVolume(rows, cols, depth int, data []float64) *Volume {
	return &Volume{data: data, rows: rows, cols: cols, depth: depth}
}

// Rows returns the number of pixel rows per plane.
func (v *Volume) Rows() int { return v.rows }

// Cols returns the number of pixel columns per plane.
func (v *Volume) Cols() int { return v.cols }

// Depth returns the number of stacked planes.
func (v *Volume) Depth() int { return v.depth }

// At returns the voxel value at (row, col) of plane z.
func (v *Volume) At(row, col, z int) float64 {
	return v.data[z*v.rows*v.cols+row*v.cols+col]
}

// Plane extracts plane z as a fresh matrix that does not alias the volume's
// storage.
func (v *Volume) Plane(z int) *mat.Dense {
	plane := mat.NewDense(v.rows, v.cols, nil)
	for r := 0; r < v.rows; r++ {
		for c := 0; c < v.cols; c++ {
			plane.Set(r, c, v.data[z*v.rows*v.cols+r*v.cols+c])
		}
	}
	return plane
}

// Data returns a copy of the raw voxel buffer in row-major order.
func (v *Volume) Data() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}
