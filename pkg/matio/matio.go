// Package matio loads MATLAB array files. It targets the v7.3 format,
// which stores arrays in an HDF5 container; earlier formats use a bespoke
// binary layout with no pure-Go reader and are reported as errors.
package matio

import (
	"os"

	"github.com/pkg/errors"
	"github.com/scigolib/hdf5"
	"gonum.org/v1/gonum/mat"

	"dicomstack/pkg/h5io"
)

var (
	// ErrFileNotFound is returned when the .mat path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrKeyNotFound is returned when the requested variable is absent
	// from the file.
	ErrKeyNotFound = errors.New("key not found")
)

// Load reads the named variable from a MATLAB v7.3 file as a matrix.
// A 1D variable of n elements loads as an n-by-1 matrix.
//
// MATLAB stores arrays column-major, so an m-by-n matrix sits in the HDF5
// container as its n-by-m transpose; Load transposes it back.
func Load(path, key string) (*mat.Dense, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s (v7.3 .mat files only)", path)
	}
	defer f.Close()

	ds, err := f.OpenDataset(key)
	if err != nil {
		return nil, errors.Wrapf(ErrKeyNotFound, "%s: variable %q", path, key)
	}

	dims := ds.Dims()
	start := make([]uint64, len(dims))
	raw, err := ds.ReadSlice(start, dims)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: reading variable %q", path, key)
	}

	data, err := h5io.AsFloats(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: variable %q", path, key)
	}

	switch len(dims) {
	case 1:
		return mat.NewDense(int(dims[0]), 1, data), nil
	case 2:
		// Stored as cols-by-rows; transpose back to MATLAB's view.
		rows, cols := int(dims[1]), int(dims[0])
		m := mat.NewDense(rows, cols, nil)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				m.Set(r, c, data[c*rows+r])
			}
		}
		return m, nil
	default:
		return nil, errors.Errorf("%s: variable %q has %d dimensions, want 1 or 2",
			path, key, len(dims))
	}
}
