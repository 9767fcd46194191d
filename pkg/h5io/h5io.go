// Package h5io loads HDF5 containers into numeric buffers. Byte-level
// decoding is owned by github.com/scigolib/hdf5; this package maps a
// container's datasets onto float64 arrays keyed by dataset name.
package h5io

import (
	"os"

	"github.com/pkg/errors"
	"github.com/scigolib/hdf5"
)

// ErrFileNotFound is returned when the container path does not exist.
var ErrFileNotFound = errors.New("file not found")

// Array is one dataset's numeric buffer with its dimensions, in the
// dataset's stored (row-major) order.
type Array struct {
	Dims []int
	Data []float64
}

// Load opens the container at path and reads every dataset into a map keyed
// by dataset name. The file is opened, fully read, and closed within this
// call.
func Load(path string) (map[string]*Array, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	names, err := f.ListDatasets()
	if err != nil {
		return nil, errors.Wrapf(err, "listing datasets in %s", path)
	}

	out := make(map[string]*Array, len(names))
	for _, name := range names {
		arr, err := readDataset(f, name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: dataset %q", path, name)
		}
		out[name] = arr
	}
	return out, nil
}

// readDataset reads one dataset in full.
func readDataset(f *hdf5.File, name string) (*Array, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, err
	}

	dims := ds.Dims()
	start := make([]uint64, len(dims))
	raw, err := ds.ReadSlice(start, dims)
	if err != nil {
		return nil, err
	}

	data, err := AsFloats(raw)
	if err != nil {
		return nil, err
	}

	intDims := make([]int, len(dims))
	for i, d := range dims {
		intDims[i] = int(d)
	}
	return &Array{Dims: intDims, Data: data}, nil
}

// AsFloats widens a dataset's native buffer to float64. The HDF5 reader
// returns the stored element type; numeric element types are accepted,
// anything else is an error.
func AsFloats(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []float32:
		return widen(v), nil
	case []int8:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int64:
		return widen(v), nil
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	case []uint64:
		return widen(v), nil
	default:
		return nil, errors.Errorf("unsupported dataset element type %T", raw)
	}
}

func widen[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
