// Package dicomio decodes single-frame DICOM files into slice records.
// Byte-level parsing is owned by github.com/suyashkumar/dicom; this package
// maps parsed datasets onto the module's slice model: a tag table keyed by
// DICOM keyword, the patient-space placement fields, and the pixel plane.
package dicomio

import (
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/mat"

	"dicomstack/internal/models"
)

// ErrDecodeFailure is returned when a source file cannot be decoded into a
// slice record. The wrapped message carries the offending path.
var ErrDecodeFailure = errors.New("decode failure")

// Decoder decodes DICOM files into slice records.
type Decoder struct{}

// NewDecoder returns a decoder for single-frame DICOM files.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads and decodes one DICOM file. The file is opened, fully read,
// and closed within this call.
func (d *Decoder) Decode(path string) (*models.Slice, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrDecodeFailure, "%s: %v", path, err)
	}

	s := &models.Slice{
		Path: path,
		Tags: datasetTags(&ds),
	}

	if v, ok := s.Tags["SeriesInstanceUID"]; ok {
		s.SeriesID = v.String()
	}
	if v, ok := s.Tags["ImageOrientationPatient"]; ok && v.Kind == models.TagNumbers && len(v.Nums) == 6 {
		var o [6]float64
		copy(o[:], v.Nums)
		s.Orientation = &o
	}
	if v, ok := s.Tags["ImagePositionPatient"]; ok && v.Kind == models.TagNumbers && len(v.Nums) == 3 {
		var p [3]float64
		copy(p[:], v.Nums)
		s.Position = &p
	}

	pixels, err := extractPixels(&ds, path)
	if err != nil {
		return nil, err
	}
	s.Pixels = pixels

	return s, nil
}

// datasetTags converts every parseable element into the tag table, keyed by
// the dictionary keyword ("SeriesInstanceUID") rather than the display name
// ("Series Instance UID"); the keyword form is what callers query by.
// Elements without a keyword (private tags) and sequence or bulk-data
// elements are skipped; the table holds queryable scalar metadata only.
func datasetTags(ds *dicom.Dataset) map[string]models.TagValue {
	tags := make(map[string]models.TagValue, len(ds.Elements))
	for _, el := range ds.Elements {
		if el.Tag == tag.PixelData {
			continue
		}
		info, err := tag.Find(el.Tag)
		if err != nil || info.Keyword == "" {
			continue
		}
		if v, ok := elementValue(el); ok {
			tags[info.Keyword] = v
		}
	}
	return tags
}

// elementValue maps one parsed element onto the tag union. DICOM decimal
// and integer strings (DS/IS) arrive as strings and are promoted to numeric
// values when every component parses.
func elementValue(el *dicom.Element) (models.TagValue, bool) {
	switch el.Value.ValueType() {
	case dicom.Strings:
		strs := el.Value.GetValue().([]string)
		return stringsValue(strs), true
	case dicom.Ints:
		ints := el.Value.GetValue().([]int)
		if len(ints) == 1 {
			return models.NumberTag(float64(ints[0])), true
		}
		nums := make([]float64, len(ints))
		for i, n := range ints {
			nums[i] = float64(n)
		}
		return models.NumbersTag(nums...), true
	case dicom.Floats:
		floats := el.Value.GetValue().([]float64)
		if len(floats) == 1 {
			return models.NumberTag(floats[0]), true
		}
		return models.NumbersTag(floats...), true
	default:
		return models.TagValue{}, false
	}
}

func stringsValue(strs []string) models.TagValue {
	if len(strs) == 0 {
		return models.StringTag("")
	}

	nums := make([]float64, 0, len(strs))
	for _, s := range strs {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			if len(strs) == 1 {
				return models.StringTag(strs[0])
			}
			return models.StringTag(strings.Join(strs, "\\"))
		}
		nums = append(nums, n)
	}

	if len(nums) == 1 {
		return models.NumberTag(nums[0])
	}
	return models.NumbersTag(nums...)
}

// extractPixels pulls the first native frame out of the dataset and converts
// it to a matrix of grayscale intensities in the 0-1 range.
func extractPixels(ds *dicom.Dataset, path string) (*mat.Dense, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, errors.Wrapf(ErrDecodeFailure, "%s: no pixel data", path)
	}

	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return nil, errors.Wrapf(ErrDecodeFailure, "%s: pixel data holds no frames", path)
	}
	if len(info.Frames) > 1 {
		return nil, errors.Wrapf(ErrDecodeFailure, "%s: multi-frame files are not supported", path)
	}

	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, errors.Wrapf(ErrDecodeFailure, "%s: %v", path, err)
	}
	return imageToMatrix(img), nil
}

// imageToMatrix converts a decoded frame image to float64 intensities,
// scaling 16-bit grayscale to the 0-1 range.
func imageToMatrix(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()

	m := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			m.Set(y, x, float64(r)/65535.0)
		}
	}
	return m
}
