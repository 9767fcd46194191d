package dicomio

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomstack/internal/models"
)

func mustNewElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, value)
	require.NoError(t, err)
	return el
}

// writeTestDicom writes a minimal single-frame MR file and returns its path.
func writeTestDicom(t *testing.T, dir string, rows, cols int, pixels []uint16) string {
	t.Helper()

	nativeFrame := frame.NewNativeFrame[uint16](16, rows, cols, rows*cols, 1)
	copy(nativeFrame.RawData, pixels)

	pixelData := dicom.PixelDataInfo{
		Frames: []*frame.Frame{{
			Encapsulated: false,
			NativeData:   nativeFrame,
		}},
	}

	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5.6.7"}),
		mustNewElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.SOPInstanceUID, []string{"1.2.3.4.5.6.7"}),
		mustNewElement(t, tag.Modality, []string{"MR"}),
		mustNewElement(t, tag.SeriesInstanceUID, []string{"1.2.3.4.5"}),
		mustNewElement(t, tag.ScanOptions, []string{"FS/SAT"}),
		mustNewElement(t, tag.SliceThickness, []string{"3.000000"}),
		mustNewElement(t, tag.ImagePositionPatient, []string{"-10.5", "22.0", "41.25"}),
		mustNewElement(t, tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		mustNewElement(t, tag.Rows, []int{rows}),
		mustNewElement(t, tag.Columns, []int{cols}),
		mustNewElement(t, tag.BitsAllocated, []int{16}),
		mustNewElement(t, tag.BitsStored, []int{16}),
		mustNewElement(t, tag.HighBit, []int{15}),
		mustNewElement(t, tag.PixelRepresentation, []int{0}),
		mustNewElement(t, tag.SamplesPerPixel, []int{1}),
		mustNewElement(t, tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(t, tag.PixelData, pixelData),
	}}

	path := filepath.Join(dir, "im001.dcm")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, dicom.Write(f, ds))

	return path
}

func TestDecodeRoundTrip(t *testing.T) {
	path := writeTestDicom(t, t.TempDir(), 2, 2, []uint16{0, 16384, 32768, 65535})

	s, err := NewDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.Path)
	assert.Equal(t, "1.2.3.4.5", s.SeriesID)

	require.NotNil(t, s.Orientation)
	assert.Equal(t, [6]float64{1, 0, 0, 0, 1, 0}, *s.Orientation)
	require.NotNil(t, s.Position)
	assert.Equal(t, [3]float64{-10.5, 22.0, 41.25}, *s.Position)

	assert.Equal(t, models.StringTag("MR"), s.Tags["Modality"])
	assert.Equal(t, models.StringTag("FS/SAT"), s.Tags["ScanOptions"])
	assert.Equal(t, models.NumberTag(3), s.Tags["SliceThickness"])

	// The table is keyed by dictionary keyword, the form every lookup in
	// this module uses; display names must not appear.
	assert.Contains(t, s.Tags, "SeriesInstanceUID")
	assert.Contains(t, s.Tags, "ImageOrientationPatient")
	assert.NotContains(t, s.Tags, "Series Instance UID")
	assert.NotContains(t, s.Tags, "Image Orientation (Patient)")

	rows, cols := s.Pixels.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 2, cols)
	assert.Equal(t, 0.0, s.Pixels.At(0, 0))
	assert.Equal(t, 1.0, s.Pixels.At(1, 1))
	assert.InDelta(t, 0.25, s.Pixels.At(0, 1), 1e-4)
	assert.InDelta(t, 0.5, s.Pixels.At(1, 0), 1e-4)
}

func TestDecodeUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.dcm")
	require.NoError(t, os.WriteFile(path, []byte("not a dicom file"), 0644))

	_, err := NewDecoder().Decode(path)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), path)
}

func TestStringsValue(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want models.TagValue
	}{
		{"text", []string{"MR"}, models.StringTag("MR")},
		{"decimal string", []string{"3.000000"}, models.NumberTag(3)},
		{"integer string", []string{"12"}, models.NumberTag(12)},
		{"uid stays textual", []string{"1.2.840.10008.1.2.1"}, models.StringTag("1.2.840.10008.1.2.1")},
		{"numeric sequence", []string{"1", "0", "0"}, models.NumbersTag(1, 0, 0)},
		{"mixed sequence", []string{"a", "1"}, models.StringTag("a\\1")},
		{"empty", nil, models.StringTag("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(stringsValue(tt.in)),
				"want %v, got %v", tt.want, stringsValue(tt.in))
		})
	}
}

func TestImageToMatrix(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 65535})

	m := imageToMatrix(img)
	rows, cols := m.Dims()
	require.Equal(t, 1, rows)
	require.Equal(t, 2, cols)
	assert.Equal(t, 0.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))
}
