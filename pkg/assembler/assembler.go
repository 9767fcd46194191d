// Package assembler collects decoded image slices, filters them by metadata
// tags, orders them along the acquisition's normal axis, and stacks the
// ordered pixel planes into a 3D volume.
//
// An Assembler is an immutable snapshot: PopulateTags and FilterBy return
// new Assembler values that reference the same backing slice storage.
// Assemblers are therefore safe to share across goroutines for reads;
// independent filtered views never interfere.
package assembler

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dicomstack/internal/models"
	"dicomstack/pkg/dicomio"
	"dicomstack/pkg/geometry"
)

var (
	// ErrEmptyCollection is returned when a load matches zero files or a
	// stacking request holds zero slices. Callers must never silently
	// receive an empty volume.
	ErrEmptyCollection = errors.New("empty slice collection")

	// ErrUnknownTag is returned by FilterBy for a tag that was never
	// populated into the index.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrShapeMismatch is returned by ToVolume when held slices disagree on
	// pixel dimensions. The volume is never partially built.
	ErrShapeMismatch = errors.New("slice shape mismatch")
)

// Decoder turns one source file into a slice record. The DICOM decoder in
// pkg/dicomio is the production implementation.
type Decoder interface {
	Decode(path string) (*models.Slice, error)
}

// Params configures a Load call.
type Params struct {
	// Dir is the directory to scan for slice files
	Dir string

	// Extension is matched case-insensitively as a substring of each file
	// name; "dcm" matches "IM001.DCM". Defaults to "dcm".
	Extension string

	// SingleRandom loads exactly one file chosen uniformly at random from
	// the matched set, for quick sampling
	SingleRandom bool

	// Rand supplies the sampling source; nil uses the shared global source
	Rand *rand.Rand

	// Decoder decodes matched files; nil uses the DICOM decoder
	Decoder Decoder

	// Logger receives warnings; nil discards them
	Logger *zap.Logger
}

// Assembler holds an ordered collection of slice records plus a lazily
// populated tag index. The zero value is not usable; construct with Load or
// NewFromSlices.
type Assembler struct {
	// backing storage, shared between derived views
	slices []*models.Slice

	// view holds indices into slices in the collection's current order
	view []int

	// tags maps a populated tag name to its per-backing-slice values
	tags map[string][]models.TagValue

	logger *zap.Logger
}

// Tags indexed eagerly on load; series identity and placement are needed by
// nearly every downstream step.
var defaultTags = []string{"SeriesInstanceUID", "ImagePositionPatient"}

// Load scans params.Dir for matching files and decodes each into a slice
// record. A directory with zero matching files fails with
// ErrEmptyCollection. Per-file decode failures are collected into a
// *BatchReport error covering the whole load; no partial collection is ever
// returned.
func Load(params *Params) (*Assembler, error) {
	ext := params.Extension
	if ext == "" {
		ext = "dcm"
	}

	entries, err := os.ReadDir(params.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", params.Dir)
	}

	want := strings.ToLower(ext)
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Name()), want) {
			paths = append(paths, filepath.Join(params.Dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrEmptyCollection,
			"no files matching extension %q in %s", ext, params.Dir)
	}

	if params.SingleRandom {
		pick := rand.IntN
		if params.Rand != nil {
			pick = params.Rand.IntN
		}
		paths = []string{paths[pick(len(paths))]}
	}

	decoder := params.Decoder
	if decoder == nil {
		decoder = dicomio.NewDecoder()
	}

	report := &BatchReport{}
	slices := make([]*models.Slice, 0, len(paths))
	for _, path := range paths {
		s, err := decoder.Decode(path)
		if err != nil {
			report.add(path, err)
			continue
		}
		slices = append(slices, s)
	}
	if len(report.Failures) > 0 {
		return nil, report
	}

	return NewFromSlices(slices, params.Logger), nil
}

// NewFromSlices builds an assembler over already-decoded slices. Discovery
// order is the order given. The series and placement tags are indexed
// immediately, as Load does.
func NewFromSlices(slices []*models.Slice, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}

	view := make([]int, len(slices))
	for i := range view {
		view[i] = i
	}

	a := &Assembler{
		slices: slices,
		view:   view,
		tags:   map[string][]models.TagValue{},
		logger: logger,
	}
	return a.PopulateTags(defaultTags...)
}

// Len returns the number of slices in the current view.
func (a *Assembler) Len() int { return len(a.view) }

// Slices returns the held slice records in the collection's current order.
func (a *Assembler) Slices() []*models.Slice {
	out := make([]*models.Slice, len(a.view))
	for i, idx := range a.view {
		out[i] = a.slices[idx]
	}
	return out
}

// PopulateTags returns a view whose tag index additionally covers the named
// tags, pulled from each slice's raw metadata. A missing tag on a slice is
// logged and recorded as a null entry; it never aborts the batch.
func (a *Assembler) PopulateTags(names ...string) *Assembler {
	tags := make(map[string][]models.TagValue, len(a.tags)+len(names))
	for name, col := range a.tags {
		tags[name] = col
	}

	for _, name := range names {
		if _, done := tags[name]; done {
			continue
		}
		col := make([]models.TagValue, len(a.slices))
		for i, s := range a.slices {
			v, ok := s.Tags[name]
			if !ok {
				a.logger.Warn("tag not found on slice, recording null entry",
					zap.String("tag", name),
					zap.String("path", s.Path))
				v = models.MissingTag()
			}
			col[i] = v
		}
		tags[name] = col
	}

	return &Assembler{slices: a.slices, view: a.view, tags: tags, logger: a.logger}
}

// FilterBy returns a view narrowed to slices whose tag exactly equals value,
// preserving the relative order of survivors. The tag must have been
// populated first; otherwise FilterBy fails with ErrUnknownTag.
func (a *Assembler) FilterBy(name string, value models.TagValue) (*Assembler, error) {
	col, ok := a.tags[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTag, "tag %q was never populated", name)
	}

	var view []int
	for _, idx := range a.view {
		if col[idx].Equal(value) {
			view = append(view, idx)
		}
	}

	return &Assembler{slices: a.slices, view: view, tags: a.tags, logger: a.logger}, nil
}

// OrderedByNormal returns the held slices sorted ascending by their scalar
// position along the slice normal. The sort is stable, so slices with equal
// positions keep their discovery order; extraction order from a filesystem
// is otherwise not deterministic across platforms.
func (a *Assembler) OrderedByNormal() ([]*models.Slice, error) {
	type keyed struct {
		idx int
		pos float64
	}

	keys := make([]keyed, len(a.view))
	for i, idx := range a.view {
		pos, err := geometry.PositionAlongNormal(a.slices[idx])
		if err != nil {
			return nil, err
		}
		keys[i] = keyed{idx: idx, pos: pos}
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].pos < keys[j].pos })

	out := make([]*models.Slice, len(keys))
	for i, k := range keys {
		out[i] = a.slices[k.idx]
	}
	return out, nil
}

// ToVolume orders the held slices along the normal axis and stacks their
// pixel planes into a volume. Stacking a heterogeneous set is a soft error:
// a missing or non-uniform series identifier is logged and the stack
// proceeds, since pre-filtering to one series is the caller's job. Slices
// that disagree on pixel dimensions fail with ErrShapeMismatch before any
// voxel is copied. A single-slice collection skips sorting.
func (a *Assembler) ToVolume() (*models.Volume, error) {
	if a.Len() == 0 {
		return nil, errors.Wrap(ErrEmptyCollection, "nothing to stack")
	}

	ordered := a.Slices()
	if a.Len() > 1 {
		a.warnIfMixedSeries()

		var err error
		ordered, err = a.OrderedByNormal()
		if err != nil {
			return nil, err
		}
	}

	for i, s := range ordered {
		if s.Pixels == nil {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"slice %d (%s) has no pixel data", i, s.Path)
		}
	}

	rows, cols := ordered[0].Pixels.Dims()
	for i, s := range ordered {
		r, c := s.Pixels.Dims()
		if r != rows || c != cols {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"slice %d (%s) is %dx%d, expected %dx%d", i, s.Path, r, c, rows, cols)
		}
	}

	depth := len(ordered)
	data := make([]float64, rows*cols*depth)
	for z, s := range ordered {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				data[z*rows*cols+r*cols+c] = s.Pixels.At(r, c)
			}
		}
	}

	return models.NewVolume(rows, cols, depth, data), nil
}

func (a *Assembler) warnIfMixedSeries() {
	seen := map[string]bool{}
	missing := false
	for _, s := range a.Slices() {
		if s.SeriesID == "" {
			missing = true
			continue
		}
		seen[s.SeriesID] = true
	}

	if missing {
		a.logger.Warn("series identifier missing on some slices, cannot verify single-series stack")
	}
	if len(seen) > 1 {
		a.logger.Warn("multiple series held, stack may mix acquisitions; filter to one series first",
			zap.Int("series", len(seen)))
	}
}
