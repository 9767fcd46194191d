package assembler

import (
	"fmt"
	"strings"
)

// FileFailure records one file that could not be decoded during a bulk
// operation.
type FileFailure struct {
	Path string
	Err  error
}

// BatchReport aggregates per-file failures from a bulk operation such as
// Load. The whole operation fails with the report; no null records are
// admitted into the collection.
type BatchReport struct {
	Failures []FileFailure
}

func (r *BatchReport) add(path string, err error) {
	r.Failures = append(r.Failures, FileFailure{Path: path, Err: err})
}

// Error summarizes every failure with its path.
func (r *BatchReport) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) failed to decode:", len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Unwrap exposes the individual failures so errors.Is can match their kinds.
func (r *BatchReport) Unwrap() []error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f.Err
	}
	return errs
}
