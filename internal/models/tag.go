package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TagKind discriminates the variants of a TagValue.
type TagKind int

const (
	// TagMissing marks a tag that was requested but absent on a slice
	TagMissing TagKind = iota

	// TagString is a single textual value
	TagString

	// TagNumber is a single numeric value
	TagNumber

	// TagNumbers is a numeric sequence (multi-valued DICOM elements such as
	// ImageOrientationPatient)
	TagNumbers
)

// TagValue is the value of one metadata tag on one slice. It is a tagged
// union: exactly one of the payload fields is meaningful, selected by Kind.
type TagValue struct {
	Kind TagKind
	Str  string
	Num  float64
	Nums []float64
}

// MissingTag returns the null entry recorded for an absent tag.
func MissingTag() TagValue { return TagValue{Kind: TagMissing} }

// StringTag wraps a textual tag value.
func StringTag(s string) TagValue { return TagValue{Kind: TagString, Str: s} }

// NumberTag wraps a single numeric tag value.
func NumberTag(n float64) TagValue { return TagValue{Kind: TagNumber, Num: n} }

// NumbersTag wraps a numeric sequence tag value.
func NumbersTag(ns ...float64) TagValue {
	return TagValue{Kind: TagNumbers, Nums: ns}
}

// IsMissing reports whether the value is the null entry.
func (t TagValue) IsMissing() bool { return t.Kind == TagMissing }

// Equal reports exact equality between two tag values. Values of different
// kinds never compare equal; a numeric 3 does not match the string "3".
func (t TagValue) Equal(other TagValue) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TagMissing:
		return true
	case TagString:
		return t.Str == other.Str
	case TagNumber:
		return t.Num == other.Num
	case TagNumbers:
		if len(t.Nums) != len(other.Nums) {
			return false
		}
		for i := range t.Nums {
			if t.Nums[i] != other.Nums[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for logs and reports.
func (t TagValue) String() string {
	switch t.Kind {
	case TagString:
		return t.Str
	case TagNumber:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case TagNumbers:
		parts := make([]string, len(t.Nums))
		for i, n := range t.Nums {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return strings.Join(parts, "\\")
	default:
		return "<missing>"
	}
}

// GoString makes %#v output readable in test failures.
func (t TagValue) GoString() string {
	return fmt.Sprintf("models.TagValue{Kind: %d, %q}", t.Kind, t.String())
}
