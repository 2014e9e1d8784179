package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

var ErrInvalidFilter = errors.New("invalid filter")

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains compares at day granularity.
func (dr DateRange) Contains(t time.Time) bool {
	d := models.Day(t)
	return !d.Before(dr.Start) && !d.After(dr.End)
}

// FilterSpec is an immutable set of constraints. A dimension without a
// value is unrestricted; there is no "All" sentinel.
type FilterSpec struct {
	dates  *DateRange
	equals map[dataset.Dimension]string
}

type FilterOption func(*FilterSpec) error

// NewFilterSpec builds a spec from options. When the same dimension is set
// twice the last value wins.
func NewFilterSpec(opts ...FilterOption) (FilterSpec, error) {
	spec := FilterSpec{equals: make(map[dataset.Dimension]string)}
	for _, opt := range opts {
		if err := opt(&spec); err != nil {
			return FilterSpec{}, err
		}
	}
	return spec, nil
}

// MustFilterSpec is NewFilterSpec for options known to be valid.
func MustFilterSpec(opts ...FilterOption) FilterSpec {
	spec, err := NewFilterSpec(opts...)
	if err != nil {
		panic(err)
	}
	return spec
}

func WithDateRange(start, end time.Time) FilterOption {
	return func(s *FilterSpec) error {
		dr := DateRange{Start: models.Day(start), End: models.Day(end)}
		if dr.End.Before(dr.Start) {
			return fmt.Errorf("%w: start %s after end %s", ErrInvalidFilter,
				dr.Start.Format(time.DateOnly), dr.End.Format(time.DateOnly))
		}
		s.dates = &dr
		return nil
	}
}

func WithEquals(d dataset.Dimension, value string) FilterOption {
	return func(s *FilterSpec) error {
		if !d.Valid() {
			return fmt.Errorf("%w: %q", dataset.ErrUnknownDimension, string(d))
		}
		if value == "" {
			return fmt.Errorf("%w: empty value for %s", ErrInvalidFilter, d)
		}
		s.equals[d] = value
		return nil
	}
}

func (s FilterSpec) DateRange() (DateRange, bool) {
	if s.dates == nil {
		return DateRange{}, false
	}
	return *s.dates, true
}

func (s FilterSpec) Equals(d dataset.Dimension) (string, bool) {
	v, ok := s.equals[d]
	return v, ok
}

// IsEmpty reports whether no constraint is active.
func (s FilterSpec) IsEmpty() bool {
	return s.dates == nil && len(s.equals) == 0
}

// Matches evaluates the spec against a single record.
func (s FilterSpec) Matches(r *models.Record) bool {
	if s.dates != nil && !s.dates.Contains(r.OrderDate) {
		return false
	}
	for d, want := range s.equals {
		if d.Value(r) != want {
			return false
		}
	}
	return true
}

func (s FilterSpec) String() string {
	if s.IsEmpty() {
		return "all"
	}
	var parts []string
	if s.dates != nil {
		parts = append(parts, fmt.Sprintf("date=%s..%s",
			s.dates.Start.Format(time.DateOnly), s.dates.End.Format(time.DateOnly)))
	}
	for _, d := range slices.Sorted(maps.Keys(s.equals)) {
		parts = append(parts, fmt.Sprintf("%s=%s", d, s.equals[d]))
	}
	return strings.Join(parts, " ")
}

// Filter returns the records of v that satisfy every active constraint of
// spec, in their original order. With no constraints the result is v itself.
func Filter(v View, spec FilterSpec) View {
	if v.set == nil || spec.IsEmpty() {
		return v
	}

	pos := v.pos.Clone()
	for _, d := range dataset.Dimensions {
		want, ok := spec.equals[d]
		if !ok {
			continue
		}
		posting, found := v.set.Posting(d, want)
		if !found {
			pos.Clear()
			break
		}
		pos.And(posting)
	}

	if spec.dates != nil && !pos.IsEmpty() {
		kept := roaring.New()
		it := pos.Iterator()
		for it.HasNext() {
			p := it.Next()
			if spec.dates.Contains(v.set.Ref(int(p)).OrderDate) {
				kept.Add(p)
			}
		}
		pos = kept
	}

	return View{set: v.set, pos: pos}
}
