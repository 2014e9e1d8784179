// Package engine filters a loaded dataset and reduces the result to KPIs,
// grouped breakdowns and rankings. Every function here is a pure reduction
// over an immutable View except Sample, which draws from a caller-supplied
// random source.
package engine

import (
	"github.com/RoaringBitmap/roaring"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// View is an ordered subset of a RecordSet, held as a bitmap of record
// positions. Iteration always follows source order. Views are values: no
// operation modifies a View after it is returned.
type View struct {
	set *dataset.RecordSet
	pos *roaring.Bitmap
}

// NewView returns the view over every record of rs.
func NewView(rs *dataset.RecordSet) View {
	if rs == nil {
		return View{}
	}
	return View{set: rs, pos: rs.All()}
}

func (v View) Len() int {
	if v.pos == nil {
		return 0
	}
	return int(v.pos.GetCardinality())
}

// Empty reports whether nothing matched. An empty view is a normal result,
// not a failure.
func (v View) Empty() bool { return v.Len() == 0 }

// Each calls fn for every record in source order until fn returns false.
// The record must not be modified.
func (v View) Each(fn func(r *models.Record) bool) {
	if v.pos == nil {
		return
	}
	it := v.pos.Iterator()
	for it.HasNext() {
		if !fn(v.set.Ref(int(it.Next()))) {
			return
		}
	}
}

// Records copies the view's records in source order.
func (v View) Records() []models.Record {
	return v.Head(v.Len())
}

// Head copies at most n records from the start of the view.
func (v View) Head(n int) []models.Record {
	n = min(n, v.Len())
	out := make([]models.Record, 0, max(n, 0))
	if n <= 0 {
		return out
	}
	v.Each(func(r *models.Record) bool {
		out = append(out, *r)
		return len(out) < n
	})
	return out
}

// Positions returns the source positions of the view's records.
func (v View) Positions() []uint32 {
	if v.pos == nil {
		return []uint32{}
	}
	return v.pos.ToArray()
}

// Equal reports whether both views select the same records of the same set.
func (v View) Equal(o View) bool {
	if v.Len() != o.Len() {
		return false
	}
	if v.Len() == 0 {
		return true
	}
	return v.set == o.set && v.pos.Equals(o.pos)
}
