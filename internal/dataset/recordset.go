package dataset

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"superstore-dashboard/internal/models"
)

// Dimension names a categorical column that can be filtered or grouped on.
type Dimension string

const (
	Region   Dimension = "region"
	Segment  Dimension = "segment"
	Category Dimension = "category"
	ShipMode Dimension = "ship_mode"
)

// Dimensions lists the indexed dimensions in display order.
var Dimensions = []Dimension{Region, Segment, Category, ShipMode}

// ErrUnknownDimension is returned for a dimension name outside Dimensions.
var ErrUnknownDimension = errors.New("unknown dimension")

func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
	return d, nil
}

func (d Dimension) Valid() bool {
	switch d {
	case Region, Segment, Category, ShipMode:
		return true
	}
	return false
}

// Label is the column header the dimension is read from.
func (d Dimension) Label() string {
	switch d {
	case Region:
		return colRegion
	case Segment:
		return colSegment
	case Category:
		return colCategory
	case ShipMode:
		return colShipMode
	}
	return string(d)
}

// Value returns the record's value for d, or "" for an invalid dimension.
func (d Dimension) Value(r *models.Record) string {
	switch d {
	case Region:
		return r.Region
	case Segment:
		return r.Segment
	case Category:
		return r.Category
	case ShipMode:
		return r.ShipMode
	}
	return ""
}

// RecordSet is the loaded dataset. It is never mutated after NewRecordSet
// returns, so it can be shared by any number of concurrent readers.
type RecordSet struct {
	records []models.Record
	all     *roaring.Bitmap
	index   map[Dimension]map[string]*roaring.Bitmap
}

// NewRecordSet copies records, derives their calendar fields and builds the
// per-dimension posting lists. This is the only place derived fields are set.
func NewRecordSet(records []models.Record) *RecordSet {
	rs := &RecordSet{
		records: make([]models.Record, len(records)),
		all:     roaring.New(),
		index:   make(map[Dimension]map[string]*roaring.Bitmap, len(Dimensions)),
	}
	for _, d := range Dimensions {
		rs.index[d] = make(map[string]*roaring.Bitmap)
	}

	for i := range records {
		rec := records[i]
		rec.Derive()
		rs.records[i] = rec

		pos := uint32(i)
		for _, d := range Dimensions {
			v := d.Value(&rec)
			bm, ok := rs.index[d][v]
			if !ok {
				bm = roaring.New()
				rs.index[d][v] = bm
			}
			bm.Add(pos)
		}
	}
	if len(records) > 0 {
		rs.all.AddRange(0, uint64(len(records)))
	}
	for _, values := range rs.index {
		for _, bm := range values {
			bm.RunOptimize()
		}
	}
	return rs
}

func (rs *RecordSet) Len() int { return len(rs.records) }

// At returns a copy of the record at position i.
func (rs *RecordSet) At(i int) models.Record { return rs.records[i] }

// Ref returns a read-only pointer to the record at position i.
func (rs *RecordSet) Ref(i int) *models.Record { return &rs.records[i] }

// All returns a fresh bitmap of every position.
func (rs *RecordSet) All() *roaring.Bitmap { return rs.all.Clone() }

// Posting returns the positions whose dimension d equals value exactly. The
// returned bitmap is shared and must not be modified.
func (rs *RecordSet) Posting(d Dimension, value string) (*roaring.Bitmap, bool) {
	bm, ok := rs.index[d][value]
	return bm, ok
}

// Values returns the distinct values seen for d, unordered.
func (rs *RecordSet) Values(d Dimension) []string {
	values := make([]string, 0, len(rs.index[d]))
	for v := range rs.index[d] {
		values = append(values, v)
	}
	return values
}
