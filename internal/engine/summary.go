package engine

import (
	"math"
	"slices"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// Bounds returns the earliest and latest order date in v. ok is false for an
// empty view.
func Bounds(v View) (span models.DateSpan, ok bool) {
	v.Each(func(r *models.Record) bool {
		if !ok || r.OrderDate.Before(span.From) {
			span.From = r.OrderDate
		}
		if !ok || r.OrderDate.After(span.To) {
			span.To = r.OrderDate
		}
		ok = true
		return true
	})
	return span, ok
}

// Options lists the distinct values of d in v, sorted.
func Options(v View, d dataset.Dimension) ([]string, error) {
	if !d.Valid() {
		return nil, dataset.ErrUnknownDimension
	}
	seen := make(map[string]struct{})
	values := make([]string, 0)
	v.Each(func(r *models.Record) bool {
		val := d.Value(r)
		if _, ok := seen[val]; !ok {
			seen[val] = struct{}{}
			values = append(values, val)
		}
		return true
	})
	slices.Sort(values)
	return values, nil
}

type numericColumn struct {
	name string
	get  func(r *models.Record) float64
}

var numericColumns = []numericColumn{
	{"Sales", func(r *models.Record) float64 { return r.Sales }},
	{"Profit", func(r *models.Record) float64 { return r.Profit }},
	{"Quantity", func(r *models.Record) float64 { return float64(r.Quantity) }},
	{"Discount", func(r *models.Record) float64 { return r.Discount }},
	{"Shipping Cost", func(r *models.Record) float64 { return r.ShippingCost }},
}

// DescribeNumeric summarises the numeric columns: count, mean, sample
// standard deviation, min, quartiles and max, rounded to two decimals.
// Quartiles interpolate linearly between closest ranks.
func DescribeNumeric(v View) []models.NumericSummary {
	out := make([]models.NumericSummary, 0, len(numericColumns))
	for _, col := range numericColumns {
		values := make([]float64, 0, v.Len())
		v.Each(func(r *models.Record) bool {
			values = append(values, col.get(r))
			return true
		})
		out = append(out, describe(col.name, values))
	}
	return out
}

func describe(name string, values []float64) models.NumericSummary {
	s := models.NumericSummary{Column: name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	var sum float64
	for _, x := range values {
		sum += x
	}
	mean := sum / float64(len(values))

	var std float64
	if len(values) > 1 {
		var sq float64
		for _, x := range values {
			sq += (x - mean) * (x - mean)
		}
		std = math.Sqrt(sq / float64(len(values)-1))
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Mean = round2(mean)
	s.Std = round2(std)
	s.Min = round2(sorted[0])
	s.P25 = round2(quantile(sorted, 0.25))
	s.Median = round2(quantile(sorted, 0.5))
	s.P75 = round2(quantile(sorted, 0.75))
	s.Max = round2(sorted[len(sorted)-1])
	return s
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// DescribeCategorical counts distinct values per filterable dimension.
func DescribeCategorical(v View) []models.CategoricalSummary {
	out := make([]models.CategoricalSummary, 0, len(dataset.Dimensions))
	for _, d := range dataset.Dimensions {
		values, _ := Options(v, d)
		out = append(out, models.CategoricalSummary{
			Column:       d.Label(),
			UniqueValues: len(values),
		})
	}
	return out
}
