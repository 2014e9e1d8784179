package engine

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// DefaultTopN is the length of a ranking when the caller does not ask for one.
const DefaultTopN = 10

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownKind   = errors.New("unknown aggregation kind")
	ErrUnknownSort   = errors.New("unknown sort order")
)

// Entity is a key that records can be ranked by.
type Entity string

const (
	EntityProduct     Entity = "product"
	EntityCustomer    Entity = "customer"
	EntitySubCategory Entity = "sub_category"
	EntitySalesperson Entity = "salesperson"
)

func ParseEntity(s string) (Entity, error) {
	switch e := Entity(s); e {
	case EntityProduct, EntityCustomer, EntitySubCategory, EntitySalesperson:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

func (e Entity) key(r *models.Record) string {
	switch e {
	case EntityProduct:
		return r.ProductName
	case EntityCustomer:
		return r.CustomerName
	case EntitySubCategory:
		return r.SubCategory
	case EntitySalesperson:
		return r.Salesperson
	}
	return ""
}

// Metric is a summable measure.
type Metric string

const (
	MetricSales  Metric = "sales"
	MetricProfit Metric = "profit"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricSales, MetricProfit:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

func (m Metric) of(r *models.Record) float64 {
	if m == MetricProfit {
		return r.Profit
	}
	return r.Sales
}

// SortOrder selects how dimension groups are ordered.
type SortOrder string

const (
	SortNone         SortOrder = ""
	SortBySalesAsc   SortOrder = "sales_asc"
	SortBySalesDesc  SortOrder = "sales_desc"
	SortByProfitDesc SortOrder = "profit_desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortNone, SortBySalesAsc, SortBySalesDesc, SortByProfitDesc:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// MonthlyTrend sums sales and profit per order month, oldest first.
func MonthlyTrend(v View) []models.MonthlyPoint {
	idx := make(map[string]int)
	points := make([]models.MonthlyPoint, 0)

	v.Each(func(r *models.Record) bool {
		i, ok := idx[r.OrderMonth]
		if !ok {
			i = len(points)
			idx[r.OrderMonth] = i
			points = append(points, models.MonthlyPoint{Month: r.OrderMonth})
		}
		points[i].Sales += r.Sales
		points[i].Profit += r.Profit
		return true
	})

	// YYYY-MM sorts chronologically as a string.
	slices.SortStableFunc(points, func(a, b models.MonthlyPoint) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return points
}

// ByDimension sums sales and profit per value of d. Groups appear in order
// of first occurrence unless order asks for a stable metric sort.
func ByDimension(v View, d dataset.Dimension, order SortOrder) ([]models.DimensionTotal, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownDimension, string(d))
	}

	idx := make(map[string]int)
	groups := make([]models.DimensionTotal, 0)

	v.Each(func(r *models.Record) bool {
		key := d.Value(r)
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, models.DimensionTotal{Value: key})
		}
		groups[i].Sales += r.Sales
		groups[i].Profit += r.Profit
		return true
	})

	switch order {
	case SortNone:
	case SortBySalesAsc:
		slices.SortStableFunc(groups, func(a, b models.DimensionTotal) int {
			return cmp.Compare(a.Sales, b.Sales)
		})
	case SortBySalesDesc:
		slices.SortStableFunc(groups, func(a, b models.DimensionTotal) int {
			return cmp.Compare(b.Sales, a.Sales)
		})
	case SortByProfitDesc:
		slices.SortStableFunc(groups, func(a, b models.DimensionTotal) int {
			return cmp.Compare(b.Profit, a.Profit)
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, string(order))
	}
	return groups, nil
}

// DiscountLabels are the fixed bucket labels, lowest first.
var DiscountLabels = [5]string{"0-20%", "20-40%", "40-60%", "60-80%", "80-100%"}

// discountBin maps a discount in [0,1] to a bucket. Bins are right-closed,
// so a value on a boundary lands in the lower bin; 0 belongs to the first.
// Out-of-range values are clamped.
func discountBin(d float64) int {
	const eps = 1e-9
	bin := int(math.Ceil(d*float64(len(DiscountLabels))-eps)) - 1
	return min(max(bin, 0), len(DiscountLabels)-1)
}

// DiscountProfit reports the mean profit per discount bucket. All five
// buckets are always returned, in label order; empty buckets have a nil mean.
func DiscountProfit(v View) []models.DiscountBucket {
	var sums [len(DiscountLabels)]float64
	var counts [len(DiscountLabels)]int

	v.Each(func(r *models.Record) bool {
		b := discountBin(r.Discount)
		sums[b] += r.Profit
		counts[b]++
		return true
	})

	buckets := make([]models.DiscountBucket, len(DiscountLabels))
	for i, label := range DiscountLabels {
		buckets[i] = models.DiscountBucket{Label: label, Count: counts[i]}
		if counts[i] > 0 {
			mean := sums[i] / float64(counts[i])
			buckets[i].Mean = &mean
		}
	}
	return buckets
}

// TopN ranks entity keys by the summed metric, highest first, and keeps the
// first n. Equal totals keep the order in which their keys first appear in v.
func TopN(v View, e Entity, m Metric, n int) ([]models.RankedEntry, error) {
	if _, err := ParseEntity(string(e)); err != nil {
		return nil, err
	}
	if _, err := ParseMetric(string(m)); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultTopN
	}

	idx := make(map[string]int)
	entries := make([]models.RankedEntry, 0)

	v.Each(func(r *models.Record) bool {
		key := e.key(r)
		i, ok := idx[key]
		if !ok {
			i = len(entries)
			idx[key] = i
			entries = append(entries, models.RankedEntry{Key: key})
		}
		entries[i].Value += m.of(r)
		return true
	})

	slices.SortStableFunc(entries, func(a, b models.RankedEntry) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
