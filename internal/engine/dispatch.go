package engine

import (
	"fmt"
	"math/rand/v2"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// Kind names one of the aggregations Aggregate can run.
type Kind string

const (
	KindMonthlyTrend   Kind = "monthly_trend"
	KindDimension      Kind = "dimension"
	KindDiscountProfit Kind = "discount_profit"
	KindTopN           Kind = "top_n"
	KindSample         Kind = "sample"
)

// Params carries the inputs a Kind needs; fields a Kind does not use are
// ignored.
type Params struct {
	Dimension dataset.Dimension
	Sort      SortOrder
	Entity    Entity
	Metric    Metric
	Limit     int
	Rand      *rand.Rand
}

// AggregationResult holds the output of exactly one Kind.
type AggregationResult struct {
	Kind      Kind                    `json:"kind"`
	Monthly   []models.MonthlyPoint   `json:"monthly,omitempty"`
	Groups    []models.DimensionTotal `json:"groups,omitempty"`
	Discounts []models.DiscountBucket `json:"discounts,omitempty"`
	Ranking   []models.RankedEntry    `json:"ranking,omitempty"`
	Sample    []models.Record         `json:"sample,omitempty"`
}

// Aggregate runs the aggregation named by kind over v.
func Aggregate(v View, kind Kind, p Params) (AggregationResult, error) {
	res := AggregationResult{Kind: kind}
	var err error

	switch kind {
	case KindMonthlyTrend:
		res.Monthly = MonthlyTrend(v)
	case KindDimension:
		res.Groups, err = ByDimension(v, p.Dimension, p.Sort)
	case KindDiscountProfit:
		res.Discounts = DiscountProfit(v)
	case KindTopN:
		res.Ranking, err = TopN(v, p.Entity, p.Metric, p.Limit)
	case KindSample:
		res.Sample = Sample(v, p.Limit, p.Rand)
	default:
		return AggregationResult{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	if err != nil {
		return AggregationResult{}, err
	}
	return res, nil
}
