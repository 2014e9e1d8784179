package models

import "time"

type KPIResult struct {
	TotalSales        float64 `json:"total_sales"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
	TotalCustomers    int     `json:"total_customers"`
	TotalOrders       int     `json:"total_orders"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	AvgProfitPerOrder float64 `json:"avg_profit_per_order"`
	TotalProducts     int     `json:"total_products"`
}

type MonthlyPoint struct {
	Month  string  `json:"month"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

type DimensionTotal struct {
	Value  string  `json:"value"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

// DiscountBucket reports the mean profit of the records whose discount falls
// in the bucket. Mean is nil when the bucket is empty.
type DiscountBucket struct {
	Label string   `json:"label"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean_profit"`
}

type RankedEntry struct {
	Rank  int     `json:"rank"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

type CategoricalSummary struct {
	Column       string `json:"column"`
	UniqueValues int    `json:"unique_values"`
}

type DateSpan struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
