package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// amount converts a money value for summing. Non-finite values count as 0;
// the loader rejects them, but records can also arrive through SetData.
func amount(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// ComputeKPIs reduces a view to the eight headline metrics. Any ratio whose
// denominator is zero is reported as 0; the result never holds NaN or Inf.
func ComputeKPIs(v View) models.KPIResult {
	sales := decimal.Zero
	profit := decimal.Zero
	customers := make(map[string]struct{})
	orders := make(map[string]struct{})
	products := make(map[string]struct{})

	v.Each(func(r *models.Record) bool {
		sales = sales.Add(amount(r.Sales))
		profit = profit.Add(amount(r.Profit))
		customers[r.CustomerID] = struct{}{}
		orders[r.OrderID] = struct{}{}
		products[r.ProductID] = struct{}{}
		return true
	})

	kpi := models.KPIResult{
		TotalSales:     sales.InexactFloat64(),
		TotalProfit:    profit.InexactFloat64(),
		TotalCustomers: len(customers),
		TotalOrders:    len(orders),
		TotalProducts:  len(products),
	}

	if !sales.IsZero() {
		kpi.ProfitMargin = profit.Div(sales).Mul(hundred).InexactFloat64()
	}
	if n := decimal.NewFromInt(int64(len(orders))); !n.IsZero() {
		kpi.AvgOrderValue = sales.Div(n).InexactFloat64()
		kpi.AvgProfitPerOrder = profit.Div(n).InexactFloat64()
	}
	return kpi
}
