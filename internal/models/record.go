package models

import "time"

// Record is one sales transaction line. The derived calendar fields and
// DeliveryDays are filled in once by the dataset loader and never recomputed.
type Record struct {
	OrderID      string    `json:"order_id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	OrderDate    time.Time `json:"order_date"`
	ShipDate     time.Time `json:"ship_date"`
	Region       string    `json:"region"`
	Segment      string    `json:"segment"`
	Category     string    `json:"category"`
	SubCategory  string    `json:"sub_category"`
	ShipMode     string    `json:"ship_mode"`
	Salesperson  string    `json:"salesperson"`
	Sales        float64   `json:"sales"`
	Profit       float64   `json:"profit"`
	Quantity     int       `json:"quantity"`
	Discount     float64   `json:"discount"`
	ShippingCost float64   `json:"shipping_cost"`

	OrderMonth   string `json:"order_month"`
	OrderYear    int    `json:"order_year"`
	OrderQuarter int    `json:"order_quarter"`
	DeliveryDays int    `json:"delivery_days"`
}

// Derive fills the calendar fields and delivery latency from the two dates.
// Dates are truncated to the day before any arithmetic.
func (r *Record) Derive() {
	r.OrderDate = Day(r.OrderDate)
	r.ShipDate = Day(r.ShipDate)
	r.OrderMonth = r.OrderDate.Format("2006-01")
	r.OrderYear = r.OrderDate.Year()
	r.OrderQuarter = (int(r.OrderDate.Month())-1)/3 + 1
	r.DeliveryDays = int(r.ShipDate.Sub(r.OrderDate).Hours() / 24)
}

// Day returns t at UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
