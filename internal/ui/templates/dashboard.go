// Package templates renders the dashboard page shell. Panels are filled in
// afterwards by the /sse/dashboard stream.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
	allOption      = "All"
)

type PageData struct {
	Title string
	// Options holds the selector values per dimension, keyed by dimension name.
	Options map[string][]string
	Dates   *models.DateSpan
	TopN    int
}

// Dashboard renders the full page: sidebar filters bound to datastar signals,
// empty panel containers, and the chart script that redraws on signal change.
func Dashboard(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.Title == "" {
			data.Title = "Sales & Profitability Dashboard"
		}
		if data.TopN <= 0 {
			data.TopN = 10
		}

		signals, err := initialSignals(data)
		if err != nil {
			return err
		}

		p := &writer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(data.Title)
		p.raw(`</title>`)
		p.raw(`<script type="module" src="` + datastarScript + `"></script>`)
		p.raw(`<script src="` + chartScript + `"></script>`)
		p.raw(`<style>` + pageStyle + `</style></head>`)

		p.raw(`<body data-signals="`)
		p.text(signals)
		p.raw(`" data-init="@get('/sse/dashboard')">`)

		sidebar(p, data)

		p.raw(`<main class="content"><header><h1>`)
		p.text(data.Title)
		p.raw(`</h1><p class="subtitle">Sales performance and profitability across regions, segments and products</p></header>`)
		p.raw(`<div id="selection-notice"></div>`)

		p.raw(`<section><h2>Key Performance Indicators</h2><div id="kpi-cards" class="kpi-grid"></div></section>`)

		p.raw(`<section class="grid">`)
		panel(p, "Monthly Sales Trend", "monthly-chart")
		panel(p, "Sales by Region", "region-chart")
		panel(p, "Sales by Customer Segment", "segment-chart")
		panel(p, "Top Product Categories", "category-chart")
		panel(p, "Discount vs Profit Analysis", "discount-chart")
		panel(p, "Sales vs Profit Correlation", "scatter-chart")
		p.raw(`</section>`)

		p.raw(`<section><h2>Top Performers</h2><div class="grid">`)
		panel(p, fmt.Sprintf("Top %d Most Profitable Products", data.TopN), "products-chart")
		panel(p, fmt.Sprintf("Top %d Customers by Sales", data.TopN), "customers-chart")
		panel(p, fmt.Sprintf("Top %d Sub-Categories by Sales", data.TopN), "subcategories-chart")
		panel(p, fmt.Sprintf("Top %d Sales Managers", data.TopN), "salespeople-chart")
		p.raw(`</div></section>`)

		p.raw(`<section><h2>Detailed Data Summary</h2><div id="records-content"></div></section>`)
		p.raw(`</main>`)

		p.raw(`<div hidden data-effect="window.renderCharts && window.renderCharts({monthly: $monthlyData, regions: $regionsData, segments: $segmentsData, categories: $categoriesData, discounts: $discountData, scatter: $scatterData, products: $topProductsData, customers: $topCustomersData, subcategories: $subCategoriesData, salespeople: $topSalespeopleData})"></div>`)
		p.raw(`<script>` + chartRenderer + `</script>`)
		p.raw(`</body></html>`)
		return p.err
	})
}

func sidebar(p *writer, data PageData) {
	p.raw(`<aside class="sidebar"><h2>Filters</h2>`)

	p.raw(`<label>From<input type="date" data-bind="start" data-on:change="@get('/sse/dashboard')"`)
	dateLimits(p, data.Dates)
	p.raw(`></label>`)
	p.raw(`<label>To<input type="date" data-bind="end" data-on:change="@get('/sse/dashboard')"`)
	dateLimits(p, data.Dates)
	p.raw(`></label>`)

	for _, d := range dataset.Dimensions {
		p.raw(`<label>`)
		p.text(d.Label())
		p.raw(`<select data-bind="`)
		p.text(string(d))
		p.raw(`" data-on:change="@get('/sse/dashboard')"><option>` + allOption + `</option>`)
		for _, v := range data.Options[string(d)] {
			p.raw(`<option>`)
			p.text(v)
			p.raw(`</option>`)
		}
		p.raw(`</select></label>`)
	}
	p.raw(`</aside>`)
}

func dateLimits(p *writer, span *models.DateSpan) {
	if span == nil {
		return
	}
	p.raw(` min="` + span.From.Format(time.DateOnly) + `" max="` + span.To.Format(time.DateOnly) + `"`)
}

func panel(p *writer, title, canvasID string) {
	p.raw(`<div class="panel"><h3>`)
	p.text(title)
	p.raw(`</h3><canvas id="` + canvasID + `"></canvas></div>`)
}

// initialSignals seeds every datastar signal the page binds or reads.
func initialSignals(data PageData) (string, error) {
	s := map[string]any{
		"start":              "",
		"end":                "",
		"empty":              false,
		"matched":            0,
		"monthlyData":        []any{},
		"regionsData":        []any{},
		"segmentsData":       []any{},
		"categoriesData":     []any{},
		"discountData":       []any{},
		"scatterData":        []any{},
		"topProductsData":    []any{},
		"topCustomersData":   []any{},
		"subCategoriesData":  []any{},
		"topSalespeopleData": []any{},
	}
	if data.Dates != nil {
		s["start"] = data.Dates.From.Format(time.DateOnly)
		s["end"] = data.Dates.To.Format(time.DateOnly)
	}
	for _, d := range dataset.Dimensions {
		s[string(d)] = allOption
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// writer keeps the first write error so the component body can stay linear.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}

const pageStyle = `
body{margin:0;font-family:system-ui,sans-serif;display:flex;background:#f6f7fb;color:#1f2937}
.sidebar{width:240px;padding:1rem;background:#fff;border-right:1px solid #e5e7eb;min-height:100vh}
.sidebar label{display:block;margin:.75rem 0;font-size:.85rem}
.sidebar input,.sidebar select{display:block;width:100%;margin-top:.25rem}
.content{flex:1;padding:1.5rem}
.subtitle{color:#6b7280}
.kpi-grid{display:grid;grid-template-columns:repeat(4,1fr);gap:.75rem}
.kpi-card{background:#fff;border-radius:8px;padding:.75rem;display:flex;flex-direction:column}
.kpi-label{font-size:.8rem;color:#6b7280}
.kpi-value{font-size:1.3rem;font-weight:600}
.grid{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.panel{background:#fff;border-radius:8px;padding:1rem}
.warning{background:#fef3c7;border:1px solid #f59e0b;padding:.75rem;border-radius:6px}
.error{background:#fee2e2;border:1px solid #ef4444;padding:.75rem;border-radius:6px}
.muted{color:#6b7280;font-size:.85rem}
.modern-table{width:100%;border-collapse:collapse;font-size:.8rem;background:#fff}
.modern-table th,.modern-table td{padding:.35rem .5rem;border-bottom:1px solid #e5e7eb;text-align:left}
.category-badge{background:#e0e7ff;border-radius:4px;padding:0 .3rem}
`

const chartRenderer = `
window.charts = {};
function draw(id, config) {
  if (window.charts[id]) { window.charts[id].destroy(); }
  const el = document.getElementById(id);
  if (el) { window.charts[id] = new Chart(el, config); }
}
function bar(id, rows, label, key, value, horizontal) {
  draw(id, {type: 'bar', data: {labels: rows.map(r => r[key]), datasets: [{label: label, data: rows.map(r => r[value])}]},
    options: {indexAxis: horizontal ? 'y' : 'x', plugins: {legend: {display: false}}}});
}
window.renderCharts = function (d) {
  draw('monthly-chart', {type: 'line', data: {labels: d.monthly.map(r => r.month), datasets: [
    {label: 'Sales', data: d.monthly.map(r => r.sales)}, {label: 'Profit', data: d.monthly.map(r => r.profit)}]}});
  bar('region-chart', d.regions, 'Sales', 'value', 'sales');
  draw('segment-chart', {type: 'pie', data: {labels: d.segments.map(r => r.value), datasets: [{data: d.segments.map(r => r.sales)}]}});
  bar('category-chart', d.categories, 'Sales', 'value', 'sales', true);
  bar('discount-chart', d.discounts, 'Average Profit', 'label', 'mean_profit');
  draw('scatter-chart', {type: 'scatter', data: {datasets: [{label: 'Orders', data: d.scatter.map(r => ({x: r.sales, y: r.profit}))}]}});
  bar('products-chart', d.products, 'Profit', 'key', 'value', true);
  bar('customers-chart', d.customers, 'Sales', 'key', 'value', true);
  bar('subcategories-chart', d.subcategories, 'Sales', 'key', 'value', true);
  bar('salespeople-chart', d.salespeople, 'Sales', 'key', 'value', true);
};
`
