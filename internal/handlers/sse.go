package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

// datastarParam is the query parameter datastar encodes signals into on GET.
const datastarParam = "datastar"

var templateFuncs = template.FuncMap{
	"money":   formatMoney,
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"date":    func(r models.Record) string { return r.OrderDate.Format(time.DateOnly) },
}

var kpiCardsTemplate = template.Must(template.New("kpiCards").Funcs(templateFuncs).Parse(`
<div id="kpi-cards" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Sales</span><span class="kpi-value">{{money .TotalSales}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Profit</span><span class="kpi-value">{{money .TotalProfit}}</span></div>
<div class="kpi-card"><span class="kpi-label">Profit Margin</span><span class="kpi-value">{{printf "%.1f" .ProfitMargin}}%</span></div>
<div class="kpi-card"><span class="kpi-label">Total Customers</span><span class="kpi-value">{{.TotalCustomers}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Orders</span><span class="kpi-value">{{.TotalOrders}}</span></div>
<div class="kpi-card"><span class="kpi-label">Avg Order Value</span><span class="kpi-value">{{money .AvgOrderValue}}</span></div>
<div class="kpi-card"><span class="kpi-label">Avg Profit/Order</span><span class="kpi-value">{{money .AvgProfitPerOrder}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Products</span><span class="kpi-value">{{.TotalProducts}}</span></div>
</div>`))

var selectionNoticeTemplate = template.Must(template.New("selectionNotice").Parse(`
<div id="selection-notice">{{if .Empty}}<div class="warning">No data available for the selected filters. Please adjust your selection.</div>{{else}}<span class="muted">{{.Matched}} records match the current filters</span>{{end}}</div>`))

var recordsTableTemplate = template.Must(template.New("recordsTable").Funcs(templateFuncs).Parse(`
<div id="records-content">
<table class="modern-table">
<thead><tr><th>Order ID</th><th>Order Date</th><th>Customer</th><th>Region</th><th>Segment</th><th>Category</th><th>Product</th><th>Sales</th><th>Profit</th><th>Discount</th></tr></thead>
<tbody>
{{range $i, $r := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{$r.OrderID}}</td>
<td>{{date $r}}</td>
<td>{{$r.CustomerName}}</td>
<td>{{$r.Region}}</td>
<td>{{$r.Segment}}</td>
<td><span class="category-badge">{{$r.Category}}</span></td>
<td>{{$r.ProductName}}</td>
<td><strong>{{money $r.Sales}}</strong></td>
<td>{{money $r.Profit}}</td>
<td>{{percent $r.Discount}}</td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type templateData struct {
	Data    []models.Record
	MaxRows int
}

func (h *SSEHandlers) renderRecordsTable(records []models.Record) (string, error) {
	var buf strings.Builder

	maxRows := h.analytics.Limits().TableRows
	if len(records) > maxRows {
		records = records[:maxRows]
	}

	err := recordsTableTemplate.Execute(&buf, templateData{Data: records, MaxRows: maxRows})
	return buf.String(), err
}

func renderKPICards(kpi models.KPIResult) (string, error) {
	var buf strings.Builder
	err := kpiCardsTemplate.Execute(&buf, kpi)
	return buf.String(), err
}

func renderSelectionNotice(d *services.Dashboard) (string, error) {
	var buf strings.Builder
	err := selectionNoticeTemplate.Execute(&buf, d)
	return buf.String(), err
}

// chartSignals is the datastar signal payload the page's chart scripts read.
func chartSignals(d *services.Dashboard) map[string]any {
	return map[string]any{
		"empty":              d.Empty,
		"matched":            d.Matched,
		"monthlyData":        d.Monthly,
		"regionsData":        d.Regions,
		"segmentsData":       d.Segments,
		"categoriesData":     d.Categories,
		"discountData":       d.Discounts,
		"scatterData":        d.Sample,
		"topProductsData":    d.TopProducts,
		"topCustomersData":   d.TopCustomers,
		"subCategoriesData":  d.TopSubCategories,
		"topSalespeopleData": d.TopSalespeople,
	}
}

// HandleDashboard reads the filter signals, recomputes every panel and
// patches the KPI cards, the selection notice, the raw data table and the
// chart signals in one stream.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	params := filterParamsFromQuery(r.URL.Query())
	var signalErr error
	if r.URL.Query().Has(datastarParam) {
		signalErr = datastar.ReadSignals(r, &params)
	}

	sse := datastar.NewSSE(w, r)

	if signalErr != nil {
		h.logger.Warn("read filter signals", "error", signalErr)
		h.patchError(sse, "Filter state could not be read")
		return
	}

	spec, err := params.Spec()
	if err != nil {
		h.patchError(sse, userMessage(err))
		return
	}

	d, err := h.analytics.Dashboard(r.Context(), spec)
	if err != nil {
		h.logger.Error("compute dashboard", "error", err, "filter", spec.String())
		h.patchError(sse, "Dashboard data is unavailable")
		return
	}

	notice, err := renderSelectionNotice(d)
	if err != nil {
		h.logger.Error("render selection notice", "error", err)
		return
	}
	sse.PatchElements(notice)

	cards, err := renderKPICards(d.KPIs)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(cards)

	table, err := h.renderRecordsTable(d.Records)
	if err != nil {
		h.logger.Error("render records table", "error", err)
		return
	}
	sse.PatchElements(table)

	signals, err := json.Marshal(chartSignals(d))
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// userMessage is the part of err that is safe to show in the page.
func userMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Invalid filter"
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, message string) {
	var buf strings.Builder
	buf.WriteString(`<div id="selection-notice"><div class="error">`)
	template.HTMLEscape(&buf, []byte(message))
	buf.WriteString(`</div></div>`)
	sse.PatchElements(buf.String())
}
