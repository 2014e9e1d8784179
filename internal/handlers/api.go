package handlers

import (
	stderrors "errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/engine"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

var cacheable = map[string]string{
	"Cache-Control": "public, max-age=300",
}

// ViewResponse wraps a result computed over a filtered view. Empty marks a
// filter that matched nothing; the result is then an empty collection or
// zero values.
type ViewResponse[T any] struct {
	Filter  string `json:"filter"`
	Empty   bool   `json:"empty"`
	Matched int    `json:"matched"`
	Result  T      `json:"result"`
}

// FilterOptions lists what the sidebar selectors can offer.
type FilterOptions struct {
	Dates   *models.DateSpan    `json:"dates"`
	Options map[string][]string `json:"options"`
}

// Summary is the raw data summary panel.
type Summary struct {
	Numeric     []models.NumericSummary     `json:"numeric"`
	Categorical []models.CategoricalSummary `json:"categorical"`
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func respond[T any](w http.ResponseWriter, spec engine.FilterSpec, v engine.View, result T, headers map[string]string) {
	errors.WriteSuccessWithHeaders(w, ViewResponse[T]{
		Filter:  spec.String(),
		Empty:   v.Empty(),
		Matched: v.Len(),
		Result:  result,
	}, headers)
}

// filtered parses the filter from the query string and applies it. On failure
// the error response has been written and ok is false.
func (h *APIHandlers) filtered(w http.ResponseWriter, r *http.Request) (spec engine.FilterSpec, v engine.View, ok bool) {
	spec, err := filterParamsFromQuery(r.URL.Query()).Spec()
	if err != nil {
		h.fail(w, r, err)
		return spec, v, false
	}
	v, err = h.analytics.Filter(spec)
	if err != nil {
		h.fail(w, r, err)
		return spec, v, false
	}
	return spec, v, true
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, classify(err), observability.GetRequestID(r.Context()))
}

// classify maps domain errors onto HTTP error codes.
func classify(err error) error {
	var appErr *errors.AppError
	var loadErr *dataset.LoadError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrNotLoaded):
		return errors.ServiceUnavailable("Dataset is not loaded yet")
	case stderrors.As(err, &loadErr):
		return errors.LoadWrap(err, "Dataset could not be loaded")
	case stderrors.Is(err, dataset.ErrUnknownDimension),
		stderrors.Is(err, engine.ErrUnknownEntity),
		stderrors.Is(err, engine.ErrUnknownKind):
		return errors.NotFoundWrap(err, err.Error())
	case stderrors.Is(err, engine.ErrInvalidFilter),
		stderrors.Is(err, engine.ErrUnknownMetric),
		stderrors.Is(err, engine.ErrUnknownSort):
		return errors.ValidationWrap(err, err.Error())
	}
	return err
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	respond(w, spec, v, engine.ComputeKPIs(v), cacheable)
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	res, err := engine.Aggregate(v, engine.KindMonthlyTrend, engine.Params{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, spec, v, res.Monthly, cacheable)
}

func (h *APIHandlers) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	dim, err := dataset.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := engine.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	res, err := engine.Aggregate(v, engine.KindDimension, engine.Params{Dimension: dim, Sort: order})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, spec, v, res.Groups, cacheable)
}

func (h *APIHandlers) HandleDiscountProfit(w http.ResponseWriter, r *http.Request) {
	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	res, err := engine.Aggregate(v, engine.KindDiscountProfit, engine.Params{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, spec, v, res.Discounts, cacheable)
}

func (h *APIHandlers) HandleTopN(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	entity, err := engine.ParseEntity(r.PathValue("entity"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metric := engine.MetricSales
	if raw := q.Get("metric"); raw != "" {
		if metric, err = engine.ParseMetric(raw); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	limit, err := queryInt(q, "limit", h.analytics.Limits().TopN)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	res, err := engine.Aggregate(v, engine.KindTopN, engine.Params{Entity: entity, Metric: metric, Limit: limit})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, spec, v, res.Ranking, cacheable)
}

// HandleSample draws the scatter sample. Without a seed each call may
// return a different subset, so the response is never cached.
func (h *APIHandlers) HandleSample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(q, "limit", h.analytics.Limits().SampleSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var rng *rand.Rand
	headers := map[string]string{"Cache-Control": "no-store"}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(w, r, errors.Validation("seed must be an unsigned integer"))
			return
		}
		rng = rand.New(rand.NewPCG(seed, seed))
		headers = cacheable
	}

	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	res, err := engine.Aggregate(v, engine.KindSample, engine.Params{Limit: limit, Rand: rng})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, spec, v, res.Sample, headers)
}

// HandleRecords returns the first rows of the filtered view for the raw
// data table.
func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	rows := h.analytics.Limits().TableRows
	limit, err := queryInt(r.URL.Query(), "limit", rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	respond(w, spec, v, v.Head(min(limit, rows)), cacheable)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	spec, v, ok := h.filtered(w, r)
	if !ok {
		return
	}
	respond(w, spec, v, Summary{
		Numeric:     engine.DescribeNumeric(v),
		Categorical: engine.DescribeCategorical(v),
	}, cacheable)
}

// HandleFilters reports selector options and the date bounds of the full
// dataset, independent of any filter.
func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	v, err := h.analytics.View()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	opts, err := filterOptions(v)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, opts, cacheable)
}

func filterOptions(v engine.View) (FilterOptions, error) {
	out := FilterOptions{Options: make(map[string][]string, len(dataset.Dimensions))}
	if span, ok := engine.Bounds(v); ok {
		out.Dates = &span
	}
	for _, d := range dataset.Dimensions {
		values, err := engine.Options(v, d)
		if err != nil {
			return FilterOptions{}, err
		}
		out.Options[string(d)] = values
	}
	return out, nil
}

// HandleDashboard returns every panel in one response.
func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := filterParamsFromQuery(r.URL.Query()).Spec()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.analytics.Dashboard(r.Context(), spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, d, map[string]string{"Cache-Control": "no-store"})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Loaded() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
