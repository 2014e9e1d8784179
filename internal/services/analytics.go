package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/engine"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const (
	defaultTopN       = engine.DefaultTopN
	defaultSampleSize = engine.MaxSample
	defaultTableRows  = 1000
)

// ErrNotLoaded is returned by computations that run before any data is set.
var ErrNotLoaded = errors.New("dataset not loaded")

// Limits bounds the size of the list panels on the dashboard.
type Limits struct {
	TopN       int
	SampleSize int
	TableRows  int
}

func (l Limits) withDefaults() Limits {
	if l.TopN <= 0 {
		l.TopN = defaultTopN
	}
	if l.SampleSize <= 0 || l.SampleSize > engine.MaxSample {
		l.SampleSize = defaultSampleSize
	}
	if l.TableRows <= 0 || l.TableRows > defaultTableRows {
		l.TableRows = defaultTableRows
	}
	return l
}

// Dashboard is every panel of the page computed from one filtered view.
// Empty is set when the filter matched nothing; the panels are then empty
// collections and zero KPIs, never an error.
type Dashboard struct {
	Filter  string `json:"filter"`
	Empty   bool   `json:"empty"`
	Matched int    `json:"matched"`

	KPIs       models.KPIResult        `json:"kpis"`
	Monthly    []models.MonthlyPoint   `json:"monthly"`
	Regions    []models.DimensionTotal `json:"regions"`
	Segments   []models.DimensionTotal `json:"segments"`
	Categories []models.DimensionTotal `json:"categories"`
	Discounts  []models.DiscountBucket `json:"discounts"`

	TopProducts      []models.RankedEntry `json:"top_products"`
	TopCustomers     []models.RankedEntry `json:"top_customers"`
	TopSubCategories []models.RankedEntry `json:"top_sub_categories"`
	TopSalespeople   []models.RankedEntry `json:"top_salespeople"`

	Sample  []models.Record `json:"sample"`
	Records []models.Record `json:"records"`
}

type Analytics struct {
	mu       sync.RWMutex
	set      *dataset.RecordSet
	source   string
	loadedAt time.Time

	cache      *dataset.Cache
	limits     Limits
	dashboards atomic.Int64
	logger     *slog.Logger
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func WithLimits(l Limits) Option {
	return func(a *Analytics) { a.limits = l.withDefaults() }
}

func WithCache(c *dataset.Cache) Option {
	return func(a *Analytics) { a.cache = c }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		limits: Limits{}.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = dataset.NewCache(nil)
	}
	a.logger = observability.Component(a.logger, "analytics")
	return a
}

// SetData replaces the dataset with records.
func (a *Analytics) SetData(records []models.Record) {
	a.swap(dataset.NewRecordSet(records), "memory")
}

// LoadFromCSV loads filename through the dataset cache and makes it current.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.Finish()
	span.SetTag("source", filename)

	start := time.Now()
	rs, err := a.cache.Load(ctx, filename)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("load %s: %w", filename, err)
	}
	a.swap(rs, filename)

	a.logger.Info("dataset ready",
		"source", filename,
		"records", rs.Len(),
		"duration", time.Since(start))
	return nil
}

func (a *Analytics) swap(rs *dataset.RecordSet, source string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.set = rs
	a.source = source
	a.loadedAt = time.Now()
}

func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.set != nil
}

func (a *Analytics) Limits() Limits { return a.limits }

// View returns the unfiltered view of the current dataset.
func (a *Analytics) View() (engine.View, error) {
	a.mu.RLock()
	rs := a.set
	a.mu.RUnlock()
	if rs == nil {
		return engine.View{}, ErrNotLoaded
	}
	return engine.NewView(rs), nil
}

// Filter applies spec to the current dataset.
func (a *Analytics) Filter(spec engine.FilterSpec) (engine.View, error) {
	v, err := a.View()
	if err != nil {
		return engine.View{}, err
	}
	return engine.Filter(v, spec), nil
}

// Dashboard filters once and computes every panel concurrently from the
// resulting view.
func (a *Analytics) Dashboard(ctx context.Context, spec engine.FilterSpec) (*Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.dashboard")
	defer span.Finish()
	span.SetTag("filter", spec.String())

	v, err := a.Filter(spec)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	a.dashboards.Add(1)

	d := &Dashboard{
		Filter:  spec.String(),
		Empty:   v.Empty(),
		Matched: v.Len(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.KPIs = engine.ComputeKPIs(v)
		return nil
	})
	g.Go(func() error {
		d.Monthly = engine.MonthlyTrend(v)
		return nil
	})
	g.Go(func() error {
		d.Discounts = engine.DiscountProfit(v)
		return nil
	})
	g.Go(func() (err error) {
		d.Regions, err = engine.ByDimension(v, dataset.Region, engine.SortNone)
		return err
	})
	g.Go(func() (err error) {
		d.Segments, err = engine.ByDimension(v, dataset.Segment, engine.SortNone)
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = engine.ByDimension(v, dataset.Category, engine.SortBySalesAsc)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = engine.TopN(v, engine.EntityProduct, engine.MetricProfit, a.limits.TopN)
		return err
	})
	g.Go(func() (err error) {
		d.TopCustomers, err = engine.TopN(v, engine.EntityCustomer, engine.MetricSales, a.limits.TopN)
		return err
	})
	g.Go(func() (err error) {
		d.TopSubCategories, err = engine.TopN(v, engine.EntitySubCategory, engine.MetricSales, a.limits.TopN)
		return err
	})
	g.Go(func() (err error) {
		d.TopSalespeople, err = engine.TopN(v, engine.EntitySalesperson, engine.MetricSales, a.limits.TopN)
		return err
	})
	g.Go(func() error {
		d.Sample = engine.Sample(v, a.limits.SampleSize, nil)
		return nil
	})
	g.Go(func() error {
		d.Records = v.Head(a.limits.TableRows)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	if d.Empty {
		a.logger.Debug("filter matched no records", "filter", d.Filter)
	}
	return d, nil
}

// Stats describes the loaded dataset and the configured limits for
// /admin/stats.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	rs, source, loadedAt := a.set, a.source, a.loadedAt
	a.mu.RUnlock()

	stats := map[string]any{
		"loaded":         rs != nil,
		"source":         source,
		"cached_sources": a.cache.Len(),
		"dashboards":     a.dashboards.Load(),
		"top_n":          a.limits.TopN,
		"sample_size":    a.limits.SampleSize,
		"table_rows":     a.limits.TableRows,
		"record_count":   0,
		"last_processed": loadedAt,
	}
	if rs == nil {
		return stats
	}

	stats["record_count"] = rs.Len()
	for _, d := range dataset.Dimensions {
		stats[string(d)+"_values"] = len(rs.Values(d))
	}
	if span, ok := engine.Bounds(engine.NewView(rs)); ok {
		stats["first_order"] = span.From.Format(time.DateOnly)
		stats["last_order"] = span.To.Format(time.DateOnly)
	}
	return stats
}
