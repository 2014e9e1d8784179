package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8
)

const (
	colOrderID      = "Order ID"
	colOrderDate    = "Order Date"
	colShipDate     = "Ship Date"
	colShipMode     = "Ship Mode"
	colCustomerID   = "Customer ID"
	colCustomerName = "Customer Name"
	colSegment      = "Segment"
	colRegion       = "Region"
	colProductID    = "Product ID"
	colProductName  = "Product Name"
	colCategory     = "Category"
	colSubCategory  = "Sub-Category"
	colPerson       = "Person"
	colSales        = "Sales"
	colProfit       = "Profit"
	colQuantity     = "Quantity"
	colDiscount     = "Discount"
	colShippingCost = "Shipping Cost"
)

// RequiredColumns are the header names a source must contain.
var RequiredColumns = []string{
	colOrderID, colOrderDate, colShipDate, colShipMode,
	colCustomerID, colCustomerName, colSegment, colRegion,
	colProductID, colProductName, colCategory, colSubCategory,
	colPerson, colSales, colProfit, colQuantity, colDiscount, colShippingCost,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01-02-2006",
}

var (
	ErrEmptySource   = errors.New("source has no header")
	ErrMissingColumn = errors.New("required column missing")
	ErrBadDate       = errors.New("unparseable date")
	ErrBadNumber     = errors.New("unparseable number")
	ErrBadRow        = errors.New("malformed row")
)

// LoadError reports why a source could not be turned into a RecordSet.
// Line is the 1-based line in the source, 0 when the failure is not tied to
// a row.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadFile opens path and parses it with Parse.
func LoadFile(ctx context.Context, path string) (*RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	start := time.Now()
	rs, err := Parse(ctx, f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, err
	}

	slog.Default().Info("dataset loaded",
		"component", "dataset",
		"path", path,
		"records", rs.Len(),
		"duration", time.Since(start),
	)
	return rs, nil
}

// Parse reads a CSV source with a header row. Any row that fails to parse
// aborts the load; identical input always yields identical records.
func Parse(ctx context.Context, r io.Reader) (*RecordSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: ErrEmptySource}
	}
	if err != nil {
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("%w: %v", ErrBadRow, err)}
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	batch := make([][]string, 0, batchSize)
	line := 1
	batchStart := 2

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("%w: %v", ErrBadRow, err)}
		}

		batch = append(batch, row)
		if len(batch) >= batchSize {
			parsed, err := parseBatch(ctx, batch, cols, batchStart)
			if err != nil {
				return nil, err
			}
			records = append(records, parsed...)
			batch = batch[:0]
			batchStart = line + 1
		}
	}

	if len(batch) > 0 {
		parsed, err := parseBatch(ctx, batch, cols, batchStart)
		if err != nil {
			return nil, err
		}
		records = append(records, parsed...)
	}

	return NewRecordSet(records), nil
}

type columns map[string]int

func mapColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &LoadError{Line: 1, Column: name, Err: ErrMissingColumn}
		}
	}
	return cols, nil
}

// parseBatch converts rows concurrently. Results keep the input order and
// the reported error is the one on the lowest line.
func parseBatch(ctx context.Context, rows [][]string, cols columns, firstLine int) ([]models.Record, error) {
	out := make([]models.Record, len(rows))
	errs := make([]error, len(rows))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	chunk := (len(rows) + maxWorkers - 1) / maxWorkers
	for lo := 0; lo < len(rows); lo += chunk {
		hi := min(lo+chunk, len(rows))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i], errs[i] = parseRow(rows[i], cols, firstLine+i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowParser struct {
	row  []string
	cols columns
	line int
	err  error
}

func (p *rowParser) str(col string) string {
	idx := p.cols[col]
	if idx >= len(p.row) {
		if p.err == nil {
			p.err = &LoadError{Line: p.line, Column: col, Err: ErrBadRow}
		}
		return ""
	}
	return strings.TrimSpace(p.row[idx])
}

func (p *rowParser) date(col string) time.Time {
	s := p.str(col)
	if p.err != nil {
		return time.Time{}
	}
	t, err := parseDate(s)
	if err != nil {
		p.err = &LoadError{Line: p.line, Column: col, Err: fmt.Errorf("%w: %q", ErrBadDate, s)}
	}
	return t
}

func (p *rowParser) float(col string) float64 {
	s := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = &LoadError{Line: p.line, Column: col, Err: fmt.Errorf("%w: %q", ErrBadNumber, s)}
		return 0
	}
	return v
}

func (p *rowParser) integer(col string) int {
	s := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = &LoadError{Line: p.line, Column: col, Err: fmt.Errorf("%w: %q", ErrBadNumber, s)}
	}
	return v
}

func parseRow(row []string, cols columns, line int) (models.Record, error) {
	p := &rowParser{row: row, cols: cols, line: line}
	rec := models.Record{
		OrderID:      p.str(colOrderID),
		CustomerID:   p.str(colCustomerID),
		CustomerName: p.str(colCustomerName),
		ProductID:    p.str(colProductID),
		ProductName:  p.str(colProductName),
		OrderDate:    p.date(colOrderDate),
		ShipDate:     p.date(colShipDate),
		Region:       p.str(colRegion),
		Segment:      p.str(colSegment),
		Category:     p.str(colCategory),
		SubCategory:  p.str(colSubCategory),
		ShipMode:     p.str(colShipMode),
		Salesperson:  p.str(colPerson),
		Sales:        p.float(colSales),
		Profit:       p.float(colProfit),
		Quantity:     p.integer(colQuantity),
		Discount:     p.float(colDiscount),
		ShippingCost: p.float(colShippingCost),
	}
	if p.err != nil {
		return models.Record{}, p.err
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", s)
}
