package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/engine"
	"superstore-dashboard/internal/errors"
)

// allOption is what the UI selectors send for "no restriction".
const allOption = "All"

var (
	openStart = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	openEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// FilterParams is the sidebar state, either from the query string of a JSON
// request or from the datastar signals of an SSE request.
type FilterParams struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Region   string `json:"region"`
	Segment  string `json:"segment"`
	Category string `json:"category"`
	ShipMode string `json:"ship_mode"`
}

func filterParamsFromQuery(q url.Values) FilterParams {
	return FilterParams{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		Region:   q.Get(string(dataset.Region)),
		Segment:  q.Get(string(dataset.Segment)),
		Category: q.Get(string(dataset.Category)),
		ShipMode: q.Get(string(dataset.ShipMode)),
	}
}

func (p FilterParams) value(d dataset.Dimension) string {
	switch d {
	case dataset.Region:
		return p.Region
	case dataset.Segment:
		return p.Segment
	case dataset.Category:
		return p.Category
	case dataset.ShipMode:
		return p.ShipMode
	}
	return ""
}

// Spec converts the params to a FilterSpec. Empty values and "All" leave a
// dimension unrestricted. A single date bound leaves the other side open.
func (p FilterParams) Spec() (engine.FilterSpec, error) {
	var opts []engine.FilterOption

	start, end := strings.TrimSpace(p.Start), strings.TrimSpace(p.End)
	if start != "" || end != "" {
		from, err := parseDay("start", start, openStart)
		if err != nil {
			return engine.FilterSpec{}, err
		}
		to, err := parseDay("end", end, openEnd)
		if err != nil {
			return engine.FilterSpec{}, err
		}
		opts = append(opts, engine.WithDateRange(from, to))
	}

	for _, d := range dataset.Dimensions {
		v := strings.TrimSpace(p.value(d))
		if v == "" || v == allOption {
			continue
		}
		opts = append(opts, engine.WithEquals(d, v))
	}

	spec, err := engine.NewFilterSpec(opts...)
	if err != nil {
		return engine.FilterSpec{}, errors.ValidationWrap(err, err.Error())
	}
	return spec, nil
}

func parseDay(name, value string, open time.Time) (time.Time, error) {
	if value == "" {
		return open, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.ValidationWrap(err, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", name))
	}
	return t, nil
}

// queryInt reads an optional positive integer parameter.
func queryInt(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.Validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}
