package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

func TestBounds(t *testing.T) {
	span, ok := Bounds(newTestView(fiveRecords()))
	require.True(t, ok)
	assert.Equal(t, day(2011, 12, 31), span.From)
	assert.Equal(t, day(2012, 3, 1), span.To)

	_, ok = Bounds(View{})
	assert.False(t, ok)
}

func TestOptions(t *testing.T) {
	v := newTestView(fiveRecords())

	got, err := Options(v, dataset.Region)
	require.NoError(t, err)
	assert.Equal(t, []string{"Central", "East", "South", "West"}, got)

	_, err = Options(v, dataset.Dimension("country"))
	assert.ErrorIs(t, err, dataset.ErrUnknownDimension)
}

func TestDescribeNumeric(t *testing.T) {
	got := DescribeNumeric(newTestView(fiveRecords()))
	require.Len(t, got, 5)

	sales := got[0]
	assert.Equal(t, "Sales", sales.Column)
	assert.Equal(t, 5, sales.Count)
	assert.Equal(t, 146.0, sales.Mean)
	assert.InDelta(t, 102.86, sales.Std, 0.01)
	assert.Equal(t, 50.0, sales.Min)
	assert.Equal(t, 80.0, sales.P25)
	assert.Equal(t, 100.0, sales.Median)
	assert.Equal(t, 200.0, sales.P75)
	assert.Equal(t, 300.0, sales.Max)
}

func TestDescribeNumeric_SmallInputs(t *testing.T) {
	got := DescribeNumeric(View{})
	require.Len(t, got, 5)
	assert.Equal(t, models.NumericSummary{Column: "Sales"}, got[0])

	one := DescribeNumeric(newTestView([]models.Record{{Sales: 42}}))
	assert.Equal(t, 42.0, one[0].Mean)
	assert.Equal(t, 0.0, one[0].Std)
	assert.Equal(t, 42.0, one[0].Median)
}

func TestQuantile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-9)
}

func TestDescribeCategorical(t *testing.T) {
	got := DescribeCategorical(newTestView(fiveRecords()))

	assert.Equal(t, []models.CategoricalSummary{
		{Column: "Region", UniqueValues: 4},
		{Column: "Segment", UniqueValues: 3},
		{Column: "Category", UniqueValues: 3},
		{Column: "Ship Mode", UniqueValues: 3},
	}, got)
}
