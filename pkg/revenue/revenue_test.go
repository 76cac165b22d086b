package revenue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/format"
)

func summary(buckets ...bookstore.MonthlyRevenue) *bookstore.RevenueSummary {
	return &bookstore.RevenueSummary{MonthlyRevenue: buckets}
}

func TestParseMonths(t *testing.T) {
	for _, m := range []int{3, 6, 12} {
		got, err := ParseMonths(m)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMonths(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonths, got)

	_, err = ParseMonths(5)
	assert.ErrorIs(t, err, ErrInvalidMonths)
}

func TestAggregate(t *testing.T) {
	s := summary(
		bookstore.MonthlyRevenue{Label: "01/2025", Revenue: 300000, Orders: 3},
		bookstore.MonthlyRevenue{Label: "02/2025", Revenue: 100000, Orders: 1},
	)
	a := Aggregate(s)
	assert.InDelta(t, 400000, a.Total, 0.001)
	assert.Equal(t, 4, a.Orders)
	assert.InDelta(t, 100000, a.AvgOrder, 0.001)

	assert.Equal(t, Aggregates{}, Aggregate(nil))
	assert.Equal(t, Aggregates{}, Aggregate(summary()))
	assert.Zero(t, Aggregate(summary(bookstore.MonthlyRevenue{Revenue: 10})).AvgOrder)
}

func TestLatestPreviousTrend(t *testing.T) {
	s := summary(
		bookstore.MonthlyRevenue{Label: "01", Revenue: 200},
		bookstore.MonthlyRevenue{Label: "02", Revenue: 225},
	)
	assert.Equal(t, "02", Latest(s).Label)
	assert.Equal(t, "01", Previous(s).Label)
	assert.Equal(t, "+12.5% so với tháng trước", Trend(s))

	single := summary(bookstore.MonthlyRevenue{Label: "01", Revenue: 200})
	assert.NotNil(t, Latest(single))
	assert.Nil(t, Previous(single))
	assert.Equal(t, format.NoTrend, Trend(single))

	zeroPrev := summary(bookstore.MonthlyRevenue{Revenue: 0}, bookstore.MonthlyRevenue{Revenue: 50})
	assert.Equal(t, format.NoTrend, Trend(zeroPrev))

	assert.Nil(t, Latest(nil))
	assert.Equal(t, format.NoTrend, Trend(nil))
}

type fakeSource struct {
	months int
	err    error
}

func (f *fakeSource) RevenueSummary(_ context.Context, _ string, months int) (*bookstore.RevenueSummary, error) {
	f.months = months
	if f.err != nil {
		return nil, f.err
	}
	return summary(bookstore.MonthlyRevenue{Revenue: 100, Orders: 2}), nil
}

func TestLoad(t *testing.T) {
	src := &fakeSource{}
	report, err := Load(context.Background(), src, "tok", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonths, src.months)
	assert.Equal(t, DefaultMonths, report.Months)
	assert.InDelta(t, 50, report.Aggregates.AvgOrder, 0.001)
	assert.Equal(t, format.NoTrend, report.Trend)

	_, err = Load(context.Background(), src, "tok", 7)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	src.err = errors.New("down")
	_, err = Load(context.Background(), src, "tok", 12)
	assert.Error(t, err)
}
