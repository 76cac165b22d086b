package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	f := Default()
	tests := []struct {
		amount float64
		want   string
	}{
		{150000, "150.000 ₫"},
		{0, "0 ₫"},
		{999, "999 ₫"},
		{1234567, "1.234.567 ₫"},
		{45000.6, "45.001 ₫"},
		{-20000, "-20.000 ₫"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Currency(tt.amount), "amount %v", tt.amount)
	}
}

func TestNumber(t *testing.T) {
	f := Default()
	assert.Equal(t, "1.234", f.Number(1234))
	assert.Equal(t, "12", f.Number(12))
}

func TestDate(t *testing.T) {
	f, err := New("UTC")
	require.NoError(t, err)

	ts := time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "01/03/2025", f.Date(ts))
	assert.Equal(t, "09:05:07 01/03/2025", f.DateTime(ts))
	assert.Equal(t, "", f.Date(time.Time{}))
	assert.Equal(t, "", f.DateTime(time.Time{}))
	assert.Equal(t, "", f.DatePtr(nil))
	assert.Equal(t, "", f.DateTimePtr(nil))
	assert.Equal(t, "01/03/2025", f.DatePtr(&ts))
}

func TestDate_ConvertsToDisplayZone(t *testing.T) {
	f := Default()
	// 20:00 UTC is the next morning in Vietnam.
	ts := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "02/03/2025", f.Date(ts))
	assert.Equal(t, "03:00:00 02/03/2025", f.DateTime(ts))
}

func TestNew_UnknownTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestNew_EmptyUsesDefault(t *testing.T) {
	f, err := New("")
	require.NoError(t, err)
	assert.NotNil(t, f.Location())
}

func TestTrend(t *testing.T) {
	assert.Equal(t, "+12.5% so với tháng trước", Trend(112.5, 100))
	assert.Equal(t, "-25.0% so với tháng trước", Trend(75, 100))
	assert.Equal(t, "+0.0% so với tháng trước", Trend(100, 100))
	assert.Equal(t, NoTrend, Trend(100, 0))
}

func TestPageParam(t *testing.T) {
	assert.Equal(t, "", PageParam(0))
	assert.Equal(t, "", PageParam(-1))
	assert.Equal(t, "3", PageParam(3))
}

func TestNew_DongHasNoMinorUnits(t *testing.T) {
	assert.Equal(t, "VND", vnd.String())

	f, err := New("UTC")
	require.NoError(t, err)
	assert.Equal(t, 0, f.scale)
	assert.Equal(t, "12.000 ₫", f.Currency(11999.5))
}
