// Package revenue derives the admin dashboard figures from the backend's
// monthly revenue summary.
package revenue

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/format"
)

// DefaultMonths is the reporting window when none is chosen.
const DefaultMonths = 6

// MsgLoadFailed is shown when the summary cannot be fetched.
const MsgLoadFailed = "Không thể tải dữ liệu doanh thu."

// ErrInvalidMonths is returned for a window outside the offered choices.
var ErrInvalidMonths = errors.New("months must be one of 3, 6 or 12")

var allowedMonths = []int{3, 6, 12}

// ParseMonths validates a reporting window. Zero selects DefaultMonths.
func ParseMonths(months int) (int, error) {
	if months == 0 {
		return DefaultMonths, nil
	}
	if !slices.Contains(allowedMonths, months) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonths, months)
	}
	return months, nil
}

// Aggregates are the totals across the reporting window.
type Aggregates struct {
	Total    float64 `json:"total"`
	Orders   int     `json:"orders"`
	AvgOrder float64 `json:"avgOrder"`
}

// Aggregate sums the monthly buckets. The average is zero when there are no
// orders.
func Aggregate(s *bookstore.RevenueSummary) Aggregates {
	var a Aggregates
	if s == nil {
		return a
	}
	for _, m := range s.MonthlyRevenue {
		a.Total += m.Revenue
		a.Orders += m.Orders
	}
	if a.Orders > 0 {
		a.AvgOrder = a.Total / float64(a.Orders)
	}
	return a
}

// Latest returns the most recent month, or nil.
func Latest(s *bookstore.RevenueSummary) *bookstore.MonthlyRevenue {
	if s == nil || len(s.MonthlyRevenue) == 0 {
		return nil
	}
	return &s.MonthlyRevenue[len(s.MonthlyRevenue)-1]
}

// Previous returns the month before the latest, or nil.
func Previous(s *bookstore.RevenueSummary) *bookstore.MonthlyRevenue {
	if s == nil || len(s.MonthlyRevenue) < 2 {
		return nil
	}
	return &s.MonthlyRevenue[len(s.MonthlyRevenue)-2]
}

// Trend compares the latest month with the previous one.
func Trend(s *bookstore.RevenueSummary) string {
	latest, prev := Latest(s), Previous(s)
	if latest == nil || prev == nil {
		return format.NoTrend
	}
	return format.Trend(latest.Revenue, prev.Revenue)
}

// Source fetches revenue summaries.
type Source interface {
	RevenueSummary(ctx context.Context, token string, months int) (*bookstore.RevenueSummary, error)
}

// Report is a summary with its derived figures.
type Report struct {
	Months     int                       `json:"months"`
	Summary    *bookstore.RevenueSummary `json:"summary"`
	Aggregates Aggregates                `json:"aggregates"`
	Trend      string                    `json:"trend"`
}

// Load fetches the summary for months and derives the dashboard figures.
func Load(ctx context.Context, src Source, token string, months int) (*Report, error) {
	months, err := ParseMonths(months)
	if err != nil {
		return nil, err
	}
	summary, err := src.RevenueSummary(ctx, token, months)
	if err != nil {
		return nil, fmt.Errorf("loading revenue summary: %w", err)
	}
	return &Report{
		Months:     months,
		Summary:    summary,
		Aggregates: Aggregate(summary),
		Trend:      Trend(summary),
	}, nil
}
