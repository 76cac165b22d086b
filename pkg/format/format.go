// Package format renders amounts, dates and trends for display in the
// Vietnamese storefront conventions.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultTimezone is used when no display timezone is configured.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

// NoTrend is shown when there is no previous month to compare against.
const NoTrend = "—"

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "15:04:05 02/01/2006"
	vndSymbol      = "₫"
	ictOffset      = 7 * 60 * 60
)

// vnd is the Vietnamese dong unit.
var vnd = currency.MustParseISO("VND")

// Formatter formats values for one display timezone.
type Formatter struct {
	loc     *time.Location
	printer *message.Printer
	scale   int
}

// New creates a formatter for the named IANA timezone. An empty name uses
// DefaultTimezone; when the timezone database lacks it, a fixed UTC+7 zone
// is used instead.
func New(timezone string) (*Formatter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		if timezone != DefaultTimezone {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
		loc = time.FixedZone("ICT", ictOffset)
	}
	scale, _ := currency.Standard.Rounding(vnd)
	return &Formatter{
		loc:     loc,
		printer: message.NewPrinter(language.Vietnamese),
		scale:   scale,
	}, nil
}

// Default returns a formatter for DefaultTimezone.
func Default() *Formatter {
	f, _ := New(DefaultTimezone)
	return f
}

// Location returns the display timezone.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Currency formats a VND amount, e.g. "150.000 ₫". Non-finite amounts yield
// an empty string.
func (f *Formatter) Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	if f.scale == 0 {
		return f.printer.Sprintf("%d", int64(math.Round(amount))) + " " + vndSymbol
	}
	return f.printer.Sprintf("%.*f", f.scale, amount) + " " + vndSymbol
}

// Number formats a count with Vietnamese digit grouping, e.g. "1.234".
func (f *Formatter) Number(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Date formats t as dd/mm/yyyy. The zero time yields "".
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(dateLayout)
}

// DateTime formats t as HH:MM:SS dd/mm/yyyy. The zero time yields "".
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(dateTimeLayout)
}

// DatePtr is Date for optional timestamps.
func (f *Formatter) DatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return f.Date(*t)
}

// DateTimePtr is DateTime for optional timestamps.
func (f *Formatter) DateTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return f.DateTime(*t)
}

// Trend describes the change from previous to current, e.g.
// "+12.5% so với tháng trước". A zero previous value yields NoTrend.
func Trend(current, previous float64) string {
	if previous == 0 {
		return NoTrend
	}
	diff := (current - previous) / previous * 100
	sign := ""
	if diff >= 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(diff, 'f', 1, 64) + "% so với tháng trước"
}

// PageParam renders a page number for a query string; values below one
// mean "let the backend choose" and yield "".
func PageParam(page int) string {
	if page <= 0 {
		return ""
	}
	return strconv.Itoa(page)
}
