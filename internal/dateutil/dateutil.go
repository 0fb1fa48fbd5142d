// internal/dateutil/dateutil.go
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDate is returned by Specific when no date string was given.
var ErrMissingDate = errors.New("specificDate: missing required argument(s): date")

// Keywords understood by Resolve.
const (
	Today         = "today"
	Tomorrow      = "tomorrow"
	NextMonth     = "nextMonth"
	PreviousMonth = "previousMonth"
	NextYear      = "nextYear"
	PreviousYear  = "previousYear"
)

// FormatObject renders the structured date, RFC 3339.
const FormatObject = "object"

var layouts = map[string]string{
	"mm/dd/yyyy":       "01/02/2006",
	"dd.mm.yyyy":       "02.01.2006",
	"dd/mm/yyyy":       "02/01/2006",
	"yyyymmdd":         "20060102",
	"yyyy/mm/dd":       "2006/01/02",
	"dd.mm.yyyy.HH.MM": "02.01.2006.15.04",
	"datetime":         time.RFC1123,
	FormatObject:       time.RFC3339,
}

// Accepted layouts for explicit date strings, tried in order.
var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02.01.2006",
	"20060102",
	"2006/01/02",
}

// Resolver maps date keywords and explicit dates to formatted strings.
// Now is the clock; nil means time.Now.
type Resolver struct {
	Now func() time.Time
}

func (r Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"mm/dd/yyyy", "dd.mm.yyyy", "dd/mm/yyyy", "yyyymmdd", "yyyy/mm/dd", "dd.mm.yyyy.HH.MM", "datetime", FormatObject}
}

// Resolve formats the date a keyword stands for. An empty keyword is today;
// anything that is not a keyword is parsed as an explicit date. An empty
// format means "object".
func (r Resolver) Resolve(keyword, format string) (string, error) {
	now := r.now()
	switch keyword {
	case "", Today:
		return Format(now, format)
	case Tomorrow:
		return Format(now.AddDate(0, 0, 1), format)
	case NextMonth:
		return Format(now.AddDate(0, 1, 0), format)
	case PreviousMonth:
		return Format(now.AddDate(0, -1, 0), format)
	case NextYear:
		return Format(now.AddDate(1, 0, 0), format)
	case PreviousYear, "lastYear":
		return Format(now.AddDate(-1, 0, 0), format)
	default:
		return r.Specific(keyword, format)
	}
}

// Specific parses an explicit date string and formats it.
func (r Resolver) Specific(date, format string) (string, error) {
	if strings.TrimSpace(date) == "" {
		return "", ErrMissingDate
	}
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(t, format)
}

// Parse reads an explicit date in any of the accepted layouts, or as
// "year, month, day[, hour[, minute[, second]]]" components with a 0-based
// month ("2020, 0, 17" is 17 January 2020). Out-of-range components roll
// over into the next unit. Dates without a zone are local.
func Parse(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, date, time.Local); err == nil {
			return t, nil
		}
	}
	if t, ok := parseComponents(date); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", date)
}

func parseComponents(date string) (time.Time, bool) {
	parts := strings.Split(date, ",")
	if len(parts) < 3 || len(parts) > 6 {
		return time.Time{}, false
	}
	var c [6]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		c[i] = n
	}
	return time.Date(c[0], time.Month(c[1]+1), c[2], c[3], c[4], c[5], 0, time.Local), true
}

// Format renders t in a named format.
func Format(t time.Time, format string) (string, error) {
	if format == "" {
		format = FormatObject
	}
	layout, ok := layouts[format]
	if !ok {
		return "", fmt.Errorf("unknown date format %q, expected one of %s", format, strings.Join(Formats(), ", "))
	}
	return t.Format(layout), nil
}
